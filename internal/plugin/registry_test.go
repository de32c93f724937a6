package plugin

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLua(t *testing.T, dir, name, source string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	return path
}

const ghPlugin = `
function info()
	return {bindings = {"gh", "github"}, description = "GitHub", example = "gh facebook/react"}
end
function process(query)
	local args = get_args(query, "gh")
	if args == "" then args = get_args(query, "github") end
	return "https://github.com/" .. url_encode_path(args)
end
`

const brokenPlugin = `this is not valid lua (`

func newTestRegistry(dirs []string) *Registry {
	return NewRegistry(Options{
		UserDirs:        dirs,
		PoolSize:        2,
		PluginTimeout:   50 * time.Millisecond,
		CheckoutTimeout: 20 * time.Millisecond,
	})
}

func TestRegistryReloadDiscoversAndIndexes(t *testing.T) {
	dir := t.TempDir()
	writeLua(t, dir, "github.lua", ghPlugin)

	r := newTestRegistry([]string{dir})
	require.NoError(t, r.Reload(context.Background()))

	snap := r.Snapshot()
	require.Len(t, snap.List(), 1)

	pl := snap.Resolve("gh")
	require.NotNil(t, pl)
	pl2 := snap.Resolve("github")
	require.NotNil(t, pl2)
	assert.Same(t, pl, pl2)

	url, err := pl.Process(context.Background(), "gh facebook/react")
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/facebook/react", url)
}

func TestRegistrySkipsBrokenCandidatesButKeepsGoodOnes(t *testing.T) {
	dir := t.TempDir()
	writeLua(t, dir, "github.lua", ghPlugin)
	writeLua(t, dir, "broken.lua", brokenPlugin)

	r := newTestRegistry([]string{dir})
	require.NoError(t, r.Reload(context.Background()))

	snap := r.Snapshot()
	require.Len(t, snap.List(), 1)
	assert.NotNil(t, snap.Resolve("gh"))
}

func TestRegistryReloadFailsEntirelyKeepsPreviousSnapshot(t *testing.T) {
	dir := t.TempDir()
	writeLua(t, dir, "github.lua", ghPlugin)

	r := newTestRegistry([]string{dir})
	require.NoError(t, r.Reload(context.Background()))
	first := r.Snapshot()

	require.NoError(t, os.Remove(filepath.Join(dir, "github.lua")))
	writeLua(t, dir, "broken.lua", brokenPlugin)

	err := r.Reload(context.Background())
	assert.Error(t, err)
	assert.Same(t, first, r.Snapshot())
}

func TestRegistryShadowingIsLexicographicBySourcePath(t *testing.T) {
	dir := t.TempDir()
	writeLua(t, dir, "a_plugin.lua", `
		function info() return {bindings = {"gh"}, description = "a", example = ""} end
		function process(q) return "https://a.example" end
	`)
	writeLua(t, dir, "z_plugin.lua", `
		function info() return {bindings = {"gh"}, description = "z", example = ""} end
		function process(q) return "https://z.example" end
	`)

	r := newTestRegistry([]string{dir})
	require.NoError(t, r.Reload(context.Background()))

	pl := r.Snapshot().Resolve("gh")
	require.NotNil(t, pl)
	assert.Equal(t, filepath.Join(dir, "a_plugin.lua"), pl.SourcePath)
}

func TestRegistryReloadWithNoDirectoriesIsNotAFailure(t *testing.T) {
	r := newTestRegistry([]string{filepath.Join(t.TempDir(), "does-not-exist")})
	require.NoError(t, r.Reload(context.Background()))
	assert.Empty(t, r.Snapshot().List())
}

func TestRegistryReloadWhenDirectoryDisappearsKeepsPreviousSnapshot(t *testing.T) {
	dir := t.TempDir()
	writeLua(t, dir, "github.lua", ghPlugin)

	r := newTestRegistry([]string{dir})
	require.NoError(t, r.Reload(context.Background()))
	first := r.Snapshot()
	require.Len(t, first.List(), 1)

	require.NoError(t, os.RemoveAll(dir))

	err := r.Reload(context.Background())
	assert.Error(t, err)
	assert.Same(t, first, r.Snapshot())
}
