package resolver

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidosera/lolabunny.app/internal/config"
	"github.com/sidosera/lolabunny.app/internal/plugin"
)

func writeLua(t *testing.T, dir, name, source string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(source), 0o644))
}

func newTestResolver(t *testing.T, cfg config.Config) *Resolver {
	t.Helper()
	dir := t.TempDir()
	writeLua(t, dir, "github.lua", `
		function info() return {bindings = {"gh", "github"}, description = "", example = ""} end
		function process(q)
			local args = get_args(q, "gh")
			if args == "" then args = get_args(q, "github") end
			if args == "" then return "https://github.com" end
			return "https://github.com/" .. url_encode_path(args)
		end
	`)

	reg := plugin.NewRegistry(plugin.Options{
		UserDirs:        []string{dir},
		PoolSize:        2,
		PluginTimeout:   100 * time.Millisecond,
		CheckoutTimeout: 50 * time.Millisecond,
	})
	require.NoError(t, reg.Reload(context.Background()))

	return New(reg, cfg, nil)
}

func TestResolveExactBinding(t *testing.T) {
	r := newTestResolver(t, config.Default())

	res := r.Resolve(context.Background(), "gh facebook/react")
	assert.Equal(t, OutcomeResolved, res.Outcome)
	assert.Equal(t, "https://github.com/facebook/react", res.URL)
}

func TestResolveBindingOnlyNoArgs(t *testing.T) {
	r := newTestResolver(t, config.Default())

	res := r.Resolve(context.Background(), "gh")
	assert.Equal(t, OutcomeResolved, res.Outcome)
	assert.Equal(t, "https://github.com", res.URL)
}

func TestResolvePreservesSpacesViaPathEncoding(t *testing.T) {
	r := newTestResolver(t, config.Default())

	res := r.Resolve(context.Background(), "gh hello world")
	assert.Equal(t, "https://github.com/hello%20world", res.URL)
}

func TestResolveEmptyQueryGoesToIndex(t *testing.T) {
	r := newTestResolver(t, config.Default())

	res := r.Resolve(context.Background(), "")
	assert.Equal(t, OutcomeIndex, res.Outcome)
}

func TestResolveUnknownBindingFallsBackToSearch(t *testing.T) {
	cfg := config.Default()
	cfg.DefaultSearch = "google"
	r := newTestResolver(t, cfg)

	res := r.Resolve(context.Background(), "unknowncmd foo bar")
	assert.Equal(t, OutcomeFallback, res.Outcome)
	assert.Equal(t, "https://www.google.com/search?q=unknowncmd+foo+bar", res.URL)
}

func TestResolveAliasExpandsOnce(t *testing.T) {
	cfg := config.Default()
	cfg.Aliases = map[string]string{"g": "gh"}
	r := newTestResolver(t, cfg)

	res := r.Resolve(context.Background(), "g facebook/react")
	assert.True(t, res.AliasExpanded)
	assert.Equal(t, "https://github.com/facebook/react", res.URL)
}

func TestResolveAliasDoesNotChainToAnotherAlias(t *testing.T) {
	cfg := config.Default()
	cfg.Aliases = map[string]string{
		"a": "b something",
		"b": "gh",
	}
	r := newTestResolver(t, cfg)

	// "a" expands to "b something" once; "b" is NOT re-expanded, so the
	// binding after expansion is "b", which has no plugin and falls back.
	res := r.Resolve(context.Background(), "a")
	assert.True(t, res.AliasExpanded)
	assert.Equal(t, OutcomeFallback, res.Outcome)
	assert.Equal(t, "b", res.Binding)
}

func TestResolveBindingIsCaseInsensitive(t *testing.T) {
	r := newTestResolver(t, config.Default())

	res := r.Resolve(context.Background(), "GH facebook/react")
	assert.Equal(t, OutcomeResolved, res.Outcome)
	assert.Equal(t, "https://github.com/facebook/react", res.URL)
}

func TestSplitFirstToken(t *testing.T) {
	token, rest := splitFirstToken("gh   facebook/react   issues")
	assert.Equal(t, "gh", token)
	assert.Equal(t, "facebook/react   issues", rest)
}

func TestIsAcceptableURL(t *testing.T) {
	assert.True(t, isAcceptableURL("https://github.com/facebook/react"))
	assert.True(t, isAcceptableURL("/reload"))
	assert.False(t, isAcceptableURL("not a url"))
	assert.False(t, isAcceptableURL(""))
}
