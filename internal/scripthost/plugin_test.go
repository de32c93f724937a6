package scripthost

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePlugin(t *testing.T, source string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "plugin.lua")
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	return path
}

const validPlugin = `
function info()
	return {
		bindings = {"gh", "github"},
		description = "Jump to a GitHub repository",
		example = "gh facebook/react",
	}
end

function process(query)
	local args = get_args(query, "gh")
	if args == "" then
		args = get_args(query, "github")
	end
	return "https://github.com/" .. url_encode_path(args)
end
`

func TestLoadInfoProcess(t *testing.T) {
	path := writePlugin(t, validPlugin)
	ctx := context.Background()

	st, err := Load(ctx, path)
	require.NoError(t, err)
	defer st.Close()

	meta, err := Info(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, []string{"gh", "github"}, meta.Bindings)
	assert.Equal(t, "Jump to a GitHub repository", meta.Description)
	assert.Equal(t, "gh facebook/react", meta.Example)

	url, err := Process(ctx, st, "gh facebook/react")
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/facebook/react", url)
}

func TestLoadRejectsMissingEntryPoint(t *testing.T) {
	path := writePlugin(t, `function info() return {bindings = {"x"}} end`)

	_, err := Load(context.Background(), path)
	assert.ErrorIs(t, err, ErrMissingEntryPoint)
}

func TestLoadRejectsSyntaxError(t *testing.T) {
	path := writePlugin(t, `function info( return end`)

	_, err := Load(context.Background(), path)
	assert.Error(t, err)
}

func TestInfoRejectsEmptyBindings(t *testing.T) {
	path := writePlugin(t, `
		function info()
			return {bindings = {}, description = "", example = ""}
		end
		function process(query) return "" end
	`)

	st, err := Load(context.Background(), path)
	require.NoError(t, err)
	defer st.Close()

	_, err = Info(context.Background(), st)
	assert.ErrorIs(t, err, ErrBadReturn)
}

func TestProcessRejectsNonStringReturn(t *testing.T) {
	path := writePlugin(t, `
		function info()
			return {bindings = {"x"}, description = "", example = ""}
		end
		function process(query) return 42 end
	`)

	st, err := Load(context.Background(), path)
	require.NoError(t, err)
	defer st.Close()

	_, err = Process(context.Background(), st, "x")
	assert.ErrorIs(t, err, ErrBadReturn)
}
