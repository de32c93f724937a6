package scripthost

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
)

func TestSandboxRemovesLoaders(t *testing.T) {
	st, err := NewState()
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	for _, fn := range []string{"dofile", "loadfile", "load", "loadstring"} {
		err := st.DoString(ctx, fn+`("x")`)
		assert.Error(t, err, "%s should not be callable", fn)
	}
}

func TestSandboxNoFilesystemOrProcessAccess(t *testing.T) {
	st, err := NewState()
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	assert.Error(t, st.DoString(ctx, `io.open("/etc/passwd")`))
	assert.Error(t, st.DoString(ctx, `os.execute("echo hi")`))
}

func TestSandboxRequireWhitelist(t *testing.T) {
	st, err := NewState()
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	assert.NoError(t, st.DoString(ctx, `local s = require("string")`))
	assert.Error(t, st.DoString(ctx, `require("io")`))
	assert.Error(t, st.DoString(ctx, `require("os")`))
	assert.Error(t, st.DoString(ctx, `require("debug")`))
}

func TestSandboxStringPatternMatchingAllowed(t *testing.T) {
	st, err := NewState()
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	require.NoError(t, st.DoString(ctx, `
		function extract(s)
			return string.match(s, "^(%a+)")
		end
	`))

	results, err := st.Call(ctx, "extract", lua.LString("hello123"))
	require.NoError(t, err)
	require.Len(t, results, 1)
	s, ok := ToGoString(results[0])
	require.True(t, ok)
	assert.Equal(t, "hello", s)
}
