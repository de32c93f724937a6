package app

import (
	"context"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePlugin(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestServeEndToEnd(t *testing.T) {
	dir := t.TempDir()
	writePlugin(t, dir, "gh.lua", `
		function info() return {bindings = {"gh"}, description = "GitHub", example = "gh facebook/react"} end
		function process(q)
			local args = get_args(q, "gh")
			if args == "" then return "https://github.com" end
			return "https://github.com/" .. url_encode_path(args)
		end
	`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- Serve(ctx, Options{
			Port:            18085,
			ExtraPluginDirs: []string{dir},
			LogLevel:        "error",
		})
	}()

	waitForListener(t, "127.0.0.1:18085")

	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := client.Get("http://127.0.0.1:18085/?cmd=gh+facebook%2Freact")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "https://github.com/facebook/react", resp.Header.Get("Location"))

	healthResp, err := client.Get("http://127.0.0.1:18085/health")
	require.NoError(t, err)
	defer healthResp.Body.Close()
	assert.Equal(t, http.StatusOK, healthResp.StatusCode)

	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not shut down in time")
	}
}

func waitForListener(t *testing.T, addr string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 50*time.Millisecond)
		if err == nil {
			conn.Close()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("listener at %s never came up", addr)
}
