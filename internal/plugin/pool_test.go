package plugin

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidosera/lolabunny.app/internal/scripthost"
)

func writeCounterPlugin(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "counter.lua")
	require.NoError(t, os.WriteFile(path, []byte(`
		n = 0
		function info() return {bindings = {"ctr"}, description = "", example = ""} end
		function process(q)
			n = n + 1
			return tostring(n)
		end
	`), 0o644))
	return path
}

func TestPoolReusesReleasedContext(t *testing.T) {
	path := writeCounterPlugin(t)

	st, err := scripthost.Load(context.Background(), path)
	require.NoError(t, err)

	p := newPool(path, 1, 50*time.Millisecond)
	p.seed(st)

	ctx := context.Background()
	leased, release, err := p.checkout(ctx)
	require.NoError(t, err)
	release()

	leased2, release2, err := p.checkout(ctx)
	require.NoError(t, err)
	defer release2()

	assert.Same(t, leased, leased2)
}

func TestPoolGrowsUpToCapThenTimesOut(t *testing.T) {
	path := writeCounterPlugin(t)

	st, err := scripthost.Load(context.Background(), path)
	require.NoError(t, err)

	p := newPool(path, 2, 30*time.Millisecond)
	p.seed(st)

	ctx := context.Background()
	_, release1, err := p.checkout(ctx)
	require.NoError(t, err)
	defer release1()

	_, release2, err := p.checkout(ctx)
	require.NoError(t, err)
	defer release2()

	_, _, err = p.checkout(ctx)
	assert.ErrorIs(t, err, ErrCheckoutTimeout)
}

func TestPoolConcurrentCheckoutsAreSerializedPerContext(t *testing.T) {
	path := writeCounterPlugin(t)
	st, err := scripthost.Load(context.Background(), path)
	require.NoError(t, err)

	p := newPool(path, 3, 200*time.Millisecond)
	p.seed(st)

	var wg sync.WaitGroup
	results := make(chan string, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx := context.Background()
			leased, release, err := p.checkout(ctx)
			if err != nil {
				return
			}
			defer release()
			out, err := scripthost.Process(ctx, leased, "ctr")
			if err == nil {
				results <- out
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[string]bool)
	for r := range results {
		assert.False(t, seen[r], "duplicate counter value %s indicates a lost update", r)
		seen[r] = true
	}
}
