// Package plugin discovers, loads, and indexes bunnylol command plugins,
// and serves as the pooled execution front for invoking them.
package plugin

import (
	"context"
	"time"

	"github.com/sidosera/lolabunny.app/internal/scripthost"
)

// Plugin is an immutable value produced by loading one script file: its
// source path, declared metadata, and a pool of execution contexts ready
// to run process().
type Plugin struct {
	SourcePath  string
	Bindings    []string
	Description string
	Example     string

	pool *pool
}

// Process runs process(query) against a pooled execution context, leasing
// one for the duration of the call and returning it immediately after.
func (p *Plugin) Process(ctx context.Context, query string) (string, error) {
	st, release, err := p.pool.checkout(ctx)
	if err != nil {
		return "", err
	}
	defer release()

	return scripthost.Process(ctx, st, query)
}

// Close releases every pooled execution context this plugin holds. Called
// once the snapshot containing it has been fully superseded.
func (p *Plugin) Close() {
	p.pool.close()
}

// loadPlugin runs the Script Host load/info contract for one candidate
// file and wraps the result (still-warm execution context included) in a
// Plugin ready to be pooled.
func loadPlugin(ctx context.Context, sourcePath string, poolSize int, timeout, checkoutTimeout time.Duration) (*Plugin, error) {
	opts := []scripthost.StateOption{scripthost.WithTimeout(timeout)}

	st, err := scripthost.Load(ctx, sourcePath, opts...)
	if err != nil {
		return nil, err
	}

	meta, err := scripthost.Info(ctx, st)
	if err != nil {
		st.Close()
		return nil, err
	}

	pl := &Plugin{
		SourcePath:  sourcePath,
		Bindings:    meta.Bindings,
		Description: meta.Description,
		Example:     meta.Example,
		pool:        newPool(sourcePath, poolSize, checkoutTimeout, opts...),
	}
	pl.pool.seed(st)

	return pl, nil
}
