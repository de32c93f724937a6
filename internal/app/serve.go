package app

import (
	"context"
	"errors"
	"net"
)

// Serve builds an Application from opts and blocks until ctx is cancelled
// or the listener fails. It is the single code path both cmd/bunnylold and
// the cgo ABI entry point call.
func Serve(ctx context.Context, opts Options) error {
	a, err := New(opts)
	if err != nil {
		return err
	}
	defer a.Shutdown()

	if err := a.server.ListenAndServe(ctx); err != nil {
		var netErr *net.OpError
		if errors.As(err, &netErr) {
			return wrapBindErr(err)
		}
		return wrapInternalErr(err)
	}
	return nil
}
