// Package main builds a stable C ABI entry point: a single exported
// `serve(port)` function, for embedding the core behind a thin external
// shell rather than running it as cmd/bunnylold's standalone binary.
// Build with `go build -buildmode=c-shared`.
package main

import "C"

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sidosera/lolabunny.app/internal/app"
)

//export serve
func serve(port C.uint16_t) C.int32_t {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)
	go func() {
		<-signals
		cancel()
	}()

	err := app.Serve(ctx, app.Options{Port: uint16(port)})
	return C.int32_t(app.ExitCode(err))
}

// main is required by the c-shared build mode but is never invoked; the
// shared library's only entry point is the exported serve function above.
func main() {}
