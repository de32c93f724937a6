// Package scripthost wraps gopher-lua to give every plugin an isolated,
// single-posture sandbox.
package scripthost

import (
	"context"
	"fmt"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// DefaultTimeout is the wall-clock ceiling on a single info()/process() call
// when no configuration overrides it.
const DefaultTimeout = 200 * time.Millisecond

// State wraps one gopher-lua VM for exactly one plugin.
//
// gopher-lua's LState is not goroutine-safe: all operations on a State must
// be serialized. The mutex here protects against concurrent Go-side callers;
// Lua execution itself is inherently single-threaded per state.
type State struct {
	L *lua.LState

	mu      sync.Mutex
	timeout time.Duration
	sandbox *Sandbox
	closed  bool
}

// StateOption configures a State.
type StateOption func(*State)

// WithTimeout overrides the per-call wall-clock ceiling.
func WithTimeout(d time.Duration) StateOption {
	return func(s *State) { s.timeout = d }
}

// NewState creates a fresh sandboxed Lua state with the host API installed.
func NewState(opts ...StateOption) (*State, error) {
	s := &State{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(s)
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	s.L = L

	openSafeLibraries(L)
	s.sandbox = NewSandbox(L)
	s.sandbox.Install()
	installHostAPI(L)

	return s, nil
}

// openSafeLibraries opens only the standard libraries a command plugin
// could legitimately need: base (print, type, pairs...), table, string
// (including pattern matching), and math.
//
// io, os, debug, and package are never opened — there is no capability path
// to grant them later, unlike an editor-style plugin host.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// DoFile loads and executes a Lua source file, under the state's timeout.
func (s *State) DoFile(ctx context.Context, path string) error {
	return s.doWithDeadline(ctx, func() error {
		return s.L.DoFile(path)
	})
}

// DoString loads and executes Lua source from a string, under the state's
// timeout. Used by tests and by single-line plugin fixtures.
func (s *State) DoString(ctx context.Context, code string) error {
	return s.doWithDeadline(ctx, func() error {
		return s.L.DoString(code)
	})
}

func (s *State) doWithDeadline(ctx context.Context, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	s.L.SetContext(ctx)
	defer s.L.RemoveContext()

	err := s.doWithRecovery(fn)
	if ctx.Err() != nil {
		return ErrTimeout
	}
	return err
}

func (s *State) doWithRecovery(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

// Call invokes a global Lua function by name under the state's timeout.
// Returns an empty (non-nil) slice if the function returns no values.
func (s *State) Call(ctx context.Context, fn string, args ...lua.LValue) ([]lua.LValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStateClosed
	}

	fnVal := s.L.GetGlobal(fn)
	if fnVal == lua.LNil {
		return nil, fmt.Errorf("function %q not found", fn)
	}
	if fnVal.Type() != lua.LTFunction {
		return nil, fmt.Errorf("%q is not a function (got %s)", fn, fnVal.Type())
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	s.L.SetContext(ctx)
	defer s.L.RemoveContext()

	stackTop := s.L.GetTop()
	s.L.Push(fnVal)
	for _, arg := range args {
		s.L.Push(arg)
	}

	var callErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				callErr = fmt.Errorf("lua panic: %v", r)
			}
		}()
		callErr = s.L.PCall(len(args), lua.MultRet, nil)
	}()

	if ctx.Err() != nil {
		return nil, ErrTimeout
	}
	if callErr != nil {
		return nil, callErr
	}

	nRet := s.L.GetTop() - stackTop
	if nRet <= 0 {
		return []lua.LValue{}, nil
	}
	results := make([]lua.LValue, nRet)
	for i := 0; i < nRet; i++ {
		results[i] = s.L.Get(stackTop + i + 1)
	}
	s.L.Pop(nRet)

	return results, nil
}

// GetGlobal returns a global variable's value, or LNil if the state is closed.
func (s *State) GetGlobal(name string) lua.LValue {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return lua.LNil
	}
	return s.L.GetGlobal(name)
}

// HasFunction reports whether name is bound to a callable global.
func (s *State) HasFunction(name string) bool {
	v := s.GetGlobal(name)
	return v != nil && v.Type() == lua.LTFunction
}

// Close releases the underlying Lua VM. Idempotent.
func (s *State) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.L.Close()
	s.closed = true
	return nil
}

// IsClosed reports whether Close has been called.
func (s *State) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
