package scripthost

import (
	lua "github.com/yuin/gopher-lua"
)

// Sandbox locks a Lua state into the one posture every plugin runs under.
// There is no grant/revoke mechanism: io, os, debug, and dynamic module
// loading are never reachable, regardless of configuration.
type Sandbox struct {
	L *lua.LState
}

// NewSandbox prepares a sandbox for L. Call Install before loading any
// plugin source.
func NewSandbox(L *lua.LState) *Sandbox {
	return &Sandbox{L: L}
}

// Install removes the functions that could otherwise be used to escape the
// sandbox and replaces require with a whitelist-only version.
func (s *Sandbox) Install() {
	dangerous := []string{"dofile", "loadfile", "load", "loadstring"}
	for _, name := range dangerous {
		s.L.SetGlobal(name, lua.LNil)
	}
	s.installSafeRequire()
}

// installSafeRequire replaces require with a version that can only resolve
// the standard libraries this host opens. There is no package.path/cpath to
// clear because OpenBase never sets them, and no filesystem module loading
// is reachable to begin with.
func (s *Sandbox) installSafeRequire() {
	safeModules := map[string]bool{
		"string": true,
		"table":  true,
		"math":   true,
	}

	original := s.L.GetGlobal("require")

	s.L.SetGlobal("require", s.L.NewFunction(func(L *lua.LState) int {
		modName := L.CheckString(1)

		if !safeModules[modName] {
			L.RaiseError("module %q is not available", modName)
			return 0
		}

		L.Push(original)
		L.Push(lua.LString(modName))
		L.Call(1, 1)
		return 1
	}))
}
