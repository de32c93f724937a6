package scripthost

import (
	lua "github.com/yuin/gopher-lua"
)

// Bridge reads the Lua values a plugin's info() and process() return into
// the small set of Go shapes the host needs: strings and string slices,
// looked up by key in a returned table. It has no Go-to-Lua conversions.
type Bridge struct {
	L *lua.LState
}

// NewBridge creates a Bridge bound to L.
func NewBridge(L *lua.LState) *Bridge {
	return &Bridge{L: L}
}

// GetTableString reads a string field from t, if present.
func (b *Bridge) GetTableString(t *lua.LTable, key string) (string, bool) {
	v := t.RawGetString(key)
	if s, ok := v.(lua.LString); ok {
		return string(s), true
	}
	return "", false
}

// GetTableStringSlice reads a 1-indexed array-of-strings field from t.
func (b *Bridge) GetTableStringSlice(t *lua.LTable, key string) ([]string, bool) {
	v := t.RawGetString(key)
	arr, ok := v.(*lua.LTable)
	if !ok {
		return nil, false
	}

	n := arr.Len()
	out := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		s, ok := arr.RawGetInt(i).(lua.LString)
		if !ok {
			return nil, false
		}
		out = append(out, string(s))
	}
	return out, true
}

// ToGoString coerces a returned Lua value to a Go string. Returns ok=false
// for anything other than a Lua string, including nil.
func ToGoString(v lua.LValue) (string, bool) {
	s, ok := v.(lua.LString)
	if !ok {
		return "", false
	}
	return string(s), true
}
