package scripthost

import (
	"net/url"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// installHostAPI registers the three functions a plugin's script actually
// sees: get_args, url_encode, url_encode_path. These are the entire surface
// between a plugin and the outside world; there is nothing else to install.
func installHostAPI(L *lua.LState) {
	L.SetGlobal("get_args", L.NewFunction(luaGetArgs))
	L.SetGlobal("url_encode", L.NewFunction(luaURLEncode))
	L.SetGlobal("url_encode_path", L.NewFunction(luaURLEncodePath))
}

// luaGetArgs implements get_args(full_args, binding): strip full_args,
// case-insensitively match binding as a whitespace-delimited prefix, and
// return whatever follows the first run of whitespace after it.
func luaGetArgs(L *lua.LState) int {
	fullArgs := L.CheckString(1)
	binding := L.CheckString(2)

	L.Push(lua.LString(GetArgs(fullArgs, binding)))
	return 1
}

// GetArgs is the Go implementation behind get_args, exported so Go code
// and tests can exercise the exact same logic a plugin sees.
func GetArgs(fullArgs, binding string) string {
	trimmed := strings.TrimLeft(fullArgs, " \t\r\n")

	if len(trimmed) < len(binding) || !strings.EqualFold(trimmed[:len(binding)], binding) {
		return ""
	}

	rest := trimmed[len(binding):]
	if rest == "" {
		return ""
	}

	first := rest[0]
	if first != ' ' && first != '\t' && first != '\r' && first != '\n' {
		// binding is only a prefix of a longer token, not the whole token
		return ""
	}

	return strings.TrimLeft(rest, " \t\r\n")
}

func luaURLEncode(L *lua.LState) int {
	s := L.CheckString(1)
	L.Push(lua.LString(URLEncode(s)))
	return 1
}

// URLEncode percent-encodes s per application/x-www-form-urlencoded.
func URLEncode(s string) string {
	return url.QueryEscape(s)
}

// luaURLEncodePath implements url_encode_path: RFC 3986 path-segment
// encoding that leaves '/' untouched and encodes spaces as %20, not '+'.
func luaURLEncodePath(L *lua.LState) int {
	s := L.CheckString(1)
	L.Push(lua.LString(EncodePath(s)))
	return 1
}

// EncodePath percent-encodes s as a sequence of path segments, preserving
// '/' as a separator. url.QueryEscape encodes '/' and uses '+' for spaces,
// neither of which matches RFC 3986 path-segment encoding, so segments are
// escaped individually with PathEscape and rejoined.
func EncodePath(s string) string {
	segments := strings.Split(s, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}
