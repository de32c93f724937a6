// Package scripthost embeds the Lua interpreter that bunnylol plugins run in.
//
// Every plugin gets its own gopher-lua state, opened with only the base,
// table, string, and math standard libraries. There is no capability
// escalation path: filesystem, network, process, and environment access are
// never reachable from a plugin, regardless of configuration. That is a
// deliberate difference from a general-purpose plugin host — a bunnylol
// command is a pure function from a query string to a URL string, and the
// host API reflects exactly that.
//
// # State
//
//	st, err := scripthost.NewState(scripthost.WithTimeout(200 * time.Millisecond))
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
//
//	if err := st.DoFile(ctx, "github.lua"); err != nil {
//	    return err
//	}
//
// # Host API
//
// Three functions are installed as Lua globals before any plugin source is
// loaded: get_args, url_encode, url_encode_path. Their semantics are defined
// in hostapi.go.
package scripthost
