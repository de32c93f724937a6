package scripthost

import (
	"context"
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// PluginMetadata is the record a plugin's info() must return: a non-empty
// set of bindings, a human description, and an example invocation.
type PluginMetadata struct {
	Bindings    []string
	Description string
	Example     string
}

// Load reads path into a fresh sandboxed state and verifies it defines both
// info and process as callable globals. The caller owns the returned
// State and must Close it.
func Load(ctx context.Context, path string, opts ...StateOption) (*State, error) {
	st, err := NewState(opts...)
	if err != nil {
		return nil, err
	}

	if err := st.DoFile(ctx, path); err != nil {
		st.Close()
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	if !st.HasFunction("info") || !st.HasFunction("process") {
		st.Close()
		return nil, fmt.Errorf("load %s: %w", path, ErrMissingEntryPoint)
	}

	return st, nil
}

// Info invokes the plugin's info() and decodes its return value into a
// PluginMetadata. Any missing or mistyped field is reported as an error.
func Info(ctx context.Context, st *State) (PluginMetadata, error) {
	results, err := st.Call(ctx, "info")
	if err != nil {
		return PluginMetadata{}, err
	}
	if len(results) == 0 {
		return PluginMetadata{}, fmt.Errorf("info(): %w", ErrBadReturn)
	}

	tbl, ok := results[0].(*lua.LTable)
	if !ok {
		return PluginMetadata{}, fmt.Errorf("info(): expected a table, got %s: %w", results[0].Type(), ErrBadReturn)
	}

	br := NewBridge(st.L)

	bindings, ok := br.GetTableStringSlice(tbl, "bindings")
	if !ok || len(bindings) == 0 {
		return PluginMetadata{}, fmt.Errorf("info(): %w: bindings must be a non-empty array of strings", ErrBadReturn)
	}
	for _, b := range bindings {
		if b == "" {
			return PluginMetadata{}, fmt.Errorf("info(): %w: bindings must not be empty strings", ErrBadReturn)
		}
	}

	description, ok := br.GetTableString(tbl, "description")
	if !ok {
		return PluginMetadata{}, fmt.Errorf("info(): %w: description must be a string", ErrBadReturn)
	}
	example, ok := br.GetTableString(tbl, "example")
	if !ok {
		return PluginMetadata{}, fmt.Errorf("info(): %w: example must be a string", ErrBadReturn)
	}

	return PluginMetadata{
		Bindings:    bindings,
		Description: description,
		Example:     example,
	}, nil
}

// Process invokes the plugin's process(query) and requires the result to be
// a single string.
func Process(ctx context.Context, st *State, query string) (string, error) {
	results, err := st.Call(ctx, "process", lua.LString(query))
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "", fmt.Errorf("process(): %w", ErrBadReturn)
	}

	out, ok := ToGoString(results[0])
	if !ok {
		return "", fmt.Errorf("process(): expected a string, got %s: %w", results[0].Type(), ErrBadReturn)
	}
	return out, nil
}
