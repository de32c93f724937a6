// Package resolver implements the mapping from a raw query string to a
// destination URL.
package resolver

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/sidosera/lolabunny.app/internal/config"
	"github.com/sidosera/lolabunny.app/internal/events"
	"github.com/sidosera/lolabunny.app/internal/normalize"
	"github.com/sidosera/lolabunny.app/internal/plugin"
	"github.com/sidosera/lolabunny.app/internal/scripthost"
)

// Outcome classifies how a Resolve call was satisfied.
type Outcome string

const (
	OutcomeResolved Outcome = "resolved"
	OutcomeFallback Outcome = "fallback"
	OutcomeIndex    Outcome = "index"
)

// Result is the destination of one resolved query, plus enough context for
// the Event Sink to trace it.
type Result struct {
	URL           string
	Outcome       Outcome
	Binding       string
	AliasExpanded bool
}

// Resolver maps queries to URLs against a Registry snapshot and a
// Configuration snapshot. Both are read through an atomic pointer so an
// in-flight request observes a consistent pair even while a reload runs
// concurrently.
type Resolver struct {
	registry *plugin.Registry
	cfg      atomic.Pointer[config.Config]
	sink     events.Sink
}

// New creates a Resolver bound to registry, starting from cfg.
func New(registry *plugin.Registry, cfg config.Config, sink events.Sink) *Resolver {
	if sink == nil {
		sink = events.NilSink{}
	}
	r := &Resolver{registry: registry, sink: sink}
	r.cfg.Store(&cfg)
	return r
}

// SetConfig publishes a new Configuration snapshot for subsequent
// requests. In-flight requests keep using the snapshot they already read.
func (r *Resolver) SetConfig(cfg config.Config) {
	r.cfg.Store(&cfg)
}

// Resolve maps one raw query to a destination end to end: tokenize, fold
// case, expand at most one alias, look up the binding, invoke its plugin.
// It never returns an error; any internal failure degrades to the
// fallback outcome, since a well-formed request always gets a redirect.
func (r *Resolver) Resolve(ctx context.Context, rawQuery string) Result {
	cfg := r.cfg.Load()

	q := strings.TrimSpace(rawQuery)
	if q == "" {
		return Result{URL: "/", Outcome: OutcomeIndex}
	}

	token, _ := splitFirstToken(q)
	binding := normalize.Binding(token)

	aliasExpanded := false
	if expansion, ok := cfg.Aliases[binding]; ok {
		q = expandAlias(q, token, expansion)
		token, _ = splitFirstToken(q)
		binding = normalize.Binding(token)
		aliasExpanded = true
	}

	snap := r.registry.Snapshot()
	pl := snap.Resolve(binding)
	if pl == nil {
		fallback := cfg.SearchURL(q)
		return Result{URL: fallback, Outcome: OutcomeFallback, Binding: binding, AliasExpanded: aliasExpanded}
	}

	out, err := pl.Process(ctx, q)
	if err != nil {
		r.sink.Emit(events.ResolveError(binding, classifyError(err), err))
		fallback := cfg.SearchURL(q)
		return Result{URL: fallback, Outcome: OutcomeFallback, Binding: binding, AliasExpanded: aliasExpanded}
	}

	if !isAcceptableURL(out) {
		r.sink.Emit(events.ResolveError(binding, events.ResolveErrorBadOutput, nil))
		fallback := cfg.SearchURL(q)
		return Result{URL: fallback, Outcome: OutcomeFallback, Binding: binding, AliasExpanded: aliasExpanded}
	}

	return Result{URL: out, Outcome: OutcomeResolved, Binding: binding, AliasExpanded: aliasExpanded}
}

// splitFirstToken splits s at the first ASCII whitespace run, returning
// the token and the remainder with its own leading whitespace stripped.
func splitFirstToken(s string) (token, remainder string) {
	idx := strings.IndexAny(s, " \t\r\n")
	if idx < 0 {
		return s, ""
	}
	return s[:idx], strings.TrimLeft(s[idx:], " \t\r\n")
}

// expandAlias replaces token with its expansion, preserving the original
// tail verbatim (with a single separating space if the tail is non-empty).
// Expansion runs once: the caller recomputes binding from the result but
// never looks expansion up again, so an expansion that itself starts with
// an alias key is not re-expanded. This is what keeps alias chains finite.
func expandAlias(q, token, expansion string) string {
	tail := strings.TrimPrefix(q, token)
	tail = strings.TrimLeft(tail, " \t\r\n")
	if tail == "" {
		return expansion
	}
	return expansion + " " + tail
}

// isAcceptableURL accepts only an absolute URL (scheme + host) or a
// server-relative path starting with '/'.
func isAcceptableURL(s string) bool {
	if strings.HasPrefix(s, "/") {
		return true
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return u.IsAbs() && u.Host != ""
}

func classifyError(err error) events.ResolveErrorKind {
	switch {
	case err == nil:
		return events.ResolveErrorBadOutput
	case errors.Is(err, scripthost.ErrTimeout), errors.Is(err, plugin.ErrCheckoutTimeout):
		return events.ResolveErrorTimeout
	case errors.Is(err, scripthost.ErrBadReturn):
		return events.ResolveErrorBadOutput
	default:
		return events.ResolveErrorProcess
	}
}
