package plugin

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/sidosera/lolabunny.app/internal/config"
	"github.com/sidosera/lolabunny.app/internal/events"
	"github.com/sidosera/lolabunny.app/internal/normalize"
)

// RegistrySnapshot is an immutable publication of the current plugin set
// and its binding index. Once built, nothing mutates a snapshot in place.
type RegistrySnapshot struct {
	plugins []*Plugin
	index   map[string][]*Plugin
}

// Resolve returns the active plugin for binding (already lowercased by the
// resolver) or nil if nothing claims it.
func (s *RegistrySnapshot) Resolve(binding string) *Plugin {
	claimants := s.index[binding]
	if len(claimants) == 0 {
		return nil
	}
	return claimants[0]
}

// List returns every active plugin, sorted by first declared binding. A
// plugin that is shadowed on every one of its bindings is not listed.
func (s *RegistrySnapshot) List() []*Plugin {
	var active []*Plugin
	for _, pl := range s.plugins {
		for _, b := range pl.Bindings {
			if s.index[normalize.Binding(b)][0] == pl {
				active = append(active, pl)
				break
			}
		}
	}
	return active
}

// Registry owns the current RegistrySnapshot and rebuilds it on demand.
// The snapshot pointer is the only piece of mutable shared state a reload
// touches; every request reads it with a single atomic load.
type Registry struct {
	userDirs        []string
	extraDirs       []string
	systemDirs      []string
	poolSize        int
	pluginTimeout   time.Duration
	checkoutTimeout time.Duration
	sink            events.Sink

	current atomic.Pointer[RegistrySnapshot]
}

// Options configures a Registry's discovery roots and execution bounds.
type Options struct {
	UserDirs        []string
	ExtraDirs       []string
	SystemDirs      []string
	PoolSize        int
	PluginTimeout   time.Duration
	CheckoutTimeout time.Duration
	Sink            events.Sink
}

// OptionsFromConfig derives registry Options from a loaded Config plus the
// resolved user and system plugin directories.
func OptionsFromConfig(cfg config.Config, userDirs, systemDirs []string, sink events.Sink) Options {
	return Options{
		UserDirs:        userDirs,
		ExtraDirs:       cfg.PluginDirs,
		SystemDirs:      systemDirs,
		PoolSize:        config.DefaultContextPoolSize,
		PluginTimeout:   cfg.PluginTimeout(),
		CheckoutTimeout: config.DefaultContextCheckoutTimeout,
		Sink:            sink,
	}
}

// NewRegistry creates a Registry with no plugins loaded yet. Call Reload
// to perform the first build.
func NewRegistry(opts Options) *Registry {
	sink := opts.Sink
	if sink == nil {
		sink = events.NilSink{}
	}
	r := &Registry{
		userDirs:        opts.UserDirs,
		extraDirs:       opts.ExtraDirs,
		systemDirs:      opts.SystemDirs,
		poolSize:        opts.PoolSize,
		pluginTimeout:   opts.PluginTimeout,
		checkoutTimeout: opts.CheckoutTimeout,
		sink:            sink,
	}
	r.current.Store(&RegistrySnapshot{index: map[string][]*Plugin{}})
	return r
}

// Snapshot returns the currently published RegistrySnapshot.
func (r *Registry) Snapshot() *RegistrySnapshot {
	return r.current.Load()
}

// Reload performs a complete rebuild and, on success, atomically publishes
// the new snapshot. If it ends up with zero loaded plugins while the
// previous snapshot held at least one — whether every candidate failed to
// load or the plugin directories themselves vanished — the previous
// snapshot is left untouched and Reload returns an error instead of
// publishing an empty one.
func (r *Registry) Reload(ctx context.Context) error {
	candidates := discover(r.orderedDirs())

	var plugins []*Plugin
	for _, path := range candidates {
		pl, err := loadPlugin(ctx, path, r.poolSize, r.pluginTimeout, r.checkoutTimeout)
		if err != nil {
			r.sink.Emit(events.PluginLoadError(path, err))
			continue
		}
		r.sink.Emit(events.PluginLoaded(path, pl.Bindings))
		plugins = append(plugins, pl)
	}

	if len(plugins) == 0 {
		current := r.current.Load()
		if current != nil && len(current.plugins) > 0 {
			if len(candidates) == 0 {
				return fmt.Errorf("plugin: no candidates found in any configured directory")
			}
			return fmt.Errorf("plugin: every one of %d candidates failed to load", len(candidates))
		}
	}

	snapshot := r.buildSnapshot(plugins)

	previous := r.current.Swap(snapshot)
	if previous != nil {
		// A true refcount would need every checkout to pin its snapshot. A
		// fixed grace period approximates it: any request that started against
		// the previous snapshot holds a plugin pointer directly, not the
		// snapshot, so it keeps running; this delay only protects an
		// in-flight checkout from racing a pool close.
		go func() {
			time.Sleep(r.checkoutTimeout * 4)
			closeSnapshot(previous)
		}()
	}
	return nil
}

func (r *Registry) orderedDirs() []string {
	dirs := make([]string, 0, len(r.userDirs)+len(r.extraDirs)+len(r.systemDirs))
	dirs = append(dirs, r.userDirs...)
	dirs = append(dirs, r.extraDirs...)
	dirs = append(dirs, r.systemDirs...)
	return dirs
}

// buildSnapshot constructs the binding index from plugins. For any binding
// claimed by more than one plugin, claimants are ordered lexicographically
// by source path regardless of discovery order, so the tie-break is a pure
// function of the paths themselves.
func (r *Registry) buildSnapshot(plugins []*Plugin) *RegistrySnapshot {
	index := make(map[string][]*Plugin)
	for _, pl := range plugins {
		for _, binding := range pl.Bindings {
			key := normalize.Binding(binding)
			index[key] = append(index[key], pl)
		}
	}

	for binding, claimants := range index {
		sort.Slice(claimants, func(i, j int) bool {
			return claimants[i].SourcePath < claimants[j].SourcePath
		})
		index[binding] = claimants
		if len(claimants) > 1 {
			active := claimants[0]
			for _, shadowed := range claimants[1:] {
				r.sink.Emit(events.PluginShadowed(binding, active.SourcePath, shadowed.SourcePath))
			}
		}
	}

	sorted := make([]*Plugin, len(plugins))
	copy(sorted, plugins)
	sort.Slice(sorted, func(i, j int) bool {
		return firstBinding(sorted[i]) < firstBinding(sorted[j])
	})

	return &RegistrySnapshot{plugins: sorted, index: index}
}

func firstBinding(p *Plugin) string {
	if len(p.Bindings) == 0 {
		return ""
	}
	return normalize.Binding(p.Bindings[0])
}

// Close releases every pooled execution context held by the active
// snapshot. Intended for process shutdown, not for use between reloads.
func (r *Registry) Close() {
	closeSnapshot(r.current.Load())
}

func closeSnapshot(s *RegistrySnapshot) {
	for _, pl := range s.plugins {
		pl.Close()
	}
}
