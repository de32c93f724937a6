// Package app wires the Script Host, Plugin Registry, Resolver, Event Sink,
// and HTTP Frontend together into one running core, and maps startup and
// runtime failures onto fixed process exit codes.
package app

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/sidosera/lolabunny.app/internal/config"
	"github.com/sidosera/lolabunny.app/internal/events"
	"github.com/sidosera/lolabunny.app/internal/httpserver"
	"github.com/sidosera/lolabunny.app/internal/plugin"
	"github.com/sidosera/lolabunny.app/internal/resolver"
)

// Options configures one run of the core.
type Options struct {
	// ConfigPath overrides the default configuration file location.
	// Empty means use the XDG default (§6 "Filesystem layout").
	ConfigPath string

	// Port overrides the configured server.port, if non-zero. Used by the
	// cgo ABI entry point, which receives the port as a parameter rather
	// than through the config file.
	Port uint16

	// ExtraPluginDirs are appended after the config file's plugin_dirs,
	// mainly for tests that want an isolated plugin directory.
	ExtraPluginDirs []string

	// LogLevel is one of logrus's level names; empty defaults to "info".
	LogLevel string

	// JSONEvents, when true, adds a JSONSink writing to stdout alongside
	// the LogSink, producing a structured event stream for consumption by
	// another process.
	JSONEvents bool

	// PrettyJSON colorizes/indents the JSON event stream; ignored unless
	// JSONEvents is set.
	PrettyJSON bool

	// MetricsEnabled exposes GET /metrics via promhttp.
	MetricsEnabled bool
}

// Application is the fully wired core, ready to serve.
type Application struct {
	opts Options

	log     *logrus.Logger
	cfg     config.Config
	sink    events.Sink
	history *events.History

	registry *plugin.Registry
	resolver *resolver.Resolver
	server   *httpserver.Server
}

// New loads configuration and wires every component, without starting the
// listener. Returns a *StartupError on any failure so the caller can map it
// to a process exit code.
func New(opts Options) (*Application, error) {
	a := &Application{opts: opts}

	b := &bootstrapper{app: a, opts: opts}
	if err := b.bootstrap(); err != nil {
		return nil, err
	}
	return a, nil
}

// Shutdown releases every pooled Lua execution context. Safe to call more
// than once.
func (a *Application) Shutdown() {
	if a.registry != nil {
		a.registry.Close()
	}
}

func defaultConfigPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "bunnylol", "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "bunnylol", "config.toml")
}

func defaultUserPluginDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "bunnylol", "commands")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "bunnylol", "commands")
}

// systemPluginDir returns the install-prefix plugin directory (§6), derived
// from the running executable's location so a relocated install still finds
// its bundled commands.
func systemPluginDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "/usr/share/bunnylol/commands"
	}
	prefix := filepath.Dir(filepath.Dir(exe)) // <prefix>/bin/bunnylold -> <prefix>
	return filepath.Join(prefix, "share", "bunnylol", "commands")
}
