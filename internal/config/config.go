// Package config loads and holds the core's configuration file.
//
// A Config is immutable once returned by Load: nothing in the rest of the
// core ever mutates one in place. Loading again constructs a brand new
// Config, which a caller publishes to readers with resolver.Resolver's
// SetConfig. The /reload route rebuilds only the plugin registry; it does
// not re-read the configuration file.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

const (
	// DefaultPort is the loopback TCP port the HTTP Frontend binds when no
	// server.port key is present.
	DefaultPort = 8085

	// DefaultAddress is the only address the frontend is allowed to bind to
	// unless overridden with another loopback address.
	DefaultAddress = "127.0.0.1"

	// DefaultSearch names the fallback search engine used when a query's
	// binding has no match and no more specific fallback is configured.
	DefaultSearch = "google"

	// DefaultPluginTimeout bounds a single info()/process() invocation.
	DefaultPluginTimeout = 200 * time.Millisecond

	// DefaultContextCheckoutTimeout bounds how long a request waits for a
	// free pooled execution context before falling back.
	DefaultContextCheckoutTimeout = 100 * time.Millisecond

	// DefaultContextPoolSize is the cap on pooled execution contexts per
	// plugin.
	DefaultContextPoolSize = 4

	// DefaultHistoryMaxEntries bounds the in-memory request history ring
	// buffer.
	DefaultHistoryMaxEntries = 1000
)

// SearchEngines maps each recognized default_search value to its query URL
// pattern.
var SearchEngines = map[string]string{
	"google": "https://www.google.com/search?q=%s",
	"ddg":    "https://duckduckgo.com/?q=%s",
	"bing":   "https://www.bing.com/search?q=%s",
}

// ServerConfig controls the loopback HTTP listener.
type ServerConfig struct {
	Port       int    `toml:"port"`
	Address    string `toml:"address"`
	DisplayURL string `toml:"display_url"`
}

// HistoryConfig controls the in-memory request history ring buffer.
type HistoryConfig struct {
	Enabled    bool `toml:"enabled"`
	MaxEntries int  `toml:"max_entries"`
}

// Config is the fully-resolved, defaulted configuration for one run of the
// core.
type Config struct {
	DefaultSearch   string            `toml:"default_search"`
	Server          ServerConfig      `toml:"server"`
	PluginDirs      []string          `toml:"plugin_dirs"`
	PluginTimeoutMs int               `toml:"plugin_timeout_ms"`
	Aliases         map[string]string `toml:"aliases"`
	History         HistoryConfig     `toml:"history"`

	// SourcePath records where this Config was loaded from, empty for the
	// built-in defaults. Used only for diagnostics.
	SourcePath string `toml:"-"`
}

// Default returns the configuration the core runs with when no file is
// present on disk.
func Default() Config {
	return Config{
		DefaultSearch: DefaultSearch,
		Server: ServerConfig{
			Port:    DefaultPort,
			Address: DefaultAddress,
		},
		PluginDirs:      nil,
		PluginTimeoutMs: int(DefaultPluginTimeout / time.Millisecond),
		Aliases:         map[string]string{},
		History: HistoryConfig{
			Enabled:    true,
			MaxEntries: DefaultHistoryMaxEntries,
		},
	}
}

// Load reads and parses the TOML file at path, defaulting any key it does
// not set. Unknown keys are returned as warnings rather than errors so a
// newer config file loaded by an older binary doesn't fail to start.
func Load(path string) (Config, []string, error) {
	cfg := Default()

	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, nil, errors.Wrapf(err, "parse config %s", path)
	}
	cfg.SourcePath = path

	if err := cfg.validate(); err != nil {
		return Config{}, nil, errors.Wrapf(err, "validate config %s", path)
	}

	var warnings []string
	for _, key := range meta.Undecoded() {
		warnings = append(warnings, fmt.Sprintf("unknown configuration key %q", key.String()))
	}

	return cfg, warnings, nil
}

func (c Config) validate() error {
	if c.Server.Address != DefaultAddress && c.Server.Address != "localhost" && c.Server.Address != "::1" {
		return fmt.Errorf("server.address must be a loopback address, got %q", c.Server.Address)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if _, ok := SearchEngines[c.DefaultSearch]; !ok {
		return fmt.Errorf("unrecognized default_search %q", c.DefaultSearch)
	}
	return nil
}

// PluginTimeout is PluginTimeoutMs as a time.Duration.
func (c Config) PluginTimeout() time.Duration {
	if c.PluginTimeoutMs <= 0 {
		return DefaultPluginTimeout
	}
	return time.Duration(c.PluginTimeoutMs) * time.Millisecond
}

// SearchURL builds the fallback destination for query, URL-encoding it
// into the configured default_search engine's query parameter.
func (c Config) SearchURL(query string) string {
	pattern, ok := SearchEngines[c.DefaultSearch]
	if !ok {
		pattern = SearchEngines[DefaultSearch]
	}
	return fmt.Sprintf(pattern, url.QueryEscape(query))
}

// DisplayURL infers a scheme for the bindings index page's subtitle when
// Server.DisplayURL is unset. Bare loopback hosts infer http://; anything
// else is assumed to sit behind TLS termination and infers https://.
func (c Config) DisplayURL() string {
	if c.Server.DisplayURL != "" {
		return c.Server.DisplayURL
	}

	host := c.Server.Address
	scheme := "https://"
	if host == DefaultAddress || host == "localhost" || host == "::1" || strings.HasPrefix(host, "127.") {
		scheme = "http://"
	}
	return fmt.Sprintf("%s%s:%d", scheme, host, c.Server.Port)
}
