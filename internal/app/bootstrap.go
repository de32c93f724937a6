package app

import (
	"context"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/sidosera/lolabunny.app/internal/bundle"
	"github.com/sidosera/lolabunny.app/internal/config"
	"github.com/sidosera/lolabunny.app/internal/events"
	"github.com/sidosera/lolabunny.app/internal/httpserver"
	"github.com/sidosera/lolabunny.app/internal/plugin"
	"github.com/sidosera/lolabunny.app/internal/resolver"
)

// bootstrapper initializes an Application's components in dependency order.
// Nothing it sets up before the HTTP listener opens an OS resource that
// could leak on a later failure, so there is no cleanup path to run.
type bootstrapper struct {
	app  *Application
	opts Options
}

func (b *bootstrapper) bootstrap() error {
	if err := b.initLogging(); err != nil {
		return err
	}
	if err := b.initConfig(); err != nil {
		return err
	}
	if err := b.initEvents(); err != nil {
		return err
	}
	if err := b.initRegistry(); err != nil {
		return err
	}
	b.initResolver()
	b.initServer()
	return nil
}

func (b *bootstrapper) initLogging() error {
	log := logrus.New()
	log.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(firstNonEmpty(b.opts.LogLevel, "info"))
	if err != nil {
		return wrapInternalErr(err)
	}
	log.SetLevel(level)

	b.app.log = log
	return nil
}

func (b *bootstrapper) initConfig() error {
	path := b.opts.ConfigPath
	if path == "" {
		path = defaultConfigPath()
	}

	var cfg config.Config
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, warnings, err := config.Load(path)
			if err != nil {
				return wrapConfigErr(err)
			}
			for _, w := range warnings {
				b.app.log.WithField("component", "config").Warn(w)
			}
			cfg = loaded
		} else {
			cfg = config.Default()
		}
	} else {
		cfg = config.Default()
	}

	if b.opts.Port != 0 {
		cfg.Server.Port = int(b.opts.Port)
	}

	b.app.cfg = cfg
	return nil
}

func (b *bootstrapper) initEvents() error {
	fanout := events.Fanout{events.NewLogSink(b.app.log)}

	if b.opts.JSONEvents {
		fanout = append(fanout, events.NewJSONSink(os.Stdout, b.opts.PrettyJSON))
	}

	if b.opts.MetricsEnabled {
		fanout = append(fanout, events.NewMetricsSink(prometheus.DefaultRegisterer))
	}

	history := events.NewHistory(historyCapacity(b.app.cfg))
	fanout = append(fanout, history)

	b.app.sink = fanout
	b.app.history = history
	return nil
}

func historyCapacity(cfg config.Config) int {
	if !cfg.History.Enabled {
		return 0
	}
	return cfg.History.MaxEntries
}

func (b *bootstrapper) initRegistry() error {
	userDirs := []string{defaultUserPluginDir()}
	systemDir := systemPluginDir()
	systemDirs := []string{systemDir}

	if err := bundle.ExtractTo(systemDir); err != nil {
		b.app.log.WithField("component", "bundle").WithError(err).Warn("could not install bundled command plugins")
	}

	opts := plugin.OptionsFromConfig(b.app.cfg, userDirs, systemDirs, b.app.sink)
	opts.ExtraDirs = append(opts.ExtraDirs, b.opts.ExtraPluginDirs...)

	reg := plugin.NewRegistry(opts)
	b.app.registry = reg

	if err := reg.Reload(context.Background()); err != nil {
		return wrapInternalErr(err)
	}
	return nil
}

func (b *bootstrapper) initResolver() {
	b.app.resolver = resolver.New(b.app.registry, b.app.cfg, b.app.sink)
}

func (b *bootstrapper) initServer() {
	b.app.server = httpserver.New(b.app.cfg, b.app.resolver, b.app.registry, b.app.history, b.app.sink, b.app.log, b.opts.MetricsEnabled)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
