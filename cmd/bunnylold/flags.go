package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sidosera/lolabunny.app/internal/app"
)

func parseFlags() (app.Options, bool) {
	var opts app.Options
	var showVersion bool
	var port uint
	var metricsEnabled bool

	flag.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	flag.UintVar(&port, "port", 0, "Override server.port from the config file")
	flag.StringVar(&opts.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.BoolVar(&opts.JSONEvents, "json-events", false, "Write a JSON event stream to stdout alongside structured logs")
	flag.BoolVar(&opts.PrettyJSON, "pretty-json", false, "Indent and colorize the JSON event stream")
	flag.BoolVar(&metricsEnabled, "metrics", false, "Expose GET /metrics")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "bunnylold - local command router core\n\n")
		fmt.Fprintf(os.Stderr, "Usage: bunnylold [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	switch opts.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.LogLevel)
		os.Exit(1)
	}

	if port > 0 && port <= 65535 {
		opts.Port = uint16(port)
	}
	opts.MetricsEnabled = metricsEnabled

	return opts, showVersion
}
