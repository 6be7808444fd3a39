package config

import "flag"

var (
	flagConfig    = flag.String("config", "", "Path to config file")
	flagDebug     = flag.Bool("debug", false, "Enable debug logging")
	flagWorkers   = flag.Int("workers", 0, "Accumulation workers (0 = config value)")
	flagFormat    = flag.String("format", "", "Output format: text or yaml")
	flagPrecision = flag.Int("precision", -1, "Decimal places in text output")
)

// ParseFlags parses command-line flags. Call this early in main().
// Non-flag arguments are available through flag.Args.
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagWorkers > 0 {
		cfg.Engine.Workers = *flagWorkers
	}
	if *flagFormat != "" {
		cfg.Output.Format = *flagFormat
	}
	if *flagPrecision >= 0 {
		cfg.Output.Precision = *flagPrecision
	}
}
