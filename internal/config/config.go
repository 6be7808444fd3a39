// Package config handles morpher configuration loading and management.
package config

// Config holds all engine and tool settings.
type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	Limits  LimitsConfig  `yaml:"limits"`
	Output  OutputConfig  `yaml:"output"`
	Data    DataConfig    `yaml:"data"`
	Logging LoggingConfig `yaml:"logging"`
}

// DataConfig holds rig search paths.
type DataConfig struct {
	RigPaths []string `yaml:"rig_paths"` // Directories searched for rigs given by name
}

// EngineConfig holds blending engine settings.
type EngineConfig struct {
	Workers          int     `yaml:"workers"`           // 0 = one per CPU
	MaxProgressive   int     `yaml:"max_progressive"`   // Progressive targets per channel
	DefaultCurvature float32 `yaml:"default_curvature"` // Curvature for channels that don't set one
}

// LimitsConfig holds the global percent limits applied to channels
// without their own.
type LimitsConfig struct {
	Use bool    `yaml:"use"`
	Min float32 `yaml:"min"`
	Max float32 `yaml:"max"`
}

// OutputConfig holds CLI output settings.
type OutputConfig struct {
	Format    string `yaml:"format"` // "text" or "yaml"
	Precision int    `yaml:"precision"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			Workers:          0,
			MaxProgressive:   100,
			DefaultCurvature: 0.5,
		},
		Limits: LimitsConfig{
			Use: false,
			Min: 0,
			Max: 100,
		},
		Output: OutputConfig{
			Format:    "text",
			Precision: 4,
		},
		Data: DataConfig{
			RigPaths: []string{"rigs"},
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
