package config

import "time"

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// Config represents the complete .sightline.yaml configuration file.
type Config struct {
	Version int          `yaml:"version" mapstructure:"version"`
	Server  ServerConfig `yaml:"server" mapstructure:"server"`
	Charts  ChartConfig  `yaml:"charts" mapstructure:"charts"`
	Chat    ChatConfig   `yaml:"chat" mapstructure:"chat"`
}

// ServerConfig points at the monitoring backend.
type ServerConfig struct {
	// URL is the backend base URL, e.g. http://pulse.local:7655.
	URL string `yaml:"url" mapstructure:"url"`

	// Token authenticates API requests. Empty means anonymous, which
	// the demo server accepts.
	Token string `yaml:"token" mapstructure:"token"`
}

// ChartConfig controls dashboard chart behavior.
type ChartConfig struct {
	// Refresh is the poll interval for history fetches.
	Refresh time.Duration `yaml:"refresh" mapstructure:"refresh"`

	// DefaultRange is the range selected on startup: 5m, 1h, 12h, 24h, 7d.
	DefaultRange string `yaml:"default_range" mapstructure:"default_range"`

	// BackendThreshold is the series-count times point-count product
	// above which charts switch from block to braille rendering.
	// 0 keeps the built-in default.
	BackendThreshold int `yaml:"backend_threshold" mapstructure:"backend_threshold"`

	// MaxPoints caps how many points are requested per series fetch.
	MaxPoints int `yaml:"max_points" mapstructure:"max_points"`
}

// ChatConfig controls the assistant session.
type ChatConfig struct {
	// IdleCeiling aborts a stream that produces no events for this long.
	IdleCeiling time.Duration `yaml:"idle_ceiling" mapstructure:"idle_ceiling"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentConfigVersion,
		Server: ServerConfig{
			URL: "http://localhost:7655",
		},
		Charts: ChartConfig{
			Refresh:      30 * time.Second,
			DefaultRange: "1h",
			MaxPoints:    500,
		},
		Chat: ChatConfig{
			IdleCeiling: 5 * time.Minute,
		},
	}
}
