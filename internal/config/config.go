// Package config loads and live-reloads matchqueued's configuration, in a
// YAML/TOML-plus-env-override style.
package config

// QueueConfig configures the core Coordinator and its DeferredCapped
// policy.
type QueueConfig struct {
	MinQueue        int    `yaml:"minQueue" toml:"minQueue" default:"20" desc:"queue size at which a match is attempted immediately" env:"MIN_QUEUE"`
	MaxWaitMs       string `yaml:"maxWaitMs" toml:"maxWaitMs" default:"60000" desc:"milliseconds an entry may stay deferred before a relaxed attempt; \"infinity\" disables" env:"MAX_WAIT_MS"`
	TickMs          string `yaml:"tickMs" toml:"tickMs" default:"1000" desc:"timer cadence in milliseconds; \"infinity\" disables the timer" env:"TICK_MS"`
	InitialDelta    string `yaml:"initialDelta" toml:"initialDelta" default:"unbounded" desc:"rank delta cap for a non-relaxed attempt" env:"INITIAL_DELTA"`
	RelaxedDelta    string `yaml:"relaxedDelta" toml:"relaxedDelta" default:"unbounded" desc:"rank delta cap for a relaxed (post-timeout) attempt" env:"RELAXED_DELTA"`
	MaxMatchHistory int    `yaml:"maxMatchHistory" toml:"maxMatchHistory" default:"100" desc:"bounded ring buffer size for recentMatches" env:"MAX_MATCH_HISTORY"`
}

// HTTPConfig configures the transport binary's listener.
type HTTPConfig struct {
	Addr string `yaml:"addr" toml:"addr" default:":8080" desc:"address the HTTP server listens on" env:"HTTP_ADDR"`
}

// LoggingConfig configures internal/logging's default Logger.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level" default:"info" desc:"one of debug, info, warn, error" env:"LOG_LEVEL"`
	Format string `yaml:"format" toml:"format" default:"text" desc:"one of text, json" env:"LOG_FORMAT"`
}

// Config is matchqueued's top-level configuration document.
type Config struct {
	Queue   QueueConfig   `yaml:"queue" toml:"queue"`
	HTTP    HTTPConfig    `yaml:"http" toml:"http"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

// Default returns a Config matching the struct tags' documented defaults.
func Default() Config {
	return Config{
		Queue: QueueConfig{
			MinQueue:        20,
			MaxWaitMs:       "60000",
			TickMs:          "1000",
			InitialDelta:    "unbounded",
			RelaxedDelta:    "unbounded",
			MaxMatchHistory: 100,
		},
		HTTP:    HTTPConfig{Addr: ":8080"},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// PolicyOpts projects QueueConfig into the map[string]any shape
// queue.Policy.Init and queue.Reconfigurable.Reconfigure expect.
func (q QueueConfig) PolicyOpts() map[string]any {
	return map[string]any{
		"minQueue":     q.MinQueue,
		"maxWaitMs":    q.MaxWaitMs,
		"tickMs":       q.TickMs,
		"initialDelta": q.InitialDelta,
		"relaxedDelta": q.RelaxedDelta,
	}
}
