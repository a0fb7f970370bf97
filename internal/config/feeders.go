package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/golobby/cast"
	"gopkg.in/yaml.v3"
)

// Feeder populates a Config from some source. Feed is expected to be
// additive: it overrides only the fields its source actually sets.
type Feeder interface {
	Feed(cfg *Config) error
}

// FileFeeder loads a Config document from path, dispatching on extension
// between YAML and TOML.
type FileFeeder struct {
	Path string
}

// Feed implements Feeder.
func (f FileFeeder) Feed(cfg *Config) error {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", f.Path, err)
	}

	switch {
	case strings.HasSuffix(f.Path, ".toml"):
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("config: decode toml %s: %w", f.Path, err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("config: decode yaml %s: %w", f.Path, err)
		}
	}
	return nil
}

// EnvFeeder overrides Config fields from environment variables named by
// their `env` struct tag, coercing string values with golobby/cast.
type EnvFeeder struct {
	// Lookup defaults to os.LookupEnv; tests may substitute a map.
	Lookup func(key string) (string, bool)
}

// NewEnvFeeder returns an EnvFeeder reading from the process environment.
func NewEnvFeeder() EnvFeeder {
	return EnvFeeder{Lookup: os.LookupEnv}
}

// Feed implements Feeder.
func (f EnvFeeder) Feed(cfg *Config) error {
	lookup := f.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}

	apply := func(key string, set func(string) error) error {
		raw, ok := lookup(key)
		if !ok || raw == "" {
			return nil
		}
		return set(raw)
	}

	if err := apply("MIN_QUEUE", func(raw string) error {
		n, err := cast.ToIntE(raw)
		if err != nil {
			return fmt.Errorf("config: %s: %w", "MIN_QUEUE", err)
		}
		cfg.Queue.MinQueue = n
		return nil
	}); err != nil {
		return err
	}
	if err := apply("MAX_WAIT_MS", func(raw string) error { cfg.Queue.MaxWaitMs = raw; return nil }); err != nil {
		return err
	}
	if err := apply("TICK_MS", func(raw string) error { cfg.Queue.TickMs = raw; return nil }); err != nil {
		return err
	}
	if err := apply("INITIAL_DELTA", func(raw string) error { cfg.Queue.InitialDelta = raw; return nil }); err != nil {
		return err
	}
	if err := apply("RELAXED_DELTA", func(raw string) error { cfg.Queue.RelaxedDelta = raw; return nil }); err != nil {
		return err
	}
	if err := apply("MAX_MATCH_HISTORY", func(raw string) error {
		n, err := cast.ToIntE(raw)
		if err != nil {
			return fmt.Errorf("config: %s: %w", "MAX_MATCH_HISTORY", err)
		}
		cfg.Queue.MaxMatchHistory = n
		return nil
	}); err != nil {
		return err
	}
	if err := apply("HTTP_ADDR", func(raw string) error { cfg.HTTP.Addr = raw; return nil }); err != nil {
		return err
	}
	if err := apply("LOG_LEVEL", func(raw string) error { cfg.Logging.Level = strings.ToLower(raw); return nil }); err != nil {
		return err
	}
	if err := apply("LOG_FORMAT", func(raw string) error { cfg.Logging.Format = strings.ToLower(raw); return nil }); err != nil {
		return err
	}
	return nil
}

// Load builds a Config by starting from Default(), applying each feeder in
// order, and validating the result. Later feeders win.
func Load(feeders ...Feeder) (Config, error) {
	cfg := Default()
	for _, f := range feeders {
		if err := f.Feed(&cfg); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects a Config whose values could not possibly be accepted by
// the policy options they eventually become.
func (c Config) Validate() error {
	if c.Queue.MinQueue < 1 {
		return fmt.Errorf("config: queue.minQueue must be >= 1, got %d", c.Queue.MinQueue)
	}
	if err := validateMillisOrInfinity("queue.maxWaitMs", c.Queue.MaxWaitMs); err != nil {
		return err
	}
	if err := validateMillisOrInfinity("queue.tickMs", c.Queue.TickMs); err != nil {
		return err
	}
	if err := validateDeltaOrUnbounded("queue.initialDelta", c.Queue.InitialDelta); err != nil {
		return err
	}
	if err := validateDeltaOrUnbounded("queue.relaxedDelta", c.Queue.RelaxedDelta); err != nil {
		return err
	}
	return nil
}

func validateMillisOrInfinity(field, val string) error {
	if val == "infinity" {
		return nil
	}
	if _, err := strconv.ParseInt(val, 10, 64); err != nil {
		return fmt.Errorf("config: %s must be \"infinity\" or an integer, got %q", field, val)
	}
	return nil
}

func validateDeltaOrUnbounded(field, val string) error {
	if val == "unbounded" {
		return nil
	}
	n, err := strconv.Atoi(val)
	if err != nil || n < 0 {
		return fmt.Errorf("config: %s must be \"unbounded\" or a non-negative integer, got %q", field, val)
	}
	return nil
}
