// Package config loads the TOML configuration shared by the vn binaries.
package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/jgraley/inferno-cpp2v-sub002/internal/observability"
	"github.com/jgraley/inferno-cpp2v-sub002/update"
)

// Config is the decoded configuration file.
type Config struct {
	Log    LogConfig    `toml:"log"`
	Update UpdateConfig `toml:"update"`
	Bench  BenchConfig  `toml:"bench"`
}

// LogConfig selects the log level. VN_LOG_LEVEL overrides it at startup.
type LogConfig struct {
	Level string `toml:"level"`
}

// UpdateConfig holds the updater options. Checks turns on the validation
// run after each pass.
type UpdateConfig struct {
	OrderingPolicy string `toml:"ordering_policy"`
	Checks         bool   `toml:"checks"`
}

// BenchConfig sizes the generated tree and the number of random update
// rounds vn-bench runs. Seed makes a run repeatable.
type BenchConfig struct {
	Size   int   `toml:"size"`
	Rounds int   `toml:"rounds"`
	Seed   int64 `toml:"seed"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Log:    LogConfig{Level: "info"},
		Update: UpdateConfig{OrderingPolicy: "keep-ancestor", Checks: true},
		Bench:  BenchConfig{Size: 200, Rounds: 50, Seed: 1},
	}
}

// LoadConfig reads path over the defaults. Keys missing from the file keep
// their default values. An empty path yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undec := meta.Undecoded(); len(undec) > 0 {
		return Config{}, fmt.Errorf("config parse failed (%s): unknown key %s", path, undec[0])
	}
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Update.OrderingPolicy = strings.TrimSpace(cfg.Update.OrderingPolicy)
	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first problem with cfg.
func Validate(cfg Config) error {
	if cfg.Log.Level != "" {
		if _, ok := observability.ParseLevel(cfg.Log.Level); !ok {
			return fmt.Errorf("log.level: unknown level %q", cfg.Log.Level)
		}
	}
	if _, err := update.ParseOrderingPolicy(cfg.Update.OrderingPolicy); err != nil {
		return fmt.Errorf("update.ordering_policy: %w", err)
	}
	if cfg.Bench.Size < 1 {
		return fmt.Errorf("bench.size must be positive, got %d", cfg.Bench.Size)
	}
	if cfg.Bench.Rounds < 0 {
		return fmt.Errorf("bench.rounds must not be negative, got %d", cfg.Bench.Rounds)
	}
	return nil
}

// UpdateOptions converts the [update] table. Logger and recorder are left
// for the caller to fill in.
func (c Config) UpdateOptions() update.Options {
	policy, _ := update.ParseOrderingPolicy(c.Update.OrderingPolicy)
	return update.Options{
		OrderingPolicy: policy,
		SkipChecks:     !c.Update.Checks,
	}
}
