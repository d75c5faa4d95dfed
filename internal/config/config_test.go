package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jgraley/inferno-cpp2v-sub002/internal/observability"
	"github.com/jgraley/inferno-cpp2v-sub002/update"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vn.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	opts := cfg.UpdateOptions()
	assert.Equal(t, update.OrderingKeepAncestor, opts.OrderingPolicy)
	assert.False(t, opts.SkipChecks)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
[log]
level = "DEBUG"

[update]
ordering_policy = "keep-descendant"
checks = false

[bench]
rounds = 7
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 7, cfg.Bench.Rounds)
	assert.Equal(t, 200, cfg.Bench.Size, "unset keys keep defaults")
	assert.Equal(t, int64(1), cfg.Bench.Seed)

	opts := cfg.UpdateOptions()
	assert.Equal(t, update.OrderingKeepDescendant, opts.OrderingPolicy)
	assert.True(t, opts.SkipChecks)
}

func TestLoadConfigLevelAliases(t *testing.T) {
	for _, level := range []string{"warning", "off", "None", "trace"} {
		t.Run(level, func(t *testing.T) {
			cfg, err := LoadConfig(writeConfig(t, "[log]\nlevel = \""+level+"\""))
			require.NoError(t, err)
			_, ok := observability.ParseLevel(cfg.Log.Level)
			assert.True(t, ok)
		})
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"syntax", "[log\nlevel = 1", "config load failed"},
		{"unknown key", "[update]\nfancy = true", "unknown key update.fancy"},
		{"level", "[log]\nlevel = \"loud\"", "log.level"},
		{"policy", "[update]\nordering_policy = \"sideways\"", "update.ordering_policy"},
		{"size", "[bench]\nsize = 0", "bench.size"},
		{"rounds", "[bench]\nrounds = -1", "bench.rounds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
