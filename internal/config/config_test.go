package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("LEAGUE_DB_PATH", "")
	t.Setenv("API_PORT", "")
	t.Setenv("CYCLE_INTERVAL", "")
	t.Setenv("JUDGE_TIMEOUT", "")
	t.Setenv("RNG_SEED", "")

	cfg := Load()

	assert.Empty(t, cfg.AnthropicAPIKey)
	assert.Equal(t, "data/league.db", cfg.DBPath)
	assert.Equal(t, 5001, cfg.APIPort)
	assert.Equal(t, time.Minute, cfg.CycleInterval)
	assert.Equal(t, 45*time.Second, cfg.JudgeTimeout)
	assert.Zero(t, cfg.Seed)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("STATS_API_BASE_URL", "https://stats.example.com")
	t.Setenv("STATS_API_KEY", "stats-key")
	t.Setenv("LEAGUE_DB_PATH", "/tmp/test.db")
	t.Setenv("API_PORT", "9000")
	t.Setenv("CYCLE_INTERVAL", "30s")
	t.Setenv("JUDGE_TIMEOUT", "10s")
	t.Setenv("RNG_SEED", "42")

	cfg := Load()

	assert.Equal(t, "sk-test", cfg.AnthropicAPIKey)
	assert.Equal(t, "https://stats.example.com", cfg.StatsAPIBaseURL)
	assert.Equal(t, "stats-key", cfg.StatsAPIKey)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, 9000, cfg.APIPort)
	assert.Equal(t, 30*time.Second, cfg.CycleInterval)
	assert.Equal(t, 10*time.Second, cfg.JudgeTimeout)
	assert.Equal(t, int64(42), cfg.Seed)
}

func TestLoadIgnoresInvalidValues(t *testing.T) {
	t.Setenv("API_PORT", "not-a-port")
	t.Setenv("CYCLE_INTERVAL", "-5s")
	t.Setenv("RNG_SEED", "abc")

	cfg := Load()

	assert.Equal(t, 5001, cfg.APIPort)
	assert.Equal(t, time.Minute, cfg.CycleInterval)
	assert.Zero(t, cfg.Seed)
}
