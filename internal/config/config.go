// Package config loads runtime configuration from the environment, with a
// .env file picked up when present.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AnthropicAPIKey string // empty = judge disabled, deterministic GMs only

	StatsAPIBaseURL string // empty = stats tools disabled
	StatsAPIKey     string

	DBPath  string
	APIPort int

	CycleInterval time.Duration // interval between background negotiation cycles
	JudgeTimeout  time.Duration // per-negotiation judge budget
	Seed          int64         // 0 = time-seeded
}

// Load reads configuration from a .env file (if any) and the environment.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBPath:        "data/league.db",
		APIPort:       5001,
		CycleInterval: time.Minute,
		JudgeTimeout:  45 * time.Second,
	}

	cfg.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")
	cfg.StatsAPIBaseURL = os.Getenv("STATS_API_BASE_URL")
	cfg.StatsAPIKey = os.Getenv("STATS_API_KEY")

	if val := os.Getenv("LEAGUE_DB_PATH"); val != "" {
		cfg.DBPath = val
	}
	if val := os.Getenv("API_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			cfg.APIPort = port
		}
	}
	if val := os.Getenv("CYCLE_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil && d > 0 {
			cfg.CycleInterval = d
		}
	}
	if val := os.Getenv("JUDGE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil && d > 0 {
			cfg.JudgeTimeout = d
		}
	}
	if val := os.Getenv("RNG_SEED"); val != "" {
		if seed, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Seed = seed
		}
	}

	return cfg
}
