// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Addr string `env:"DRAFTNIGHT_ADDR" envDefault:":8080"`

	// Stats provider.
	NBABaseURL string `env:"DRAFTNIGHT_NBA_BASE_URL" envDefault:"https://api.balldontlie.io"`
	NHLBaseURL string `env:"DRAFTNIGHT_NHL_BASE_URL" envDefault:"https://api.balldontlie.io/nhl"`
	APIKey     string `env:"DRAFTNIGHT_API_KEY"`

	// Cache TTLs. The schedule TTL bounds how stale the game-state reads
	// that drive live scoring can be.
	ScheduleTTL time.Duration `env:"DRAFTNIGHT_SCHEDULE_TTL" envDefault:"60s"`
	GameLogTTL  time.Duration `env:"DRAFTNIGHT_GAMELOG_TTL" envDefault:"10m"`

	// Live scoring cadence.
	PollInterval     time.Duration `env:"DRAFTNIGHT_POLL_INTERVAL" envDefault:"30s"`
	SlowPollInterval time.Duration `env:"DRAFTNIGHT_SLOW_POLL_INTERVAL" envDefault:"5m"`

	// Pool builder enrichment pacing and nightly sweep.
	BatchSize     int           `env:"DRAFTNIGHT_BATCH_SIZE" envDefault:"10"`
	BatchDelay    time.Duration `env:"DRAFTNIGHT_BATCH_DELAY" envDefault:"1s"`
	SweepInterval time.Duration `env:"DRAFTNIGHT_SWEEP_INTERVAL" envDefault:"15m"`

	// Abandoned-room cleanup.
	IdleAfter time.Duration `env:"DRAFTNIGHT_IDLE_AFTER" envDefault:"30m"`
	IdleSweep time.Duration `env:"DRAFTNIGHT_IDLE_SWEEP" envDefault:"5m"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
