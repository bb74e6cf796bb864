// internal/workers/application/apply-job/config.go
package applyjob

import (
	"time"

	"easyapply/internal/common/config"
)

type Config struct {
	DryRun   bool
	Domain   string
	MaxSteps int

	ElementTimeout time.Duration
	SettleDelay    time.Duration
	DismissTimeout time.Duration
	// MinInterval spaces out opened listings; zero disables pacing.
	MinInterval time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		DryRun:         cfg.DryRun,
		Domain:         cfg.Platform.Domain,
		MaxSteps:       cfg.Application.MaxSteps,
		ElementTimeout: config.GetDuration(cfg.Browser.ElementTimeout),
		SettleDelay:    config.GetDuration(cfg.Browser.SettleDelay),
		DismissTimeout: config.GetDuration(cfg.Browser.DismissTimeout),
		MinInterval:    config.GetDuration(cfg.Application.MinInterval),
	}
}
