// internal/workers/search/search-listings/config.go
package searchlistings

import (
	"time"

	"easyapply/internal/common/config"
	"easyapply/internal/common/retry"
)

type Config struct {
	JobsURL        string
	DateFilter     string
	MaxPages       int
	ElementTimeout time.Duration
	SettleDelay    time.Duration
	PageLoadDelay  time.Duration
	Retry          retry.Policy
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		JobsURL:        cfg.Platform.JobsURL,
		DateFilter:     cfg.Search.DateFilter,
		MaxPages:       cfg.Search.MaxPages,
		ElementTimeout: config.GetDuration(cfg.Browser.ElementTimeout),
		SettleDelay:    config.GetDuration(cfg.Browser.SettleDelay),
		PageLoadDelay:  config.GetDuration(cfg.Browser.PageLoadDelay),
		Retry: retry.Policy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			Delay:       config.GetDuration(cfg.Retry.Delay),
		},
	}
}
