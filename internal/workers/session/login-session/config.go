// internal/workers/session/login-session/config.go
package loginsession

import (
	"time"

	"easyapply/internal/common/config"
	"easyapply/internal/common/retry"
)

type Config struct {
	LoginURL       string
	Email          string
	Password       string
	ElementTimeout time.Duration
	SettleDelay    time.Duration
	Retry          retry.Policy
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		LoginURL:       cfg.Platform.LoginURL,
		Email:          cfg.Email,
		Password:       cfg.Password,
		ElementTimeout: config.GetDuration(cfg.Browser.ElementTimeout),
		SettleDelay:    config.GetDuration(cfg.Browser.SettleDelay),
		Retry: retry.Policy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			Delay:       config.GetDuration(cfg.Retry.Delay),
		},
	}
}
