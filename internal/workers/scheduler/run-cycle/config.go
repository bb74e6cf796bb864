// internal/workers/scheduler/run-cycle/config.go
package runcycle

import (
	"time"

	"easyapply/internal/common/config"
)

type Config struct {
	Interval  time.Duration
	QuitDelay time.Duration

	// Camunda trigger
	JobType       string
	MaxJobsActive int
	JobTimeout    time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		Interval:      time.Duration(cfg.Schedule.IntervalMinutes) * time.Minute,
		QuitDelay:     config.GetDuration(cfg.Browser.QuitDelay),
		JobType:       cfg.Camunda.JobType,
		MaxJobsActive: cfg.Camunda.MaxJobsActive,
		JobTimeout:    config.GetDuration(cfg.Camunda.Timeout),
	}
}
