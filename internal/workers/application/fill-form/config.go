// internal/workers/application/fill-form/config.go
package fillform

import "easyapply/internal/common/config"

type Config struct {
	Answers       config.OrderedMap
	ResumeMapping config.OrderedMap
	DefaultResume string
}

func LoadConfig(cfg *config.Config) *Config {
	defaultResume := cfg.DefaultResume
	if defaultResume == "" {
		defaultResume = config.DefaultResumePath
	}
	return &Config{
		Answers:       cfg.Answers,
		ResumeMapping: cfg.ResumeMapping,
		DefaultResume: defaultResume,
	}
}
