// internal/common/config/loader.go
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	apperrors "easyapply/internal/common/errors"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultPath       = "config.json"
	DefaultResumePath = "resumes/default_resume.pdf"

	// EnvPrefix scopes env overrides, e.g. AUTOAPPLY_DRY_RUN=true.
	EnvPrefix = "AUTOAPPLY"
)

var envOnce sync.Once

// Load reads the config file named by AUTOAPPLY_CONFIG, or config.json.
func Load() (*Config, error) {
	return LoadFromFile(ResolvePath(""))
}

// ResolvePath picks the config path: explicit flag value, then env, then default.
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if p := os.Getenv(EnvPrefix + "_CONFIG"); p != "" {
		return p
	}
	return DefaultPath
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	envOnce.Do(loadEnvFile)

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates a raw JSON config document.
func Parse(raw []byte) (*Config, error) {
	if err := ValidateDocument(raw); err != nil {
		return nil, apperrors.NewConfigInvalidError(err.Error())
	}

	v := viper.New()
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadConfig(bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("error reading config: %w", err)
	}

	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	var ordered struct {
		ResumeMapping OrderedMap `json:"resume_mapping"`
		Answers       OrderedMap `json:"answers"`
	}
	if err := json.Unmarshal(raw, &ordered); err != nil {
		return nil, apperrors.NewConfigInvalidError(err.Error())
	}
	cfg.ResumeMapping = ordered.ResumeMapping
	cfg.Answers = ordered.Answers

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, apperrors.NewConfigInvalidError(err.Error())
	}

	return &cfg, nil
}

// loadEnvFile loads .env from the working directory or the module root.
func loadEnvFile() {
	possiblePaths := []string{".env", "../.env", "../../.env"}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				fmt.Fprintf(os.Stderr, "loaded .env from: %s\n", path)
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			if expanded := os.ExpandEnv(strVal); expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig fills secrets from well-known env names when the file leaves them blank.
func overrideEmptyConfig(cfg *Config) {
	setIfEmpty(&cfg.Email, "LINKEDIN_EMAIL")
	setIfEmpty(&cfg.Password, "LINKEDIN_PASSWORD")
	setIfEmpty(&cfg.Notifications.Target, "NOTIFY_TARGET")
	setIfEmpty(&cfg.Notifications.SMTP.Username, "SMTP_USERNAME")
	setIfEmpty(&cfg.Notifications.SMTP.Password, "SMTP_PASSWORD")
	setIfEmpty(&cfg.Storage.Redis.Password, "REDIS_PASSWORD")
	setIfEmpty(&cfg.Storage.Postgres.User, "DB_USER")
	setIfEmpty(&cfg.Storage.Postgres.Password, "DB_PASSWORD")
	setIfEmpty(&cfg.Storage.Elasticsearch.Password, "ELASTICSEARCH_PASSWORD")
}

func setIfEmpty(field *string, envName string) {
	if *field != "" {
		return
	}
	if val := os.Getenv(envName); val != "" {
		*field = val
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.MaxApplications == 0 {
		cfg.MaxApplications = 10
	}
	if cfg.DefaultResume == "" {
		cfg.DefaultResume = DefaultResumePath
	}

	if cfg.Schedule.IntervalMinutes == 0 {
		cfg.Schedule.IntervalMinutes = 60
	}
	if cfg.Schedule.Mode == "" {
		cfg.Schedule.Mode = ScheduleModeInterval
	}
	if cfg.Frontend.Port == 0 {
		cfg.Frontend.Port = 8501
	}

	// Ledger locations
	if cfg.DataTracking.CSVFile == "" {
		cfg.DataTracking.CSVFile = "job_data.csv"
	}
	if cfg.DataTracking.MirrorFiles == nil {
		cfg.DataTracking.MirrorFiles = []string{"artifacts/job_data.csv"}
	}
	if cfg.DataTracking.AppliedJobsFile == "" {
		cfg.DataTracking.AppliedJobsFile = "applied_jobs.txt"
	}
	if cfg.DataTracking.DashboardFile == "" {
		cfg.DataTracking.DashboardFile = "artifacts/job_data.csv"
	}

	// Browser timings
	if cfg.Browser.ElementTimeout == 0 {
		cfg.Browser.ElementTimeout = 15000
	}
	if cfg.Browser.SettleDelay == 0 {
		cfg.Browser.SettleDelay = 2000
	}
	if cfg.Browser.PageLoadDelay == 0 {
		cfg.Browser.PageLoadDelay = 5000
	}
	if cfg.Browser.DismissTimeout == 0 {
		cfg.Browser.DismissTimeout = 15000
	}
	if cfg.Browser.WindowWidth == 0 {
		cfg.Browser.WindowWidth = 1280
	}
	if cfg.Browser.WindowHeight == 0 {
		cfg.Browser.WindowHeight = 900
	}

	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = 3
	}
	if cfg.Retry.Delay == 0 {
		cfg.Retry.Delay = 5000
	}

	if cfg.Search.MaxPages == 0 {
		cfg.Search.MaxPages = 5
	}
	if cfg.Search.DateFilter == "" {
		cfg.Search.DateFilter = "Past 24 hours"
	}
	if cfg.Application.MaxSteps == 0 {
		cfg.Application.MaxSteps = 5
	}

	if cfg.Platform.LoginURL == "" {
		cfg.Platform.LoginURL = "https://www.linkedin.com/login"
	}
	if cfg.Platform.JobsURL == "" {
		cfg.Platform.JobsURL = "https://www.linkedin.com/jobs/"
	}
	if cfg.Platform.Domain == "" {
		cfg.Platform.Domain = "linkedin.com"
	}

	// Notifications
	if cfg.Notifications.SubjectPrefix == "" {
		cfg.Notifications.SubjectPrefix = "LinkedIn Automation: "
	}
	if cfg.Notifications.Timeout == 0 {
		cfg.Notifications.Timeout = 10000
	}
	if cfg.Notifications.SMTP.Port == 0 {
		cfg.Notifications.SMTP.Port = 587
	}

	// Storage
	if cfg.Storage.AppliedSet == "" {
		cfg.Storage.AppliedSet = AppliedSetFile
	}
	if cfg.Storage.Redis.Key == "" {
		cfg.Storage.Redis.Key = "autoapply:applied_jobs"
	}
	if cfg.Storage.Postgres.Port == 0 {
		cfg.Storage.Postgres.Port = 5432
	}
	if cfg.Storage.Postgres.MaxConnections == 0 {
		cfg.Storage.Postgres.MaxConnections = 5
	}
	if cfg.Storage.Postgres.MaxIdle == 0 {
		cfg.Storage.Postgres.MaxIdle = 2
	}
	if cfg.Storage.Postgres.SSLMode == "" {
		cfg.Storage.Postgres.SSLMode = "disable"
	}
	if cfg.Storage.Postgres.Table == "" {
		cfg.Storage.Postgres.Table = "applied_jobs"
	}
	if cfg.Storage.Elasticsearch.Index == "" {
		cfg.Storage.Elasticsearch.Index = "applied-jobs"
	}

	// Camunda defaults
	if cfg.Camunda.JobType == "" {
		cfg.Camunda.JobType = "job-search-cycle"
	}
	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 1
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 3600000
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if len(cfg.JobKeywords) == 0 {
		return fmt.Errorf("job_keywords must list at least one keyword")
	}
	if cfg.MaxApplications < 1 {
		return fmt.Errorf("max_applications must be positive")
	}

	switch cfg.Schedule.Mode {
	case ScheduleModeInterval:
	case ScheduleModeCamunda:
		if cfg.Camunda.BrokerAddress == "" {
			return fmt.Errorf("camunda.broker_address is required when schedule.mode is camunda")
		}
	default:
		return fmt.Errorf("unknown schedule.mode %q", cfg.Schedule.Mode)
	}

	switch cfg.Storage.AppliedSet {
	case AppliedSetFile:
	case AppliedSetRedis:
		if cfg.Storage.Redis.Address == "" {
			return fmt.Errorf("storage.redis.address is required when storage.applied_set is redis")
		}
	default:
		return fmt.Errorf("unknown storage.applied_set %q", cfg.Storage.AppliedSet)
	}

	if cfg.Storage.Postgres.Enabled && (cfg.Storage.Postgres.Host == "" || cfg.Storage.Postgres.Database == "") {
		return fmt.Errorf("storage.postgres.host and database are required when postgres is enabled")
	}
	if cfg.Storage.Elasticsearch.Enabled && len(cfg.Storage.Elasticsearch.Addresses) == 0 {
		return fmt.Errorf("storage.elasticsearch.addresses is required when elasticsearch is enabled")
	}

	n := cfg.Notifications
	if n.SMTP.Enabled && n.SMTP.Host == "" {
		return fmt.Errorf("notifications.smtp.host is required when smtp is enabled")
	}
	if (n.SMTP.Enabled || n.SES.Enabled) && n.Target == "" {
		return fmt.Errorf("notifications.target is required for email delivery")
	}
	if n.SNS.Enabled && n.SNS.TopicARN == "" {
		return fmt.Errorf("notifications.sns.topic_arn is required when sns is enabled")
	}

	return nil
}

// RequireCredentials reports whether a login can be attempted.
func (c *Config) RequireCredentials() error {
	if c.Email == "" || c.Password == "" {
		return apperrors.NewConfigInvalidError("email and password are required (set them in the file or LINKEDIN_EMAIL / LINKEDIN_PASSWORD)")
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
