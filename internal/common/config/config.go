// internal/common/config/config.go
package config

import "fmt"

// Config is the automation configuration, read from a single JSON file once per cycle.
type Config struct {
	Email           string   `mapstructure:"email"`
	Password        string   `mapstructure:"password"`
	JobKeywords     []string `mapstructure:"job_keywords"`
	MaxApplications int      `mapstructure:"max_applications"`
	DryRun          bool     `mapstructure:"dry_run"`
	DefaultResume   string   `mapstructure:"default_resume"`

	// Ordered sections are decoded from the raw document, viper drops key order.
	ResumeMapping OrderedMap `mapstructure:"-"`
	Answers       OrderedMap `mapstructure:"-"`

	Schedule      ScheduleConfig     `mapstructure:"schedule"`
	Frontend      FrontendConfig     `mapstructure:"frontend"`
	DataTracking  DataTrackingConfig `mapstructure:"data_tracking"`
	Browser       BrowserConfig      `mapstructure:"browser"`
	Retry         RetryConfig        `mapstructure:"retry"`
	Search        SearchConfig       `mapstructure:"search"`
	Application   ApplicationConfig  `mapstructure:"application"`
	Platform      PlatformConfig     `mapstructure:"platform"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Storage       StorageConfig      `mapstructure:"storage"`
	Camunda       CamundaConfig      `mapstructure:"camunda"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

const (
	ScheduleModeInterval = "interval"
	ScheduleModeCamunda  = "camunda"
)

type ScheduleConfig struct {
	IntervalMinutes int    `mapstructure:"interval_minutes"`
	Mode            string `mapstructure:"mode"` // "interval" or "camunda"
}

type FrontendConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr returns the dashboard listen address.
func (f FrontendConfig) Addr() string {
	return fmt.Sprintf("%s:%d", f.Host, f.Port)
}

type DataTrackingConfig struct {
	CSVFile         string   `mapstructure:"csv_file"`
	MirrorFiles     []string `mapstructure:"mirror_files"`
	AppliedJobsFile string   `mapstructure:"applied_jobs_file"`
	DashboardFile   string   `mapstructure:"dashboard_file"` // ledger copy the dashboard reads
}

type BrowserConfig struct {
	Headless       bool   `mapstructure:"headless"`
	NoSandbox      bool   `mapstructure:"no_sandbox"`
	ExecPath       string `mapstructure:"exec_path"`
	UserAgent      string `mapstructure:"user_agent"`
	UserDataDir    string `mapstructure:"user_data_dir"`
	WindowWidth    int    `mapstructure:"window_width"`
	WindowHeight   int    `mapstructure:"window_height"`
	ElementTimeout int    `mapstructure:"element_timeout_ms"` // milliseconds
	SettleDelay    int    `mapstructure:"settle_delay_ms"`    // milliseconds
	PageLoadDelay  int    `mapstructure:"page_load_delay_ms"` // milliseconds
	QuitDelay      int    `mapstructure:"quit_delay_ms"`      // milliseconds
	DismissTimeout int    `mapstructure:"dismiss_timeout_ms"` // milliseconds
}

// RetryConfig is the fixed-delay policy for login, filters and search.
type RetryConfig struct {
	MaxAttempts int `mapstructure:"max_attempts"`
	Delay       int `mapstructure:"delay_ms"` // milliseconds
}

type SearchConfig struct {
	MaxPages   int    `mapstructure:"max_pages"`
	DateFilter string `mapstructure:"date_filter"`
}

type ApplicationConfig struct {
	MaxSteps    int `mapstructure:"max_steps"`
	MinInterval int `mapstructure:"min_interval_ms"` // milliseconds between listings
}

type PlatformConfig struct {
	LoginURL string `mapstructure:"login_url"`
	JobsURL  string `mapstructure:"jobs_url"`
	Domain   string `mapstructure:"domain"`
}

// NotificationConfig holds the operator target and the delivery channels.
type NotificationConfig struct {
	Target        string `mapstructure:"target"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
	Timeout       int    `mapstructure:"timeout_ms"` // milliseconds

	SMTP struct {
		Enabled  bool   `mapstructure:"enabled"`
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
		UseTLS   bool   `mapstructure:"use_tls"`
		From     string `mapstructure:"from"`
	} `mapstructure:"smtp"`

	SES struct {
		Enabled   bool   `mapstructure:"enabled"`
		Region    string `mapstructure:"region"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"ses"`

	SNS struct {
		Enabled  bool   `mapstructure:"enabled"`
		Region   string `mapstructure:"region"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"sns"`
}

type StorageConfig struct {
	AppliedSet    string              `mapstructure:"applied_set"` // "file" or "redis"
	Redis         RedisConfig         `mapstructure:"redis"`
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
}

const (
	AppliedSetFile  = "file"
	AppliedSetRedis = "redis"
)

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Key      string `mapstructure:"key"`
}

type PostgresConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
	Table          string `mapstructure:"table"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
}

type CamundaConfig struct {
	BrokerAddress string `mapstructure:"broker_address"`
	JobType       string `mapstructure:"job_type"`
	MaxJobsActive int    `mapstructure:"max_jobs_active"`
	Timeout       int    `mapstructure:"timeout"` // milliseconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
