// internal/workers/communication/send-notification/config.go
package sendnotification

import (
	"time"

	"easyapply/internal/common/config"
)

type Config struct {
	Target        string
	SubjectPrefix string
	Timeout       time.Duration

	SMTP SMTPConfig
	SES  SESConfig
	SNS  SNSConfig
}

type SMTPConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	UseTLS   bool
	From     string
}

type SESConfig struct {
	Enabled   bool
	Region    string
	FromEmail string
}

type SNSConfig struct {
	Enabled  bool
	Region   string
	TopicARN string
}

func LoadConfig(cfg *config.Config) *Config {
	n := cfg.Notifications
	return &Config{
		Target:        n.Target,
		SubjectPrefix: n.SubjectPrefix,
		Timeout:       config.GetDuration(n.Timeout),
		SMTP: SMTPConfig{
			Enabled:  n.SMTP.Enabled,
			Host:     n.SMTP.Host,
			Port:     n.SMTP.Port,
			Username: n.SMTP.Username,
			Password: n.SMTP.Password,
			UseTLS:   n.SMTP.UseTLS,
			From:     n.SMTP.From,
		},
		SES: SESConfig{
			Enabled:   n.SES.Enabled,
			Region:    n.SES.Region,
			FromEmail: n.SES.FromEmail,
		},
		SNS: SNSConfig{
			Enabled:  n.SNS.Enabled,
			Region:   n.SNS.Region,
			TopicARN: n.SNS.TopicARN,
		},
	}
}
