// internal/workers/communication/send-notification/handler.go
package sendnotification

import (
	"context"
	"fmt"
	"strings"
	"time"

	awsclients "easyapply/internal/common/aws"
	apperrors "easyapply/internal/common/errors"
	"easyapply/internal/common/logger"
	"easyapply/internal/common/metrics"

	"github.com/google/uuid"
)

const (
	TaskType = "send-notification"
)

// Notifier delivers operator notifications. Delivery is fire-and-forget:
// failures are logged and never retried or returned.
type Notifier interface {
	Notify(ctx context.Context, subject, body string)
	NotifyEvent(ctx context.Context, event Event, data map[string]interface{})
}

// Channel is one delivery route.
type Channel interface {
	Name() string
	Send(ctx context.Context, subject, body string) error
}

type Handler struct {
	config   *Config
	channels []Channel
	logger   logger.Logger
}

// NewHandler builds a handler with every channel enabled in config.
// With no channel enabled notifications are only logged.
func NewHandler(ctx context.Context, config *Config, log logger.Logger) (*Handler, error) {
	var channels []Channel

	if config.SMTP.Enabled {
		channels = append(channels, NewSMTPChannel(config.SMTP, config.Target))
	}
	if config.SES.Enabled {
		client, err := awsclients.NewSESClient(ctx, config.SES.Region)
		if err != nil {
			return nil, fmt.Errorf("load AWS config for SES: %w", err)
		}
		channels = append(channels, NewSESChannel(client, config.SES.FromEmail, config.Target))
	}
	if config.SNS.Enabled {
		client, err := awsclients.NewSNSClient(ctx, config.SNS.Region)
		if err != nil {
			return nil, fmt.Errorf("load AWS config for SNS: %w", err)
		}
		channels = append(channels, NewSNSChannel(client, config.SNS.TopicARN))
	}

	return NewHandlerWithChannels(config, log, channels...), nil
}

func NewHandlerWithChannels(config *Config, log logger.Logger, channels ...Channel) *Handler {
	return &Handler{
		config:   config,
		channels: channels,
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Notify(ctx context.Context, subject, body string) {
	h.Send(ctx, subject, body)
}

func (h *Handler) NotifyEvent(ctx context.Context, event Event, data map[string]interface{}) {
	msg, err := Compose(event, data)
	if err != nil {
		h.logger.Warn("notification not composed", map[string]interface{}{
			"event": string(event),
			"error": err.Error(),
		})
		return
	}
	h.Send(ctx, msg.Subject, msg.Body)
}

// Send delivers subject and body on every channel and reports the result.
// One failing channel does not stop the others.
func (h *Handler) Send(ctx context.Context, subject, body string) *Output {
	subject = h.withPrefix(subject)
	out := &Output{
		NotificationID: uuid.New().String(),
		Status:         StatusDisabled,
		SentAt:         time.Now().UTC().Format(time.RFC3339),
	}

	if len(h.channels) == 0 {
		h.logger.Info("notification (no channel enabled)", map[string]interface{}{
			"subject": subject,
			"body":    body,
		})
		return out
	}

	if h.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.Timeout)
		defer cancel()
	}

	failed := 0
	for _, ch := range h.channels {
		if err := ch.Send(ctx, subject, body); err != nil {
			failed++
			metrics.NotificationsSent.WithLabelValues(ch.Name(), StatusFailed).Inc()
			h.logger.WithError(apperrors.NewNotificationSendFailedError(ch.Name(), err)).Error("notification send failed", map[string]interface{}{
				"notificationId": out.NotificationID,
				"channel":        ch.Name(),
				"subject":        subject,
			})
			continue
		}
		metrics.NotificationsSent.WithLabelValues(ch.Name(), StatusSent).Inc()
		out.Channels = append(out.Channels, ch.Name())
	}

	if failed == len(h.channels) {
		out.Status = StatusFailed
	} else {
		out.Status = StatusSent
		h.logger.Debug("notification sent", map[string]interface{}{
			"notificationId": out.NotificationID,
			"channels":       out.Channels,
			"subject":        subject,
		})
	}
	return out
}

func (h *Handler) withPrefix(subject string) string {
	if h.config.SubjectPrefix == "" || strings.HasPrefix(subject, h.config.SubjectPrefix) {
		return subject
	}
	return h.config.SubjectPrefix + subject
}

// Compose renders the template registered for event.
func Compose(event Event, data map[string]interface{}) (Message, error) {
	tmpl, ok := templates[event]
	if !ok {
		return Message{}, fmt.Errorf("template not found for event: %s", event)
	}
	return Message{
		Event:   event,
		Subject: renderTemplate(tmpl.subject, data),
		Body:    renderTemplate(tmpl.body, data),
	}, nil
}

// renderTemplate replaces {{key}} placeholders and drops the ones with no value.
// Only the template is scanned; substituted values are copied verbatim.
func renderTemplate(tmpl string, data map[string]interface{}) string {
	var b strings.Builder
	rest := tmpl

	for {
		start := strings.Index(rest, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(rest[start:], "}}")
		if end == -1 {
			break
		}
		end += start
		b.WriteString(rest[:start])
		b.WriteString(templateValue(data[rest[start+2:end]]))
		rest = rest[end+2:]
	}
	b.WriteString(rest)

	return b.String()
}

func templateValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case error:
		return val.Error()
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}
