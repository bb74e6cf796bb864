// internal/workers/session/login-session/handler.go
package loginsession

import (
	"context"
	"net/url"
	"strings"

	"easyapply/internal/browser"
	apperrors "easyapply/internal/common/errors"
	"easyapply/internal/common/logger"
	"easyapply/internal/common/retry"
	sendnotification "easyapply/internal/workers/communication/send-notification"
)

const (
	TaskType = "login-session"
)

type Handler struct {
	config   *Config
	notifier sendnotification.Notifier
	logger   logger.Logger
}

func NewHandler(config *Config, notifier sendnotification.Notifier, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		notifier: notifier,
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Login signs the session in. Timeouts are retried under the configured
// policy; a verification challenge stops immediately. Every outcome except
// cancellation is notified.
func (h *Handler) Login(ctx context.Context, driver browser.Driver) (*Output, error) {
	out := &Output{}

	err := retry.Do(ctx, h.config.Retry, h.logger, "login", func(ctx context.Context) error {
		out.Attempts++
		landing, err := h.attempt(ctx, driver)
		out.URL = landing
		return err
	})

	switch {
	case err == nil:
		h.logger.Info("logged in successfully", map[string]interface{}{"attempts": out.Attempts})
		h.notifier.NotifyEvent(ctx, sendnotification.EventLoginSuccess, nil)
		return out, nil

	case ctx.Err() != nil:
		return out, ctx.Err()

	case apperrors.HasCode(err, apperrors.ErrCodeChallengeDetected):
		h.logger.Error("verification challenge detected during login", map[string]interface{}{"url": out.URL})
		h.notifier.NotifyEvent(ctx, sendnotification.EventChallenge, map[string]interface{}{"url": out.URL})
		return out, err
	}

	h.logger.WithError(err).Error("max login retries reached", map[string]interface{}{"attempts": out.Attempts})
	h.notifier.NotifyEvent(ctx, sendnotification.EventLoginFailed, map[string]interface{}{
		"attempts": out.Attempts,
		"error":    err,
	})
	return out, apperrors.NewLoginFailedError(out.Attempts, err)
}

func (h *Handler) attempt(ctx context.Context, driver browser.Driver) (string, error) {
	if err := driver.Navigate(ctx, h.config.LoginURL); err != nil {
		return "", browser.Transient("open login page", err)
	}

	email, err := driver.WaitPresent(ctx, UsernameField, h.config.ElementTimeout)
	if err != nil {
		return "", browser.Transient("wait for username field", err)
	}
	if err := email.Type(ctx, h.config.Email); err != nil {
		return "", browser.Transient("type username", err)
	}

	password, err := driver.Find(ctx, PasswordField)
	if err != nil {
		return "", browser.Transient("find password field", err)
	}
	if err := password.Type(ctx, h.config.Password); err != nil {
		return "", browser.Transient("type password", err)
	}
	if err := password.Type(ctx, browser.KeyEnter); err != nil {
		return "", browser.Transient("submit login", err)
	}

	if err := retry.Sleep(ctx, h.config.SettleDelay); err != nil {
		return "", err
	}

	landing, err := driver.CurrentURL(ctx)
	if err != nil {
		return "", err
	}
	if IsChallenge(landing) {
		return landing, apperrors.NewChallengeDetectedError(landing)
	}
	return landing, nil
}

// IsChallenge reports whether rawURL is a verification page.
func IsChallenge(rawURL string) bool {
	u := strings.ToLower(rawURL)
	if dec, err := url.QueryUnescape(u); err == nil {
		u = dec
	}
	for _, m := range challengeMarkers {
		if strings.Contains(u, m) {
			return true
		}
	}
	return false
}
