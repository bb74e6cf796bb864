// Package browser is the narrow driver surface the automation needs: element
// lookup, click, type, navigation and window handling.
package browser

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	apperrors "easyapply/internal/common/errors"
)

var (
	// ErrTimeout is returned when an element condition was not met in time.
	ErrTimeout = errors.New("timed out waiting for element")

	// ErrElementNotFound is returned by lookups that do not wait.
	ErrElementNotFound = errors.New("element not found")

	// ErrOptionNotFound is returned by SelectByText when no option has the exact text.
	ErrOptionNotFound = errors.New("no option with matching text")
)

// KeyEnter submits the focused input when sent through Type.
const KeyEnter = "\r"

type By int

const (
	ByCSS By = iota
	ByXPath
	ByID
)

// Selector locates elements.
type Selector struct {
	By    By
	Value string
}

func CSS(v string) Selector   { return Selector{By: ByCSS, Value: v} }
func XPath(v string) Selector { return Selector{By: ByXPath, Value: v} }
func ID(v string) Selector    { return Selector{By: ByID, Value: v} }

func (s Selector) String() string {
	switch s.By {
	case ByXPath:
		return "xpath=" + s.Value
	case ByID:
		return "id=" + s.Value
	default:
		return "css=" + s.Value
	}
}

// Driver is a single browser session. Only one window is current at a time.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	CurrentURL(ctx context.Context) (string, error)

	// WaitVisible waits until the first match is visible.
	WaitVisible(ctx context.Context, sel Selector, timeout time.Duration) (Element, error)
	// WaitPresent waits until the first match is attached to the DOM.
	WaitPresent(ctx context.Context, sel Selector, timeout time.Duration) (Element, error)
	// WaitAll waits until at least one element matches and returns all matches.
	WaitAll(ctx context.Context, sel Selector, timeout time.Duration) ([]Element, error)

	Find(ctx context.Context, sel Selector) (Element, error)
	FindAll(ctx context.Context, sel Selector) ([]Element, error)

	// Windows lists open window handles.
	Windows(ctx context.Context) ([]string, error)
	CurrentWindow() string
	SwitchTo(ctx context.Context, handle string) error
	CloseWindow(ctx context.Context, handle string) error

	Quit() error
}

// Element is a DOM node in the current window.
type Element interface {
	Tag() string
	Text(ctx context.Context) (string, error)
	Attribute(ctx context.Context, name string) (string, error)
	Value(ctx context.Context) (string, error)

	Click(ctx context.Context) error
	// Type sends keystrokes; KeyEnter presses return.
	Type(ctx context.Context, text string) error
	Clear(ctx context.Context) error

	Find(ctx context.Context, sel Selector) (Element, error)
	FindAll(ctx context.Context, sel Selector) ([]Element, error)

	// SelectByText picks the <option> whose visible text equals text.
	SelectByText(ctx context.Context, text string) error
	// UploadFile sets the file of an <input type="file">.
	UploadFile(ctx context.Context, path string) error
}

// IsTimeoutClass reports whether err is a wait timeout or missing element.
func IsTimeoutClass(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrElementNotFound)
}

// Transient wraps timeout-class failures as retryable UI errors and passes others through.
func Transient(operation string, err error) error {
	if err == nil {
		return nil
	}
	if IsTimeoutClass(err) {
		return apperrors.NewTransientUIError(operation, err)
	}
	return err
}

// OnDomain reports whether rawURL belongs to domain or one of its subdomains.
func OnDomain(rawURL, domain string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	domain = strings.ToLower(strings.TrimPrefix(domain, "."))
	return host == domain || strings.HasSuffix(host, "."+domain)
}
