// internal/workers/session/login-session/models.go
package loginsession

import "easyapply/internal/browser"

type Output struct {
	Attempts int    `json:"attempts"`
	URL      string `json:"url"` // landing page after login
}

var (
	UsernameField = browser.ID("username")
	PasswordField = browser.ID("password")
)

// challengeMarkers appear in the URL when the platform asks for a CAPTCHA or
// another verification step.
var challengeMarkers = []string{"checkpoint", "security verification"}
