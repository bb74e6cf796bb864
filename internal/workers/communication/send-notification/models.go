// internal/workers/communication/send-notification/models.go
package sendnotification

// Event names an operator notification with a fixed template.
type Event string

const (
	EventLoginSuccess   Event = "login_success"
	EventLoginFailed    Event = "login_failed"
	EventChallenge      Event = "challenge_detected"
	EventFilterError    Event = "filter_error"
	EventSearchError    Event = "search_error"
	EventListingError   Event = "listing_error"
	EventSubmitted      Event = "application_submitted"
	EventCycleError     Event = "cycle_error"
	EventDashboardError Event = "dashboard_error"
)

type Output struct {
	NotificationID string   `json:"notificationId"`
	Status         string   `json:"status"` // "sent", "failed", "disabled"
	SentAt         string   `json:"sentAt"` // ISO 8601
	Channels       []string `json:"channels,omitempty"`
}

// Statuses
const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)

// Message is one rendered notification.
type Message struct {
	Event   Event
	Subject string
	Body    string
}

type template struct {
	subject string
	body    string
}

var templates = map[Event]template{
	EventLoginSuccess: {
		subject: "Login Successful",
		body:    "Successfully logged into LinkedIn.",
	},
	EventLoginFailed: {
		subject: "Login Failed",
		body:    "Failed to login after {{attempts}} attempts: {{error}}",
	},
	EventChallenge: {
		subject: "CAPTCHA Detected",
		body:    "CAPTCHA encountered during login at {{url}}. Please complete it manually and restart.",
	},
	EventFilterError: {
		subject: "Filter Error",
		body:    "Failed to set filters: {{error}}",
	},
	EventSearchError: {
		subject: "Search Error",
		body:    "Failed to search for '{{keyword}}': {{error}}",
	},
	EventListingError: {
		subject: "Error",
		body:    "Error applying to job {{jobId}}: {{error}}",
	},
	EventSubmitted: {
		subject: "Job Application Submitted",
		body:    "Applied to job: {{jobTitle}} at {{company}} (ID: {{jobId}})",
	},
	EventCycleError: {
		subject: "Cycle Error",
		body:    "Error in job search cycle: {{error}}",
	},
	EventDashboardError: {
		subject: "Dashboard Error",
		body:    "Failed to start dashboard: {{error}}",
	},
}
