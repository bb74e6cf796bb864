// internal/workers/application/apply-job/models.go
package applyjob

import (
	"context"

	"easyapply/internal/browser"
	fillform "easyapply/internal/workers/application/fill-form"
	sendnotification "easyapply/internal/workers/communication/send-notification"
	jobledger "easyapply/internal/workers/data-access/job-ledger"
)

// State is a node of the per-listing application flow.
type State string

const (
	StateOpened        State = "opened"
	StateFormStep      State = "form_step"
	StateReviewing     State = "reviewing"
	StateSubmitted     State = "submitted"
	StateDryRunSkipped State = "dry_run_skipped"
	StateAbandoned     State = "abandoned"
	// StateSkipped means the listing was never opened.
	StateSkipped State = "skipped"
)

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	switch s {
	case StateSubmitted, StateDryRunSkipped, StateAbandoned, StateSkipped:
		return true
	}
	return false
}

// Reasons attached to Skipped and Abandoned outcomes.
const (
	ReasonNoJobID             = "no_job_id"
	ReasonAlreadyApplied      = "already_applied"
	ReasonNotEasyApply        = "not_easy_apply"
	ReasonExternalRedirect    = "external_redirect"
	ReasonNoControl           = "no_control"
	ReasonUnrecognisedControl = "unrecognised_control"
	ReasonControlFailed       = "control_failed"
	ReasonStepBudgetExceeded  = "step_budget_exceeded"
)

// Output is the result of one listing.
type Output struct {
	JobID    string  `json:"jobId"`
	JobTitle string  `json:"jobTitle,omitempty"`
	Company  string  `json:"company,omitempty"`
	Resume   string  `json:"resume,omitempty"`
	State    State   `json:"state"`
	Reason   string  `json:"reason,omitempty"`
	Advances int     `json:"advances"`
	Trace    []State `json:"trace"`
}

func (o *Output) enter(s State) {
	o.State = s
	o.Trace = append(o.Trace, s)
}

// Ledger is the dedup state the flow consults and records into.
type Ledger interface {
	IsApplied(ctx context.Context, id string) (bool, error)
	RecordSubmission(ctx context.Context, e jobledger.Entry) error
}

type Dependencies struct {
	Form     *fillform.Handler
	Ledger   Ledger
	Notifier sendnotification.Notifier
	// Classifier reads form control labels; nil uses KeywordClassifier.
	Classifier StepClassifier
}

// Page elements of the listing detail and the application modal.
var (
	CardLink      = browser.CSS("a")
	ApplyButton   = browser.XPath("//button[contains(@class, 'jobs-apply-button')]")
	TitleField    = browser.CSS(".jobs-unified-top-card__job-title")
	CompanyField  = browser.CSS(".jobs-unified-top-card__company-name")
	ResumeInput   = browser.CSS("input[type='file']")
	FormControl   = browser.XPath("//button[@type='button']")
	DismissButton = browser.XPath("//button[@aria-label='Dismiss']")
)

const easyApplyLabel = "Easy Apply"
