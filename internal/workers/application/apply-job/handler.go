// internal/workers/application/apply-job/handler.go
package applyjob

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"easyapply/internal/browser"
	apperrors "easyapply/internal/common/errors"
	"easyapply/internal/common/logger"
	"easyapply/internal/common/metrics"
	"easyapply/internal/common/retry"
	fillform "easyapply/internal/workers/application/fill-form"
	sendnotification "easyapply/internal/workers/communication/send-notification"
	jobledger "easyapply/internal/workers/data-access/job-ledger"

	"golang.org/x/time/rate"
)

const (
	TaskType = "apply-job"
)

type Handler struct {
	config     *Config
	form       *fillform.Handler
	ledger     Ledger
	notifier   sendnotification.Notifier
	classifier StepClassifier
	limiter    *rate.Limiter
	logger     logger.Logger
}

func NewHandler(config *Config, deps Dependencies, log logger.Logger) *Handler {
	classifier := deps.Classifier
	if classifier == nil {
		classifier = KeywordClassifier{}
	}

	var limiter *rate.Limiter
	if config.MinInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(config.MinInterval), 1)
	}

	return &Handler{
		config:     config,
		form:       deps.Form,
		ledger:     deps.Ledger,
		notifier:   deps.Notifier,
		classifier: classifier,
		limiter:    limiter,
		logger:     log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// JobIDFromURL extracts the listing ID from a ".../view/<id>/..." link.
func JobIDFromURL(href string) (string, bool) {
	const marker = "/view/"
	i := strings.Index(href, marker)
	if i < 0 {
		return "", false
	}
	id := href[i+len(marker):]
	if j := strings.IndexAny(id, "/?#"); j >= 0 {
		id = id[:j]
	}
	return id, id != ""
}

// ApplyToJob runs the application flow for one result card.
//
// A listing already in the ledger is skipped before anything is clicked.
// Ledger, applied set and the submission notification are only touched when
// the flow reaches Submitted. Abandoning is not an error; errors mean the
// listing could not be driven and are left to the caller to report.
func (h *Handler) ApplyToJob(ctx context.Context, driver browser.Driver, card browser.Element) (*Output, error) {
	out := &Output{}
	defer func() {
		state := string(out.State)
		if !out.State.Terminal() {
			state = "error"
		}
		metrics.ListingsProcessed.WithLabelValues(state).Inc()
	}()

	id, ok := h.jobID(ctx, card)
	if !ok {
		h.skip(out, ReasonNoJobID)
		return out, nil
	}
	out.JobID = id
	log := h.logger.WithFields(map[string]interface{}{"jobId": id})

	applied, err := h.ledger.IsApplied(ctx, id)
	if err != nil {
		return out, err
	}
	if applied {
		log.Info("skipped already applied job", nil)
		h.skip(out, ReasonAlreadyApplied)
		return out, nil
	}

	if h.limiter != nil {
		if err := h.limiter.Wait(ctx); err != nil {
			return out, err
		}
	}

	if err := card.Click(ctx); err != nil {
		return out, browser.Transient("open job card", err)
	}
	if err := retry.Sleep(ctx, h.config.SettleDelay); err != nil {
		return out, err
	}
	out.enter(StateOpened)

	apply, err := driver.WaitVisible(ctx, ApplyButton, h.config.ElementTimeout)
	if err != nil {
		return out, browser.Transient("wait for apply button", err)
	}
	label, err := apply.Text(ctx)
	if err != nil {
		return out, browser.Transient("read apply button", err)
	}
	if !strings.Contains(label, easyApplyLabel) {
		log.Info("not an easy apply listing", map[string]interface{}{"button": label})
		h.abandon(out, ReasonNotEasyApply)
		return out, nil
	}

	redirected, err := h.clickApply(ctx, driver, apply, log)
	if err != nil {
		return out, err
	}
	if redirected {
		h.abandon(out, ReasonExternalRedirect)
		return out, nil
	}

	// the modal is open from here on
	defer h.dismiss(ctx, driver, log)

	if err := h.prepare(ctx, driver, out); err != nil {
		return out, err
	}
	log = log.WithFields(map[string]interface{}{"title": out.JobTitle, "company": out.Company})

	submit, err := h.walkSteps(ctx, driver, out, log)
	if err != nil || submit == nil {
		return out, err
	}

	if h.config.DryRun {
		log.Info("dry run: would submit application", nil)
		out.enter(StateDryRunSkipped)
		return out, nil
	}

	if err := submit.Click(ctx); err != nil {
		return out, browser.Transient("click submit", err)
	}
	out.enter(StateSubmitted)

	if err := h.ledger.RecordSubmission(ctx, jobledger.Entry{
		JobID:    out.JobID,
		JobTitle: out.JobTitle,
		Company:  out.Company,
	}); err != nil {
		return out, err
	}

	log.Info("submitted application", map[string]interface{}{"advances": out.Advances})
	h.notifier.NotifyEvent(ctx, sendnotification.EventSubmitted, map[string]interface{}{
		"jobTitle": out.JobTitle,
		"company":  out.Company,
		"jobId":    out.JobID,
	})
	return out, nil
}

func (h *Handler) jobID(ctx context.Context, card browser.Element) (string, bool) {
	link, err := card.Find(ctx, CardLink)
	if err != nil {
		return "", false
	}
	href, err := link.Attribute(ctx, "href")
	if err != nil {
		return "", false
	}
	return JobIDFromURL(href)
}

// clickApply presses the apply button and reports whether it opened a window
// outside the platform. That window is closed and focus returns to the origin.
func (h *Handler) clickApply(ctx context.Context, driver browser.Driver, apply browser.Element, log logger.Logger) (bool, error) {
	origin := driver.CurrentWindow()
	before, err := driver.Windows(ctx)
	if err != nil {
		return false, err
	}

	if err := apply.Click(ctx); err != nil {
		return false, browser.Transient("click apply", err)
	}
	if err := retry.Sleep(ctx, h.config.SettleDelay); err != nil {
		return false, err
	}

	after, err := driver.Windows(ctx)
	if err != nil {
		return false, err
	}
	opened := newWindows(before, after)
	if len(opened) == 0 {
		return false, nil
	}

	popup := opened[0]
	if err := driver.SwitchTo(ctx, popup); err != nil {
		return false, err
	}
	url, err := driver.CurrentURL(ctx)
	if err != nil {
		return false, err
	}

	if browser.OnDomain(url, h.config.Domain) {
		return false, driver.SwitchTo(ctx, origin)
	}

	log.WithError(apperrors.NewExternalRedirectError(url)).Info("skipped job due to external redirect", nil)
	if err := driver.CloseWindow(ctx, popup); err != nil {
		log.Debug("closing external window failed", map[string]interface{}{"error": err.Error()})
	}
	return true, driver.SwitchTo(ctx, origin)
}

func newWindows(before, after []string) []string {
	seen := make(map[string]bool, len(before))
	for _, w := range before {
		seen[w] = true
	}
	var opened []string
	for _, w := range after {
		if !seen[w] {
			opened = append(opened, w)
		}
	}
	return opened
}

// prepare reads the top card and uploads the matching resume.
func (h *Handler) prepare(ctx context.Context, driver browser.Driver, out *Output) error {
	var err error
	if out.JobTitle, err = textOf(ctx, driver, TitleField); err != nil {
		return browser.Transient("read job title", err)
	}
	if out.Company, err = textOf(ctx, driver, CompanyField); err != nil {
		return browser.Transient("read company", err)
	}

	resume := h.form.Resume(out.JobTitle)
	if abs, err := filepath.Abs(resume); err == nil {
		resume = abs
	}
	out.Resume = resume

	input, err := driver.WaitPresent(ctx, ResumeInput, h.config.ElementTimeout)
	if err != nil {
		return browser.Transient("wait for resume input", err)
	}
	if err := input.UploadFile(ctx, resume); err != nil {
		return fmt.Errorf("upload resume %s: %w", resume, err)
	}
	return retry.Sleep(ctx, h.config.SettleDelay)
}

func textOf(ctx context.Context, driver browser.Driver, sel browser.Selector) (string, error) {
	el, err := driver.Find(ctx, sel)
	if err != nil {
		return "", err
	}
	return el.Text(ctx)
}

// walkSteps fills each form step and follows the form control until it
// reads as submit. It returns the submit control, or nil when the flow was
// abandoned. Submitting does not count against the step budget.
func (h *Handler) walkSteps(ctx context.Context, driver browser.Driver, out *Output, log logger.Logger) (browser.Element, error) {
	defer func() { metrics.ApplicationSteps.Observe(float64(out.Advances)) }()

	out.enter(StateFormStep)
	for {
		if _, err := h.form.FillFields(ctx, driver); err != nil {
			return nil, err
		}

		control, err := driver.WaitVisible(ctx, FormControl, h.config.ElementTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Info("no form control found", map[string]interface{}{"advances": out.Advances})
			h.abandon(out, ReasonNoControl)
			return nil, nil
		}
		label, err := control.Text(ctx)
		if err != nil {
			return nil, browser.Transient("read form control", err)
		}

		transition := h.classifier.Classify(label)
		if transition == TransitionSubmit {
			return control, nil
		}
		if transition == TransitionUnknown {
			log.Info("unrecognised form control", map[string]interface{}{"button": label})
			h.abandon(out, ReasonUnrecognisedControl)
			return nil, nil
		}

		if out.Advances >= h.config.MaxSteps {
			log.WithError(apperrors.NewStepBudgetExceededError(out.Advances+1)).Info("application abandoned", nil)
			h.abandon(out, ReasonStepBudgetExceeded)
			return nil, nil
		}

		if err := control.Click(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Warn("form control click failed", map[string]interface{}{"button": label, "error": err.Error()})
			h.abandon(out, ReasonControlFailed)
			return nil, nil
		}
		out.Advances++
		if transition == TransitionReview {
			out.enter(StateReviewing)
		} else {
			out.enter(StateFormStep)
		}

		if err := retry.Sleep(ctx, h.config.SettleDelay); err != nil {
			return nil, err
		}
	}
}

// dismiss closes the application modal. It is best-effort: every failure is
// logged at debug and dropped.
func (h *Handler) dismiss(ctx context.Context, driver browser.Driver, log logger.Logger) {
	if ctx.Err() != nil {
		return
	}
	timeout := h.config.DismissTimeout
	if timeout <= 0 {
		timeout = h.config.ElementTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	btn, err := driver.WaitVisible(ctx, DismissButton, timeout)
	if err == nil {
		err = btn.Click(ctx)
	}
	if err == nil {
		err = retry.Sleep(ctx, h.config.SettleDelay)
	}
	if err != nil {
		log.Debug("dismiss failed", map[string]interface{}{"error": err.Error()})
	}
}

func (h *Handler) skip(out *Output, reason string) {
	out.Reason = reason
	out.enter(StateSkipped)
}

func (h *Handler) abandon(out *Output, reason string) {
	out.Reason = reason
	out.enter(StateAbandoned)
}
