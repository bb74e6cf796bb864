// internal/workers/scheduler/run-cycle/cycle.go
package runcycle

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"easyapply/internal/browser"
	"easyapply/internal/common/config"
	apperrors "easyapply/internal/common/errors"
	"easyapply/internal/common/logger"
	"easyapply/internal/common/metrics"
	"easyapply/internal/common/observability"
	"easyapply/internal/common/retry"
	applyjob "easyapply/internal/workers/application/apply-job"
	fillform "easyapply/internal/workers/application/fill-form"
	sendnotification "easyapply/internal/workers/communication/send-notification"
	searchlistings "easyapply/internal/workers/search/search-listings"
	loginsession "easyapply/internal/workers/session/login-session"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// Ledger is the applied-job state shared by every cycle of the process.
type Ledger interface {
	applyjob.Ledger
	Flush(ctx context.Context) error
}

type DriverFactory func(ctx context.Context, cfg config.BrowserConfig, log logger.Logger) (browser.Driver, error)

type NotifierFactory func(ctx context.Context, cfg *config.Config, log logger.Logger) sendnotification.Notifier

type Dependencies struct {
	// LoadConfig is called at the start of every cycle.
	LoadConfig    func() (*config.Config, error)
	Ledger        Ledger
	NewDriver     DriverFactory
	NewNotifier   NotifierFactory
	Observability *observability.Observability
}

// Runner runs job search cycles, one at a time.
type Runner struct {
	deps     Dependencies
	fallback sendnotification.Notifier
	logger   logger.Logger
	mu       sync.Mutex
}

func NewRunner(deps Dependencies, log logger.Logger) *Runner {
	if deps.NewDriver == nil {
		deps.NewDriver = ChromeDriver
	}
	if deps.NewNotifier == nil {
		deps.NewNotifier = DefaultNotifier
	}
	return &Runner{
		deps: deps,
		fallback: sendnotification.NewHandlerWithChannels(&sendnotification.Config{
			SubjectPrefix: "LinkedIn Automation: ",
		}, log),
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// ChromeDriver starts a chromedp session.
func ChromeDriver(ctx context.Context, cfg config.BrowserConfig, log logger.Logger) (browser.Driver, error) {
	return browser.NewChromeDriver(ctx, cfg, log)
}

// DefaultNotifier builds the configured channels, falling back to log-only
// delivery when they cannot be set up.
func DefaultNotifier(ctx context.Context, cfg *config.Config, log logger.Logger) sendnotification.Notifier {
	ncfg := sendnotification.LoadConfig(cfg)
	h, err := sendnotification.NewHandler(ctx, ncfg, log)
	if err != nil {
		log.Warn("notification channels unavailable, logging only", map[string]interface{}{"error": err.Error()})
		return sendnotification.NewHandlerWithChannels(ncfg, log)
	}
	return h
}

// RunCycle logs in, applies the date filter and works through every keyword.
//
// The applied set is flushed and the browser closed on every path. A panic or
// unexpected error ends the cycle as failed and is notified as a cycle error;
// login, challenge and filter failures were notified where they happened and
// end the cycle as aborted. The returned error is for the caller to log; the
// process is expected to keep scheduling cycles.
func (r *Runner) RunCycle(ctx context.Context) (summary *Summary, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	summary = &Summary{RunID: uuid.New().String(), StartedAt: time.Now().UTC()}
	log := r.logger.WithFields(map[string]interface{}{"runId": summary.RunID})
	notifier := r.fallback

	metrics.CycleActive.Set(1)
	defer metrics.CycleActive.Set(0)

	ctx, span := r.deps.Observability.StartSpan(ctx, "job-search-cycle", attribute.String("run.id", summary.RunID))

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("panic in job search cycle", map[string]interface{}{
				"panic": fmt.Sprint(rec),
				"stack": string(debug.Stack()),
			})
			err = apperrors.NewUnhandledExceptionError(fmt.Errorf("panic: %v", rec))
		}
		err = r.finish(ctx, summary, err)
		if summary.Status == StatusFailed {
			notifier.NotifyEvent(context.WithoutCancel(ctx), sendnotification.EventCycleError, map[string]interface{}{"error": err})
		}
		r.deps.Observability.RecordCycle(context.WithoutCancel(ctx), summary.Status, summary.Duration())
		span.SetAttributes(attribute.String("cycle.status", summary.Status))
		observability.EndSpan(span, err)

		t := summary.Totals()
		log.Info("job search cycle completed", map[string]interface{}{
			"status":    summary.Status,
			"duration":  summary.Duration().String(),
			"submitted": t.Submitted,
			"dryRun":    t.DryRun,
			"skipped":   t.Skipped,
			"abandoned": t.Abandoned,
			"errors":    t.Errors,
		})
	}()

	cfg, err := r.deps.LoadConfig()
	if err != nil {
		return summary, fmt.Errorf("load config: %w", err)
	}
	notifier = r.deps.NewNotifier(ctx, cfg, r.logger)
	rc := LoadConfig(cfg)

	driver, err := r.deps.NewDriver(ctx, cfg.Browser, r.logger)
	if err != nil {
		return summary, err
	}
	defer func() {
		if ferr := r.deps.Ledger.Flush(context.WithoutCancel(ctx)); ferr != nil {
			log.WithError(ferr).Error("failed to persist applied jobs", nil)
			if err == nil {
				err = ferr
			}
		}
		_ = retry.Sleep(ctx, rc.QuitDelay)
		if qerr := driver.Quit(); qerr != nil {
			log.Warn("browser quit failed", map[string]interface{}{"error": qerr.Error()})
		}
	}()

	return summary, r.search(ctx, cfg, driver, notifier, summary, log)
}

func (r *Runner) search(ctx context.Context, cfg *config.Config, driver browser.Driver, notifier sendnotification.Notifier, summary *Summary, log logger.Logger) error {
	if err := cfg.RequireCredentials(); err != nil {
		return err
	}

	login := loginsession.NewHandler(loginsession.LoadConfig(cfg), notifier, log)
	if _, err := login.Login(ctx, driver); err != nil {
		log.Error("job search cycle aborted due to login failure", nil)
		return err
	}

	search := searchlistings.NewHandler(searchlistings.LoadConfig(cfg), notifier, log)
	if err := search.ApplyFilters(ctx, driver); err != nil {
		log.Error("job search cycle aborted due to filter failure", nil)
		return err
	}

	apply := applyjob.NewHandler(applyjob.LoadConfig(cfg), applyjob.Dependencies{
		Form:     fillform.NewHandler(fillform.LoadConfig(cfg), log),
		Ledger:   r.deps.Ledger,
		Notifier: notifier,
	}, log)

	for _, kw := range cfg.JobKeywords {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.keyword(ctx, driver, search, apply, notifier, summary.keyword(kw), cfg.MaxApplications, log); err != nil {
			return err
		}
	}
	return nil
}

// keyword searches kw and applies to its listings until maxApplications cards
// have been visited, whatever their outcome.
func (r *Runner) keyword(ctx context.Context, driver browser.Driver, search *searchlistings.Handler, apply *applyjob.Handler, notifier sendnotification.Notifier, ks *KeywordSummary, maxApplications int, log logger.Logger) (err error) {
	kw := ks.Keyword
	klog := log.WithFields(map[string]interface{}{"keyword": kw})

	ctx, span := r.deps.Observability.StartSpan(ctx, "keyword", attribute.String("keyword", kw))
	defer func() {
		span.SetAttributes(
			attribute.Int("listings.submitted", ks.Submitted),
			attribute.Int("listings.errors", ks.Errors),
		)
		observability.EndSpan(span, err)
	}()

	if err := search.Search(ctx, driver, kw); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		ks.SearchFailed = true
		klog.Warn("skipping keyword due to search failure", nil)
		return nil
	}

	visited := 0
	out, err := search.Paginate(ctx, driver, kw, func(ctx context.Context, card browser.Element) bool {
		res, err := apply.ApplyToJob(ctx, driver, card)
		ks.add(res, err)
		visited++
		if err != nil {
			if ctx.Err() != nil {
				return false
			}
			klog.WithError(err).Error("error applying to job", map[string]interface{}{"jobId": res.JobID})
			notifier.NotifyEvent(ctx, sendnotification.EventListingError, map[string]interface{}{
				"jobId": res.JobID,
				"error": err,
			})
		}
		return visited < maxApplications
	})
	ks.Pages, ks.Cards = out.Pages, out.Cards
	r.deps.Observability.RecordSubmitted(ctx, kw, ks.Submitted)
	if err != nil {
		return err
	}
	klog.Info("keyword done", map[string]interface{}{
		"pages":     ks.Pages,
		"submitted": ks.Submitted,
		"dryRun":    ks.DryRun,
	})
	return nil
}

// finish sets the summary status for err and returns the error to report.
// Errors without a code are wrapped as unhandled exceptions.
func (r *Runner) finish(ctx context.Context, summary *Summary, err error) error {
	summary.FinishedAt = time.Now().UTC()

	switch {
	case err == nil:
		summary.Status = StatusCompleted
		return nil
	case ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
		summary.Status = StatusCancelled
	case apperrors.HasCode(err, apperrors.ErrCodeLoginFailed),
		apperrors.HasCode(err, apperrors.ErrCodeChallengeDetected),
		apperrors.HasCode(err, apperrors.ErrCodeFilterFailed):
		summary.Status = StatusAborted
	default:
		summary.Status = StatusFailed
		if _, ok := apperrors.AsStandardError(err); !ok {
			err = apperrors.NewUnhandledExceptionError(err)
		}
	}
	summary.Error = err.Error()
	return err
}
