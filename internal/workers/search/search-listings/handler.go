// internal/workers/search/search-listings/handler.go
package searchlistings

import (
	"context"

	"easyapply/internal/browser"
	apperrors "easyapply/internal/common/errors"
	"easyapply/internal/common/logger"
	"easyapply/internal/common/retry"
	sendnotification "easyapply/internal/workers/communication/send-notification"
)

const (
	TaskType = "search-listings"
)

// VisitFunc is called for each job card in page order. Returning false stops
// the walk for the current keyword.
type VisitFunc func(ctx context.Context, card browser.Element) bool

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

// ApplyFilters opens the jobs page and restricts results by posting date.
// Exhaustion is notified and returned as a filter failure.
func (h *Handler) ApplyFilters(ctx context.Context, driver browser.Driver) error {
	err := retry.Do(ctx, h.config.Retry, h.logger, "filters", func(ctx context.Context) error {
		return h.applyFilters(ctx, driver)
	})
	if err == nil {
		h.logger.Info("filters set", map[string]interface{}{"dateFilter": h.config.DateFilter})
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	h.logger.WithError(err).Error("max filter retries reached", nil)
	h.notifier.NotifyEvent(ctx, sendnotification.EventFilterError, map[string]interface{}{"error": err})
	return apperrors.NewFilterFailedError(err)
}

func (h *Handler) applyFilters(ctx context.Context, driver browser.Driver) error {
	if err := driver.Navigate(ctx, h.config.JobsURL); err != nil {
		return browser.Transient("open jobs page", err)
	}
	if err := retry.Sleep(ctx, h.config.SettleDelay); err != nil {
		return err
	}

	for _, step := range []struct {
		name string
		sel  browser.Selector
	}{
		{"open date filter", DatePostedButton},
		{"choose date range", DateOption(h.config.DateFilter)},
		{"show results", ShowResults},
	} {
		if err := h.click(ctx, driver, step.name, step.sel); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) click(ctx context.Context, driver browser.Driver, name string, sel browser.Selector) error {
	el, err := driver.WaitVisible(ctx, sel, h.config.ElementTimeout)
	if err != nil {
		return browser.Transient(name, err)
	}
	if err := el.Click(ctx); err != nil {
		return browser.Transient(name, err)
	}
	return retry.Sleep(ctx, h.config.SettleDelay)
}

// Search types keyword into the search box. Exhaustion is notified and
// returned as a search failure; the caller skips the keyword.
func (h *Handler) Search(ctx context.Context, driver browser.Driver, keyword string) error {
	err := retry.Do(ctx, h.config.Retry, h.logger, "search", func(ctx context.Context) error {
		return h.search(ctx, driver, keyword)
	})
	if err == nil {
		h.logger.Info("searched for jobs", map[string]interface{}{"keyword": keyword})
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	h.logger.WithError(err).Warn("max search retries reached", map[string]interface{}{"keyword": keyword})
	h.notifier.NotifyEvent(ctx, sendnotification.EventSearchError, map[string]interface{}{
		"keyword": keyword,
		"error":   err,
	})
	return apperrors.NewSearchFailedError(keyword, err)
}

func (h *Handler) search(ctx context.Context, driver browser.Driver, keyword string) error {
	box, err := driver.WaitPresent(ctx, SearchBox, h.config.ElementTimeout)
	if err != nil {
		return browser.Transient("wait for search box", err)
	}
	if err := box.Clear(ctx); err != nil {
		return browser.Transient("clear search box", err)
	}
	if err := box.Type(ctx, keyword); err != nil {
		return browser.Transient("type keyword", err)
	}
	if err := box.Type(ctx, browser.KeyEnter); err != nil {
		return browser.Transient("submit search", err)
	}
	return retry.Sleep(ctx, h.config.PageLoadDelay)
}

// Paginate walks up to MaxPages result pages and hands every card to visit.
// The walk ends early when cards fail to load or the next page control does
// not become visible; neither is an error.
func (h *Handler) Paginate(ctx context.Context, driver browser.Driver, keyword string, visit VisitFunc) (*Output, error) {
	out := &Output{Keyword: keyword}
	log := h.logger.WithFields(map[string]interface{}{"keyword": keyword})

	for page := 1; page <= h.config.MaxPages; page++ {
		cards, err := driver.WaitAll(ctx, JobCards, h.config.ElementTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			log.Warn("failed to load job cards", map[string]interface{}{"page": page, "error": err.Error()})
			return out, nil
		}
		out.Pages = page

		for _, card := range cards {
			if err := ctx.Err(); err != nil {
				return out, err
			}
			out.Cards++
			if !visit(ctx, card) {
				out.Stopped = true
				return out, nil
			}
		}

		if page == h.config.MaxPages {
			break
		}

		next, err := driver.WaitVisible(ctx, PageButton(page+1), h.config.ElementTimeout)
		if err == nil {
			err = next.Click(ctx)
		}
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			if browser.IsTimeoutClass(err) {
				log.Info("no more pages", map[string]interface{}{"page": page})
			} else {
				log.Warn("next page control failed", map[string]interface{}{"page": page + 1, "error": err.Error()})
			}
			return out, nil
		}
		if err := retry.Sleep(ctx, h.config.PageLoadDelay); err != nil {
			return out, err
		}
	}
	return out, nil
}
