// internal/workers/application/fill-form/handler.go
package fillform

import (
	"context"
	"fmt"
	"strings"

	"easyapply/internal/browser"
	"easyapply/internal/common/config"
	"easyapply/internal/common/logger"
)

const (
	TaskType = "fill-form"
)

var labelSelector = browser.CSS("label")

// MatchAnswer returns the answer of the first key, in mapping order, that is a
// case-insensitive substring of the trimmed label. A later key is never
// preferred even when it also matches.
func MatchAnswer(label string, answers config.OrderedMap) (string, bool) {
	question := strings.ToLower(strings.TrimSpace(label))
	for _, e := range answers {
		if strings.Contains(question, strings.ToLower(e.Key)) {
			return e.Value, true
		}
	}
	return "", false
}

// SelectResume returns the resume mapped to the first keyword found in the
// job title, or defaultResume when none matches.
func SelectResume(title string, mapping config.OrderedMap, defaultResume string) string {
	t := strings.ToLower(title)
	for _, e := range mapping {
		if strings.Contains(t, strings.ToLower(e.Key)) {
			return e.Value
		}
	}
	return defaultResume
}

// ApplyAnswer applies answer to a single control according to its kind.
// Text inputs and textareas are only filled when empty, radios are clicked
// when their value contains the answer, checkboxes only for "yes", and
// selects pick the option with exactly the answer as visible text.
func ApplyAnswer(ctx context.Context, el browser.Element, answer string) (Action, error) {
	switch el.Tag() {
	case KindInput:
		typ, err := el.Attribute(ctx, "type")
		if err != nil {
			return ActionSkipped, err
		}
		typ = strings.ToLower(typ)

		switch {
		case textInputTypes[typ]:
			return typeIfEmpty(ctx, el, answer)
		case typ == "radio":
			value, err := el.Attribute(ctx, "value")
			if err != nil {
				return ActionSkipped, err
			}
			if !strings.Contains(strings.ToLower(value), strings.ToLower(answer)) {
				return ActionSkipped, nil
			}
			if err := el.Click(ctx); err != nil {
				return ActionSkipped, err
			}
			return ActionClicked, nil
		case typ == "checkbox":
			if strings.ToLower(strings.TrimSpace(answer)) != affirmative {
				return ActionSkipped, nil
			}
			if err := el.Click(ctx); err != nil {
				return ActionSkipped, err
			}
			return ActionClicked, nil
		}
		return ActionSkipped, nil

	case KindSelect:
		if err := el.SelectByText(ctx, answer); err != nil {
			return ActionSkipped, err
		}
		return ActionSelected, nil

	case KindTextarea:
		return typeIfEmpty(ctx, el, answer)
	}
	return ActionSkipped, nil
}

func typeIfEmpty(ctx context.Context, el browser.Element, answer string) (Action, error) {
	current, err := el.Value(ctx)
	if err != nil {
		return ActionSkipped, err
	}
	if current != "" {
		return ActionSkipped, nil
	}
	if err := el.Type(ctx, answer); err != nil {
		return ActionSkipped, err
	}
	return ActionTyped, nil
}

type Handler struct {
	config *Config
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Resume picks the resume path for a job title.
func (h *Handler) Resume(title string) string {
	return SelectResume(title, h.config.ResumeMapping, h.config.DefaultResume)
}

// FillFields answers every labelled control on the current form step.
// A control that cannot be found or filled is skipped.
func (h *Handler) FillFields(ctx context.Context, driver browser.Driver) (*Output, error) {
	labels, err := driver.FindAll(ctx, labelSelector)
	if err != nil {
		return nil, fmt.Errorf("list labels: %w", err)
	}

	out := &Output{Labels: len(labels)}
	for _, label := range labels {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		text, err := label.Text(ctx)
		if err != nil {
			continue
		}
		forID, err := label.Attribute(ctx, "for")
		if err != nil || forID == "" {
			continue
		}
		answer, ok := MatchAnswer(text, h.config.Answers)
		if !ok || answer == "" {
			continue
		}
		out.Matched++

		el, err := driver.Find(ctx, browser.ID(forID))
		if err != nil {
			h.logger.Debug("no control for label", map[string]interface{}{
				"label": text,
				"for":   forID,
			})
			out.Failed++
			continue
		}

		action, err := ApplyAnswer(ctx, el, answer)
		if err != nil {
			h.logger.Debug("field skipped", map[string]interface{}{
				"label": text,
				"error": err.Error(),
			})
			out.Failed++
			continue
		}
		if action != ActionSkipped {
			out.Filled++
		}
	}

	h.logger.Debug("form step filled", map[string]interface{}{
		"labels":  out.Labels,
		"matched": out.Matched,
		"filled":  out.Filled,
		"failed":  out.Failed,
	})
	return out, nil
}
