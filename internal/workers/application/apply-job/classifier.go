// internal/workers/application/apply-job/classifier.go
package applyjob

import "strings"

// Transition is what a form control button does to the flow.
type Transition int

const (
	TransitionUnknown Transition = iota
	TransitionAdvance
	TransitionReview
	TransitionSubmit
)

func (t Transition) String() string {
	switch t {
	case TransitionAdvance:
		return "advance"
	case TransitionReview:
		return "review"
	case TransitionSubmit:
		return "submit"
	default:
		return "unknown"
	}
}

// StepClassifier maps the label of the current form control to a transition.
type StepClassifier interface {
	Classify(label string) Transition
}

// ClassifierFunc adapts a function to StepClassifier.
type ClassifierFunc func(label string) Transition

func (f ClassifierFunc) Classify(label string) Transition {
	return f(label)
}

// KeywordClassifier matches English button text. Checks run in order, so
// "Continue to review" advances rather than reviews.
type KeywordClassifier struct{}

func (KeywordClassifier) Classify(label string) Transition {
	l := strings.ToLower(label)
	switch {
	case strings.Contains(l, "next"), strings.Contains(l, "continue"):
		return TransitionAdvance
	case strings.Contains(l, "review"):
		return TransitionReview
	case strings.Contains(l, "submit"):
		return TransitionSubmit
	}
	return TransitionUnknown
}
