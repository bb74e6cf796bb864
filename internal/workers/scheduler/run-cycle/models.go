// internal/workers/scheduler/run-cycle/models.go
package runcycle

import (
	"time"

	applyjob "easyapply/internal/workers/application/apply-job"
)

// Cycle statuses
const (
	StatusCompleted = "completed"
	StatusAborted   = "aborted" // a phase failed and was already notified
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// Summary is what one cycle did. It is also the variables of a completed cycle job.
type Summary struct {
	RunID      string            `json:"runId"`
	Status     string            `json:"status"`
	Error      string            `json:"error,omitempty"`
	StartedAt  time.Time         `json:"startedAt"`
	FinishedAt time.Time         `json:"finishedAt"`
	Keywords   []*KeywordSummary `json:"keywords"`
}

type KeywordSummary struct {
	Keyword      string `json:"keyword"`
	SearchFailed bool   `json:"searchFailed,omitempty"`
	Pages        int    `json:"pages"`
	Cards        int    `json:"cards"`
	Submitted    int    `json:"submitted"`
	DryRun       int    `json:"dryRun"`
	Skipped      int    `json:"skipped"`
	Abandoned    int    `json:"abandoned"`
	Errors       int    `json:"errors"`
}

func (k *KeywordSummary) add(out *applyjob.Output, err error) {
	if err != nil {
		k.Errors++
		return
	}
	switch out.State {
	case applyjob.StateSubmitted:
		k.Submitted++
	case applyjob.StateDryRunSkipped:
		k.DryRun++
	case applyjob.StateSkipped:
		k.Skipped++
	case applyjob.StateAbandoned:
		k.Abandoned++
	}
}

func (s *Summary) keyword(kw string) *KeywordSummary {
	k := &KeywordSummary{Keyword: kw}
	s.Keywords = append(s.Keywords, k)
	return k
}

// Totals sums every keyword.
func (s *Summary) Totals() KeywordSummary {
	var t KeywordSummary
	for _, k := range s.Keywords {
		t.Pages += k.Pages
		t.Cards += k.Cards
		t.Submitted += k.Submitted
		t.DryRun += k.DryRun
		t.Skipped += k.Skipped
		t.Abandoned += k.Abandoned
		t.Errors += k.Errors
	}
	return t
}

func (s *Summary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}
