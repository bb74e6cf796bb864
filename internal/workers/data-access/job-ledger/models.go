// internal/workers/data-access/job-ledger/models.go
package jobledger

import "time"

// TimeLayout is the date_applied format of the CSV ledger.
const TimeLayout = "2006-01-02 15:04:05"

// Header is the CSV ledger column order.
var Header = []string{"job_id", "job_title", "company", "date_applied"}

// Entry is one submitted application. JobID is the dedup key.
type Entry struct {
	JobID       string    `json:"job_id"`
	JobTitle    string    `json:"job_title"`
	Company     string    `json:"company"`
	DateApplied time.Time `json:"date_applied"`
}

func (e Entry) record() []string {
	return []string{e.JobID, e.JobTitle, e.Company, e.DateApplied.Format(TimeLayout)}
}

// Sink statuses for metrics.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)
