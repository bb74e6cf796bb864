// internal/workers/data-access/job-ledger/csv.go
package jobledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// CSVLedger appends entries to the primary CSV file and to every mirror.
type CSVLedger struct {
	path    string
	mirrors []string
}

func NewCSVLedger(path string, mirrors ...string) *CSVLedger {
	var m []string
	for _, p := range mirrors {
		if p != "" && filepath.Clean(p) != filepath.Clean(path) {
			m = append(m, p)
		}
	}
	return &CSVLedger{path: path, mirrors: m}
}

func (l *CSVLedger) Path() string {
	return l.path
}

// Append writes e to the primary ledger file.
func (l *CSVLedger) Append(e Entry) error {
	return appendRecord(l.path, e.record())
}

// AppendMirrors writes e to every mirror file, joining their failures.
func (l *CSVLedger) AppendMirrors(e Entry) error {
	var errs []error
	for _, m := range l.mirrors {
		if err := appendRecord(m, e.record()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func appendRecord(path string, record []string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create ledger dir: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat ledger %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(Header); err != nil {
			return fmt.Errorf("write ledger header %s: %w", path, err)
		}
	}
	if err := w.Write(record); err != nil {
		return fmt.Errorf("write ledger %s: %w", path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush ledger %s: %w", path, err)
	}
	return nil
}

// ReadAll parses a ledger file. A missing file is an empty ledger.
// Rows with an unparseable date keep a zero DateApplied.
func ReadAll(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open ledger %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var entries []Entry
	for line := 0; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return entries, fmt.Errorf("read ledger %s: %w", path, err)
		}
		if line == 0 && len(rec) > 0 && rec[0] == Header[0] {
			continue
		}
		if len(rec) == 0 || rec[0] == "" {
			continue
		}

		e := Entry{JobID: rec[0]}
		if len(rec) > 1 {
			e.JobTitle = rec[1]
		}
		if len(rec) > 2 {
			e.Company = rec[2]
		}
		if len(rec) > 3 {
			if t, err := time.ParseInLocation(TimeLayout, rec[3], time.Local); err == nil {
				e.DateApplied = t
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}
