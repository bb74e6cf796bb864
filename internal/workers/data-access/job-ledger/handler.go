// internal/workers/data-access/job-ledger/handler.go
package jobledger

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"easyapply/internal/common/config"
	apperrors "easyapply/internal/common/errors"
	"easyapply/internal/common/logger"
	"easyapply/internal/common/metrics"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "job-ledger"
)

var ErrNoRedisClient = errors.New("applied set mode is redis but no redis client was given")

// Backends are the optional stores the tracker can use. Nil fields are disabled.
type Backends struct {
	Redis         *redis.Client
	DB            *sql.DB
	Elasticsearch *elasticsearch.Client
}

// Tracker is the dedup state and the append-only record of submissions.
// It is owned by the cycle goroutine and is not safe for concurrent use.
type Tracker struct {
	config *Config
	set    AppliedSet
	ledger *CSVLedger
	sinks  []Sink
	logger logger.Logger
}

func NewTracker(config *Config, set AppliedSet, ledger *CSVLedger, log logger.Logger, sinks ...Sink) *Tracker {
	return &Tracker{
		config: config,
		set:    set,
		ledger: ledger,
		sinks:  sinks,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Open builds the tracker for cfg and reconciles the applied set with the CSV ledger.
func Open(ctx context.Context, cfg *Config, b Backends, log logger.Logger) (*Tracker, error) {
	var set AppliedSet
	switch cfg.AppliedSetMode {
	case config.AppliedSetRedis:
		if b.Redis == nil {
			return nil, apperrors.NewAppliedSetFailedError("open", ErrNoRedisClient)
		}
		set = NewRedisSet(b.Redis, cfg.RedisKey)
	default:
		fs, err := LoadFileSet(cfg.AppliedJobsFile)
		if err != nil {
			return nil, err
		}
		set = fs
	}

	var sinks []Sink
	if b.DB != nil {
		ps := NewPostgresSink(b.DB, cfg.PostgresTable)
		if err := ps.EnsureSchema(ctx); err != nil {
			log.Warn("postgres ledger table not ready", map[string]interface{}{"error": err.Error()})
		}
		sinks = append(sinks, ps)
	}
	if b.Elasticsearch != nil {
		sinks = append(sinks, NewElasticsearchSink(b.Elasticsearch, cfg.ESIndex))
	}

	t := NewTracker(cfg, set, NewCSVLedger(cfg.CSVFile, cfg.MirrorFiles...), log, sinks...)
	if _, err := t.Reconcile(ctx); err != nil {
		t.logger.Warn("applied set reconcile failed", map[string]interface{}{"error": err.Error()})
	}
	return t, nil
}

// IsApplied reports whether id was already submitted.
func (t *Tracker) IsApplied(ctx context.Context, id string) (bool, error) {
	return t.set.Contains(ctx, id)
}

// RecordSubmission marks e.JobID applied, appends it to the CSV ledger and
// copies it to the mirrors and sinks. Only set and primary CSV failures are returned.
func (t *Tracker) RecordSubmission(ctx context.Context, e Entry) error {
	if e.DateApplied.IsZero() {
		e.DateApplied = time.Now()
	}

	if err := t.set.Add(ctx, e.JobID); err != nil {
		return err
	}

	if err := t.ledger.Append(e); err != nil {
		metrics.LedgerWrites.WithLabelValues("csv", StatusFailed).Inc()
		return apperrors.NewLedgerWriteFailedError("csv", err)
	}
	metrics.LedgerWrites.WithLabelValues("csv", StatusOK).Inc()

	if err := t.ledger.AppendMirrors(e); err != nil {
		metrics.LedgerWrites.WithLabelValues("csv_mirror", StatusFailed).Inc()
		t.logger.Warn("ledger mirror write failed", map[string]interface{}{
			"jobId": e.JobID,
			"error": err.Error(),
		})
	}

	for _, s := range t.sinks {
		sctx, cancel := context.WithTimeout(ctx, t.config.SinkTimeout)
		err := s.Record(sctx, e)
		cancel()
		if err != nil {
			metrics.LedgerWrites.WithLabelValues(s.Name(), StatusFailed).Inc()
			t.logger.Warn("ledger sink write failed", map[string]interface{}{
				"sink":  s.Name(),
				"jobId": e.JobID,
				"error": err.Error(),
			})
			continue
		}
		metrics.LedgerWrites.WithLabelValues(s.Name(), StatusOK).Inc()
	}

	t.logger.Info("submission recorded", map[string]interface{}{
		"jobId":   e.JobID,
		"title":   e.JobTitle,
		"company": e.Company,
	})
	return nil
}

// Flush persists the applied set.
func (t *Tracker) Flush(ctx context.Context) error {
	return t.set.Save(ctx)
}

// Reconcile adds every job ID found in the CSV ledger to the applied set and
// returns how many were missing. It recovers entries lost when a run crashed
// before the set was flushed.
func (t *Tracker) Reconcile(ctx context.Context) (int, error) {
	entries, err := ReadAll(t.ledger.Path())
	if err != nil {
		return 0, err
	}

	added := 0
	for _, e := range entries {
		ok, err := t.set.Contains(ctx, e.JobID)
		if err != nil {
			return added, err
		}
		if ok {
			continue
		}
		if err := t.set.Add(ctx, e.JobID); err != nil {
			return added, err
		}
		added++
	}

	if added > 0 {
		t.logger.Info("applied set reconciled from ledger", map[string]interface{}{"added": added})
		if err := t.set.Save(ctx); err != nil {
			return added, err
		}
	}
	return added, nil
}

func (t *Tracker) Len(ctx context.Context) (int, error) {
	return t.set.Len(ctx)
}
