// internal/workers/data-access/job-ledger/sinks.go
package jobledger

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/lib/pq"
)

// Sink is a best-effort copy of the ledger. A failing sink never fails a submission.
type Sink interface {
	Name() string
	Record(ctx context.Context, e Entry) error
}

type PostgresSink struct {
	db    *sql.DB
	table string
}

func NewPostgresSink(db *sql.DB, table string) *PostgresSink {
	return &PostgresSink{db: db, table: pq.QuoteIdentifier(table)}
}

func (s *PostgresSink) Name() string { return "postgres" }

func (s *PostgresSink) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			job_id       TEXT PRIMARY KEY,
			job_title    TEXT NOT NULL,
			company      TEXT NOT NULL,
			date_applied TIMESTAMP NOT NULL
		)`, s.table))
	if err != nil {
		return fmt.Errorf("create ledger table: %w", err)
	}
	return nil
}

// Record inserts e; an existing job_id is left untouched.
func (s *PostgresSink) Record(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (job_id, job_title, company, date_applied)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (job_id) DO NOTHING`, s.table),
		e.JobID,
		e.JobTitle,
		e.Company,
		e.DateApplied,
	)
	if err != nil {
		return fmt.Errorf("insert ledger row: %w", err)
	}
	return nil
}

type ElasticsearchSink struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticsearchSink(client *elasticsearch.Client, index string) *ElasticsearchSink {
	return &ElasticsearchSink{client: client, index: index}
}

func (s *ElasticsearchSink) Name() string { return "elasticsearch" }

// Record indexes e under its job ID, so a repeat write overwrites rather than duplicates.
func (s *ElasticsearchSink) Record(ctx context.Context, e Entry) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode ledger document: %w", err)
	}

	res, err := s.client.Index(
		s.index,
		bytes.NewReader(body),
		s.client.Index.WithDocumentID(e.JobID),
		s.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index ledger document: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index ledger document: %s", res.Status())
	}
	return nil
}
