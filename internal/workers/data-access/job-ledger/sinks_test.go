// internal/workers/data-access/job-ledger/sinks_test.go
package jobledger

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresSink_Record(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	e := testEntry("123")
	mock.ExpectExec(`INSERT INTO "applied_jobs"`).
		WithArgs("123", e.JobTitle, "Acme", e.DateApplied).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s := NewPostgresSink(db, "applied_jobs")
	assert.Equal(t, "postgres", s.Name())
	require.NoError(t, s.Record(context.Background(), e))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSink_EnsureSchemaAndError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "jobs; drop"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO`).WillReturnError(errors.New("connection reset"))

	s := NewPostgresSink(db, "jobs; drop")
	require.NoError(t, s.EnsureSchema(context.Background()))
	assert.Error(t, s.Record(context.Background(), testEntry("1")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func newESServer(t *testing.T, status int, seen *[]string) *elasticsearch.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if seen != nil {
			*seen = append(*seen, r.Method+" "+r.URL.Path+" "+string(body))
		}
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return client
}

func TestElasticsearchSink_Record(t *testing.T) {
	var seen []string
	s := NewElasticsearchSink(newESServer(t, http.StatusCreated, &seen), "applied-jobs")

	require.NoError(t, s.Record(context.Background(), testEntry("123")))
	require.Len(t, seen, 1)
	assert.Contains(t, seen[0], "PUT /applied-jobs/_doc/123")

	var doc map[string]interface{}
	body := seen[0][len("PUT /applied-jobs/_doc/123 "):]
	require.NoError(t, json.Unmarshal([]byte(body), &doc))
	assert.Equal(t, "Acme", doc["company"])
}

func TestElasticsearchSink_Error(t *testing.T) {
	s := NewElasticsearchSink(newESServer(t, http.StatusBadRequest, nil), "applied-jobs")
	assert.Error(t, s.Record(context.Background(), testEntry("1")))
}
