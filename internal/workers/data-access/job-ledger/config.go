// internal/workers/data-access/job-ledger/config.go
package jobledger

import (
	"time"

	"easyapply/internal/common/config"
)

type Config struct {
	CSVFile         string
	MirrorFiles     []string
	AppliedJobsFile string

	AppliedSetMode string
	RedisKey       string

	PostgresTable string
	ESIndex       string

	SinkTimeout time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		CSVFile:         cfg.DataTracking.CSVFile,
		MirrorFiles:     cfg.DataTracking.MirrorFiles,
		AppliedJobsFile: cfg.DataTracking.AppliedJobsFile,
		AppliedSetMode:  cfg.Storage.AppliedSet,
		RedisKey:        cfg.Storage.Redis.Key,
		PostgresTable:   cfg.Storage.Postgres.Table,
		ESIndex:         cfg.Storage.Elasticsearch.Index,
		SinkTimeout:     5 * time.Second,
	}
}
