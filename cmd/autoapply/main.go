// cmd/autoapply/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"easyapply/internal/common/camunda"
	"easyapply/internal/common/config"
	"easyapply/internal/common/database"
	"easyapply/internal/common/logger"
	"easyapply/internal/common/observability"
	"easyapply/internal/dashboard"
	sendnotification "easyapply/internal/workers/communication/send-notification"
	jobledger "easyapply/internal/workers/data-access/job-ledger"
	runcycle "easyapply/internal/workers/scheduler/run-cycle"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to config.json (default $AUTOAPPLY_CONFIG or ./config.json)")
	once := flag.Bool("once", false, "run a single cycle and exit")
	serveDashboard := flag.Bool("dashboard", false, "serve the dashboard from this process")
	flag.Parse()

	path := config.ResolvePath(*configPath)
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	obs := observability.New("autoapply", log)
	defer obs.Shutdown()

	backends, closeBackends, err := openBackends(ctx, cfg, zapLog)
	if err != nil {
		zapLog.Fatal("storage backends failed", zap.Error(err))
	}
	defer closeBackends()

	ledger, err := jobledger.Open(ctx, jobledger.LoadConfig(cfg), backends, log)
	if err != nil {
		zapLog.Fatal("job ledger failed", zap.Error(err))
	}

	runner := runcycle.NewRunner(runcycle.Dependencies{
		LoadConfig:    func() (*config.Config, error) { return config.LoadFromFile(path) },
		Ledger:        ledger,
		Observability: obs,
	}, log)

	if *once {
		summary, err := runner.RunCycle(ctx)
		if err != nil && summary.Status == runcycle.StatusFailed {
			zapLog.Error("cycle failed", zap.Error(err))
			os.Exit(1)
		}
		return
	}

	if *serveDashboard {
		go runDashboard(ctx, cfg, path, log)
	}

	rc := runcycle.LoadConfig(cfg)
	switch cfg.Schedule.Mode {
	case config.ScheduleModeCamunda:
		err = runCamunda(ctx, cfg, rc, runner, log, zapLog)
	default:
		err = runcycle.NewScheduler(runner, rc.Interval, log).Run(ctx)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		zapLog.Fatal("automation stopped", zap.Error(err))
	}
	zapLog.Info("automation stopped")
}

// openBackends connects the stores the config enables. The redis applied set
// is required when selected; postgres and elasticsearch are best-effort mirrors.
func openBackends(ctx context.Context, cfg *config.Config, log *zap.Logger) (jobledger.Backends, func(), error) {
	var b jobledger.Backends
	var closers []func() error
	closeAll := func() {
		for _, c := range closers {
			_ = c()
		}
	}

	if cfg.Storage.AppliedSet == config.AppliedSetRedis {
		rdb := database.NewRedis(cfg.Storage.Redis)
		err := retryWithBackoff(func() error { return rdb.Ping(ctx) }, 5, 2*time.Second, log, "Redis connection")
		if err != nil {
			rdb.Close()
			return b, closeAll, err
		}
		closers = append(closers, rdb.Close)
		b.Redis = rdb.Client
		log.Info("Redis connected successfully")
	}

	if cfg.Storage.Postgres.Enabled {
		pg, err := database.NewPostgres(cfg.Storage.Postgres)
		if err == nil {
			err = retryWithBackoff(func() error { return pg.Ping(ctx) }, 3, 2*time.Second, log, "PostgreSQL connection")
		}
		if err != nil {
			log.Warn("postgres ledger mirror disabled", zap.Error(err))
			if pg != nil {
				pg.Close()
			}
		} else {
			closers = append(closers, pg.Close)
			b.DB = pg.DB
			log.Info("PostgreSQL connected successfully")
		}
	}

	if cfg.Storage.Elasticsearch.Enabled {
		es, err := database.NewElasticsearch(cfg.Storage.Elasticsearch)
		if err == nil {
			err = retryWithBackoff(func() error { return es.Ping(ctx) }, 3, 2*time.Second, log, "Elasticsearch connection")
		}
		if err != nil {
			log.Warn("elasticsearch ledger mirror disabled", zap.Error(err))
		} else {
			b.Elasticsearch = es.Client
			log.Info("Elasticsearch connected successfully")
		}
	}

	return b, closeAll, nil
}

func runCamunda(ctx context.Context, cfg *config.Config, rc *runcycle.Config, runner *runcycle.Runner, log logger.Logger, zapLog *zap.Logger) error {
	var client *camunda.Client
	err := retryWithBackoff(func() error {
		var err error
		client, err = camunda.NewClient(cfg.Camunda.BrokerAddress)
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		return err
	}
	defer client.Close()
	zapLog.Info("Zeebe client connected successfully")

	w := camunda.NewWorker(client.GetClient(), rc.JobType, rc.MaxJobsActive, rc.JobTimeout, runcycle.NewHandler(rc, runner, log), log)
	w.Start()
	<-ctx.Done()
	w.Stop(context.Background())
	return ctx.Err()
}

func runDashboard(ctx context.Context, cfg *config.Config, path string, log logger.Logger) {
	binary, err := os.Executable()
	if err != nil {
		binary = "autoapply"
	}
	srv := dashboard.NewServer(dashboard.LoadConfig(cfg, path), dashboard.NewExecLauncher(binary, path, log), log)
	if err := srv.Run(ctx); err != nil {
		log.WithError(err).Error("dashboard failed", nil)
		runcycle.DefaultNotifier(ctx, cfg, log).NotifyEvent(ctx, sendnotification.EventDashboardError, map[string]interface{}{"error": err})
	}
}

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}
