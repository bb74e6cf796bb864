// cmd/dashboard/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"easyapply/internal/common/config"
	"easyapply/internal/common/logger"
	"easyapply/internal/dashboard"
	sendnotification "easyapply/internal/workers/communication/send-notification"
	runcycle "easyapply/internal/workers/scheduler/run-cycle"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to config.json (default $AUTOAPPLY_CONFIG or ./config.json)")
	binary := flag.String("autoapply", "autoapply", "automation binary started by /api/automation/start")
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

	srv := dashboard.NewServer(dashboard.LoadConfig(cfg, path), dashboard.NewExecLauncher(*binary, path, log), log)
	if err := srv.Run(ctx); err != nil {
		runcycle.DefaultNotifier(ctx, cfg, log).NotifyEvent(ctx, sendnotification.EventDashboardError, map[string]interface{}{"error": err})
		zapLog.Fatal("dashboard failed", zap.Error(err))
	}
}
