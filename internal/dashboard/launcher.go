// internal/dashboard/launcher.go
package dashboard

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"easyapply/internal/common/logger"
)

// Launcher starts one automation run in the background and returns its pid.
type Launcher interface {
	Start(ctx context.Context) (int, error)
}

// ExecLauncher runs `<binary> -config <path> -once` as a detached child.
type ExecLauncher struct {
	Binary     string
	ConfigPath string
	logger     logger.Logger
}

func NewExecLauncher(binary, configPath string, log logger.Logger) *ExecLauncher {
	return &ExecLauncher{
		Binary:     binary,
		ConfigPath: configPath,
		logger:     log.WithFields(map[string]interface{}{"component": "launcher"}),
	}
}

func (l *ExecLauncher) Start(_ context.Context) (int, error) {
	// not bound to the request context, the run outlives the request
	cmd := exec.Command(l.Binary, "-config", l.ConfigPath, "-once")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("start %s: %w", l.Binary, err)
	}
	pid := cmd.Process.Pid
	l.logger.Info("automation started", map[string]interface{}{"pid": pid, "binary": l.Binary})

	go func() {
		err := cmd.Wait()
		fields := map[string]interface{}{"pid": pid}
		if err != nil {
			fields["error"] = err.Error()
		}
		l.logger.Info("automation run exited", fields)
	}()
	return pid, nil
}
