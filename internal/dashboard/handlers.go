// internal/dashboard/handlers.go
package dashboard

import (
	"net/http"

	"easyapply/internal/common/config"
	apperrors "easyapply/internal/common/errors"
	jobledger "easyapply/internal/workers/data-access/job-ledger"

	"github.com/gin-gonic/gin"
)

type indexPage struct {
	Jobs        []jobledger.Entry
	Settings    config.Settings
	ConfigError string
	LedgerError string
}

func (s *Server) handleIndex(c *gin.Context) {
	var page indexPage

	jobs, err := jobledger.ReadAll(s.config.LedgerFile)
	if err != nil {
		page.LedgerError = err.Error()
	}
	page.Jobs = jobs

	if cfg, err := config.LoadFromFile(s.config.ConfigPath); err != nil {
		page.ConfigError = err.Error()
	} else {
		page.Settings = config.SettingsOf(cfg)
	}

	c.HTML(http.StatusOK, "index.html", page)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleJobs(c *gin.Context) {
	jobs, err := jobledger.ReadAll(s.config.LedgerFile)
	if err != nil {
		s.logger.Error("failed to read job ledger", map[string]interface{}{"error": err.Error()})
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if jobs == nil {
		jobs = []jobledger.Entry{}
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs, "count": len(jobs)})
}

func (s *Server) handleGetConfig(c *gin.Context) {
	cfg, err := config.LoadFromFile(s.config.ConfigPath)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, config.SettingsOf(cfg))
}

func (s *Server) handleUpdateConfig(c *gin.Context) {
	var req config.Settings
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
		return
	}

	if err := config.UpdateSettings(s.config.ConfigPath, req); err != nil {
		s.logger.Warn("config update rejected", map[string]interface{}{"error": err.Error()})
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	s.logger.Info("configuration updated", map[string]interface{}{
		"keywords":        req.JobKeywords,
		"maxApplications": req.MaxApplications,
		"dryRun":          req.DryRun,
	})
	c.JSON(http.StatusOK, gin.H{"success": true, "settings": req})
}

func (s *Server) handleStart(c *gin.Context) {
	pid, err := s.launcher.Start(c.Request.Context())
	if err != nil {
		s.logger.Error("failed to start automation", map[string]interface{}{"error": err.Error()})
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "automation started", "pid": pid})
}

// The launched run is not tracked after it starts.
func (s *Server) handleStop(c *gin.Context) {
	c.JSON(http.StatusNotImplemented, gin.H{
		"error": "stopping a running automation is not supported; stop the autoapply process manually",
	})
}

func statusFor(err error) int {
	if apperrors.HasCode(err, apperrors.ErrCodeConfigInvalid) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
