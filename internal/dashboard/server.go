// internal/dashboard/server.go
package dashboard

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"easyapply/internal/common/config"
	"easyapply/internal/common/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed templates/*.html
var assets embed.FS

type Config struct {
	Addr       string
	ConfigPath string
	// LedgerFile is the CSV ledger copy shown in the jobs table.
	LedgerFile string
}

func LoadConfig(cfg *config.Config, configPath string) *Config {
	return &Config{
		Addr:       cfg.Frontend.Addr(),
		ConfigPath: configPath,
		LedgerFile: cfg.DataTracking.DashboardFile,
	}
}

// Server is the dashboard: the ledger table, the settings form and the
// automation launcher.
type Server struct {
	config   *Config
	launcher Launcher
	router   *gin.Engine
	logger   logger.Logger
}

func NewServer(config *Config, launcher Launcher, log logger.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		config:   config,
		launcher: launcher,
		router:   gin.New(),
		logger:   log.WithFields(map[string]interface{}{"component": "dashboard"}),
	}
	s.router.Use(gin.Recovery(), s.requestLogger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type"}
	s.router.Use(cors.New(corsConfig))

	s.router.SetHTMLTemplate(template.Must(template.New("").Funcs(template.FuncMap{
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("2006-01-02 15:04")
		},
	}).ParseFS(assets, "templates/*.html")))

	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.GET("/", s.handleIndex)
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.router.Group("/api")
	{
		api.GET("/jobs", s.handleJobs)
		api.GET("/config", s.handleGetConfig)
		api.PUT("/config", s.handleUpdateConfig)
		api.POST("/automation/start", s.handleStart)
		api.POST("/automation/stop", s.handleStop)
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dashboard listening", map[string]interface{}{"addr": s.config.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("dashboard shutdown error", map[string]interface{}{"error": err.Error()})
	}
	s.logger.Info("dashboard stopped", nil)
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request", map[string]interface{}{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
	}
}
