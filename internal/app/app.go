// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/garyellow/uonline/internal/api"
	"github.com/garyellow/uonline/internal/buildinfo"
	"github.com/garyellow/uonline/internal/config"
	"github.com/garyellow/uonline/internal/ctxutil"
	"github.com/garyellow/uonline/internal/curriculum"
	"github.com/garyellow/uonline/internal/genai"
	"github.com/garyellow/uonline/internal/learningpath"
	"github.com/garyellow/uonline/internal/logger"
	"github.com/garyellow/uonline/internal/metrics"
	"github.com/garyellow/uonline/internal/mooc"
	"github.com/garyellow/uonline/internal/r2client"
	"github.com/garyellow/uonline/internal/ratelimit"
	"github.com/garyellow/uonline/internal/records"
	"github.com/garyellow/uonline/internal/search"
	"github.com/garyellow/uonline/internal/sentry"
	"github.com/garyellow/uonline/internal/snapshot"
	"github.com/garyellow/uonline/internal/storage"
)

// Application manages the application lifecycle and dependencies.
type Application struct {
	cfg       *config.Config
	logger    *logger.Logger
	db        *storage.DB
	metrics   *metrics.Metrics
	registry  *prometheus.Registry
	searcher  *search.Client
	extractor *genai.FallbackExtractor // nil when no LLM key is configured
	limiter   *ratelimit.KeyedLimiter
	snapshots *snapshot.Manager // nil unless R2 is configured
	server    *http.Server
	wg        sync.WaitGroup // Track background goroutines for graceful shutdown
}

// Initialize creates and initializes a new application with all dependencies.
func Initialize(ctx context.Context, cfg *config.Config) (*Application, error) {
	log := logger.NewWithOptions(cfg.LogLevel, os.Stdout, logger.Options{
		BetterStackToken:    cfg.BetterStackToken,
		BetterStackEndpoint: cfg.BetterStackEndpoint,
	})

	log = log.WithField("service", "uonline")
	if host, err := os.Hostname(); err == nil && host != "" {
		log = log.WithField("instance_id", host)
	}

	// Package-level slog.*Context calls pick up request IDs through the default handler.
	slog.SetDefault(log.Logger)

	log.WithField("version", buildinfo.UserAgent()).Info("Initializing application...")
	if cfg.BetterStackToken != "" {
		log.WithField("endpoint", cfg.BetterStackEndpoint).Info("Better Stack logging enabled")
	}

	if err := sentry.Initialize(sentry.Config{
		DSN:         cfg.SentryDSN,
		Environment: cfg.SentryEnvironment,
		Release:     buildinfo.Release(),
		SampleRate:  cfg.SentrySampleRate,
	}); err != nil {
		log.WithError(err).Warn("Sentry initialization failed")
	} else if sentry.IsEnabled() {
		log.WithField("environment", cfg.SentryEnvironment).Info("Sentry error reporting enabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewBuildInfoCollector(),
	)
	m := metrics.New(registry)

	snapshots, err := newSnapshotManager(ctx, cfg, m)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}

	db, err := openDatabase(ctx, cfg, snapshots)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	searcher := search.NewClient(search.Config{
		APIKey:      cfg.BraveAPIKey,
		BaseURL:     cfg.BraveBaseURL,
		Timeout:     cfg.SearchTimeout,
		MaxRetries:  cfg.SearchMaxRetries,
		Interval:    cfg.SearchInterval,
		Concurrency: cfg.SearchConcurrency,
		Metrics:     m,
	})
	if !searcher.Configured() {
		log.Warn("Brave API key not configured; search routes will report a configuration error")
	}

	fallbackExtractor, err := genai.NewExtractor(ctx, genai.Config{
		APIKey:       cfg.SiliconFlowAPIKey,
		BaseURL:      cfg.SiliconFlowBaseURL,
		Model:        cfg.SiliconFlowModel,
		GeminiAPIKey: cfg.GeminiAPIKey,
		GeminiModel:  cfg.GeminiModel,
		Timeout:      cfg.LLMTimeout,
		MaxRetries:   genai.DefaultMaxRetries,
		Metrics:      m,
	})
	if err != nil {
		log.WithError(err).Warn("Course extractor initialization failed")
	}

	// A nil *FallbackExtractor must stay a nil interface for the curriculum service.
	var extractor curriculum.Extractor
	if fallbackExtractor != nil {
		extractor = fallbackExtractor
	} else {
		log.Warn("SiliconFlow API key not configured; curriculum search will report a configuration error")
	}

	limiter := ratelimit.NewKeyedLimiter(ratelimit.KeyedConfig{
		Burst:         cfg.ClientRateBurst,
		RefillRate:    cfg.ClientRateRefill,
		DailyLimit:    cfg.ClientRateDaily,
		CleanupPeriod: config.RateLimiterCleanupInterval,
		Metrics:       m,
	})

	handler := api.NewHandler(api.HandlerConfig{
		Curriculum:   curriculum.NewService(searcher, extractor, db, m),
		MOOC:         mooc.NewService(searcher, db, m),
		Records:      records.NewService(db, m),
		LearningPath: learningpath.NewService(searcher, m),
		Limiter:      limiter,
		Metrics:      m,
	})

	app := &Application{
		cfg:       cfg,
		logger:    log,
		db:        db,
		metrics:   m,
		registry:  registry,
		searcher:  searcher,
		extractor: fallbackExtractor,
		limiter:   limiter,
		snapshots: snapshots,
	}

	gin.SetMode(gin.ReleaseMode)
	router, err := app.newRouter(handler)
	if err != nil {
		return nil, err
	}

	app.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: config.HTTPRead,
		ReadTimeout:       config.HTTPRead,
		WriteTimeout:      config.HTTPWrite,
		IdleTimeout:       config.HTTPIdle,
	}

	log.Info("Initialization complete")
	return app, nil
}

// newSnapshotManager returns nil when R2 is not configured.
func newSnapshotManager(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*snapshot.Manager, error) {
	if !cfg.R2Configured() {
		return nil, nil //nolint:nilnil // Snapshots are optional
	}
	client, err := r2client.New(ctx, r2client.Config{
		Endpoint:    cfg.R2Endpoint(),
		AccessKeyID: cfg.R2AccessKeyID,
		SecretKey:   cfg.R2SecretAccessKey,
		BucketName:  cfg.R2BucketName,
	})
	if err != nil {
		return nil, err
	}
	return snapshot.New(client, snapshot.Config{
		SnapshotKey: cfg.R2SnapshotKey,
		Interval:    cfg.R2SnapshotInterval,
		TempDir:     cfg.DataDir,
		Metrics:     m,
	}), nil
}

// openDatabase connects to PostgreSQL when configured, otherwise opens the
// SQLite file, restoring it from R2 first when it does not exist yet.
func openDatabase(ctx context.Context, cfg *config.Config, snapshots *snapshot.Manager) (*storage.DB, error) {
	if cfg.UsesPostgres() {
		db, err := storage.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		slog.InfoContext(ctx, "Database connected", "dialect", db.Dialect())
		return db, nil
	}

	if snapshots != nil {
		restoreCtx, cancel := context.WithTimeout(ctx, config.SnapshotRestoreTimeout)
		if _, err := snapshots.Restore(restoreCtx, cfg.SQLitePath()); err != nil {
			slog.WarnContext(ctx, "Snapshot restore failed, starting with local state", "error", err)
		}
		cancel()
	}

	db, err := storage.New(ctx, cfg.SQLitePath())
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Database connected", "dialect", db.Dialect(), "path", db.Path())
	return db, nil
}

// newRouter wires middleware in order: recovery, Sentry, security headers,
// access logging. Rate limiting is attached per route by the API handler.
func (a *Application) newRouter(handler *api.Handler) (*gin.Engine, error) {
	router := gin.New()
	if err := router.SetTrustedProxies(a.cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	router.Use(gin.Recovery())
	if sentry.IsEnabled() {
		router.Use(sentry.Middleware())
	}
	router.Use(securityHeadersMiddleware())
	router.Use(loggingMiddleware(a.logger))

	router.GET("/livez", a.livenessCheck)
	router.HEAD("/livez", a.livenessCheck)
	router.GET("/readyz", a.readinessCheck)
	router.HEAD("/readyz", a.readinessCheck)
	router.GET("/metrics",
		metricsAuthMiddleware(a.cfg.MetricsAuthEnabled(), a.cfg.MetricsUsername, a.cfg.MetricsPassword, a.metrics),
		gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))

	if handler != nil {
		handler.Register(router)
	}
	return router, nil
}

func (a *Application) livenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}

func (a *Application) getFeatures() map[string]bool {
	return map[string]bool{
		"search":         a.searcher.Configured(),
		"llm_extraction": a.extractor != nil,
		"llm_fallback":   a.extractor != nil && a.extractor.HasFallback(),
		"snapshots":      a.snapshots != nil,
	}
}

func (a *Application) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), config.ReadinessCheckTimeout)
	defer cancel()

	if err := a.db.Ping(ctx); err != nil {
		a.logger.WithError(err).Warn("Readiness check failed: database unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "database unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ready",
		"database": "connected",
		"dialect":  a.db.Dialect(),
		"rows":     a.getRowCounts(ctx),
		"features": a.getFeatures(),
	})
}

func (a *Application) getRowCounts(ctx context.Context) map[string]int {
	stats := make(map[string]int)

	if count, err := a.db.CountRecords(ctx); err == nil {
		stats["learning_records"] = count
	} else {
		a.logger.WithError(err).Warn("Failed to count learning records")
	}
	if count, err := a.db.CountCourseCaches(ctx); err == nil {
		stats["course_caches"] = count
	} else {
		a.logger.WithError(err).Warn("Failed to count course caches")
	}

	return stats
}

// Run starts the HTTP server and background jobs.
//
// Graceful shutdown sequence:
//  1. Receive shutdown signal (SIGINT/SIGTERM)
//  2. Cancel context to stop background jobs
//  3. Wait for background jobs to complete
//  4. Stop the HTTP server, upload a final snapshot, close resources
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.startBackgroundJobs(ctx)
	serverErr := a.startHTTPServer()

	select {
	case sig := <-a.shutdownSignal():
		a.logger.WithField("signal", sig.String()).Info("Received shutdown signal")
	case err := <-serverErr:
		a.logger.WithError(err).Error("HTTP server stopped unexpectedly")
	}

	cancel()

	a.logger.Info("Waiting for background jobs to finish...")
	start := time.Now()
	a.wg.Wait()
	a.logger.WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("All background jobs completed")

	return a.shutdown()
}

// startBackgroundJobs starts all background goroutines tracked by WaitGroup.
func (a *Application) startBackgroundJobs(ctx context.Context) {
	a.wg.Go(func() {
		a.limiter.Run(ctx)
	})
	a.wg.Go(func() {
		a.updateRowCountMetrics(ctx)
	})
	if a.snapshots != nil {
		a.wg.Go(func() {
			a.snapshots.Run(ctx, a.db)
		})
	}
}

// startHTTPServer starts the HTTP server in a goroutine. The returned
// channel receives an error if the listener fails.
func (a *Application) startHTTPServer() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.WithField("port", a.cfg.Port).Info("Starting HTTP server")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	return errCh
}

func (a *Application) shutdownSignal() <-chan os.Signal {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	return quit
}

// shutdown stops the HTTP server and closes resources. It must run after
// background jobs have stopped.
func (a *Application) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	a.logger.Info("Stopping HTTP server...")
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Error("HTTP server shutdown error")
	}

	if a.snapshots != nil {
		a.logger.Info("Uploading final snapshot...")
		uploadCtx, uploadCancel := context.WithTimeout(context.Background(), config.SnapshotUploadTimeout)
		if _, err := a.snapshots.Upload(uploadCtx, a.db); err != nil {
			a.logger.WithError(err).Warn("Final snapshot upload failed")
		}
		uploadCancel()
	}

	a.logger.Info("Closing resources...")

	if a.extractor != nil {
		if err := a.extractor.Close(); err != nil {
			a.logger.WithError(err).WithField("component", "extractor").Error("Component close error")
		}
	}

	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).WithField("component", "database").Error("Component close error")
	}

	if !sentry.Flush(2 * time.Second) {
		a.logger.Warn("Sentry flush timed out")
	}

	if err := a.logger.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Warn("Logger shutdown timed out")
	}

	a.logger.Info("Shutdown complete")
	return nil
}

// updateRowCountMetrics periodically records table sizes to Prometheus.
func (a *Application) updateRowCountMetrics(ctx context.Context) {
	a.logger.Debug("Row count metrics job started")
	defer a.logger.Debug("Row count metrics job stopped")

	a.recordRowCountMetrics(ctx)

	ticker := time.NewTicker(config.MetricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.recordRowCountMetrics(ctx)
		}
	}
}

func (a *Application) recordRowCountMetrics(ctx context.Context) {
	if a.metrics == nil {
		return
	}
	for table, count := range a.getRowCounts(ctx) {
		a.metrics.SetRowCount(table, count)
	}
}

// securityHeadersMiddleware adds security headers to responses.
func securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'none'")
		c.Header("X-Permitted-Cross-Domain-Policies", "none")
		c.Next()
	}
}

// loggingMiddleware tags each request with a request ID (taken from the
// client or generated) and writes one access log line when it completes.
func loggingMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = c.GetHeader("X-Correlation-ID")
		}
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)

		ctx := ctxutil.WithRequestID(c.Request.Context(), requestID)
		ctx = ctxutil.WithClientIP(ctx, c.ClientIP())
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		entry := log.WithRequestID(requestID).
			WithField("http_method", method).
			WithField("http_path", path).
			WithField("http_status", status).
			WithField("duration_ms", time.Since(start).Milliseconds()).
			WithField("client_ip", c.ClientIP())

		switch {
		case status >= 500:
			entry.Error("HTTP request failed")
		case status == http.StatusNotFound:
			entry.Debug("HTTP request not found")
		case status >= 400:
			entry.Warn("HTTP request rejected")
		default:
			entry.Info("HTTP request completed")
		}
	}
}
