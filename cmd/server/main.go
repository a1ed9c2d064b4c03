package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	gangsheetapp "github.com/printnest/backend/internal/application/gangsheet"
	"github.com/printnest/backend/internal/infrastructure/config"
	"github.com/printnest/backend/internal/infrastructure/logger"
	"github.com/printnest/backend/internal/infrastructure/orders"
	"github.com/printnest/backend/internal/infrastructure/persistence"
	"github.com/printnest/backend/internal/infrastructure/render"
	"github.com/printnest/backend/internal/infrastructure/storage"
	"github.com/printnest/backend/internal/infrastructure/worker"
	"github.com/printnest/backend/internal/interfaces/http/handler"
	"github.com/printnest/backend/internal/interfaces/http/middleware"
	"github.com/printnest/backend/internal/interfaces/http/router"
)

//	@title			Printnest Gangsheet API
//	@version		1.0
//	@description	Gangsheet generation service: packs print designs onto fixed-width rolls and renders them as downloadable artifacts.

//	@host		localhost:8080
//	@BasePath	/api/v1

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Printnest Gangsheet API",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	jobRepo := persistence.NewGormGangsheetJobRepository(db.DB)
	settingsRepo := persistence.NewGormRollSettingsRepository(db.DB)

	// Initialize object storage
	var store storage.ObjectStorage
	var signer storage.URLSigner
	switch cfg.Storage.Driver {
	case "s3":
		s3Store, err := storage.NewS3ObjectStorage(&cfg.Storage,
			storage.WithLogger(log),
			storage.WithPresignExpiration(cfg.Storage.PresignExpiration),
		)
		if err != nil {
			log.Fatal("Failed to initialize S3 storage", zap.Error(err))
		}
		ensureCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := s3Store.EnsureBucket(ensureCtx); err != nil {
			cancel()
			log.Fatal("Failed to ensure storage bucket", zap.Error(err))
		}
		cancel()
		store = s3Store
		signer = s3Store
	case "filesystem":
		fsStore, err := storage.NewFileSystemStorage(cfg.Storage.BasePath, log)
		if err != nil {
			log.Fatal("Failed to initialize filesystem storage", zap.Error(err))
		}
		store = fsStore
	default:
		log.Fatal("Unknown storage driver", zap.String("driver", cfg.Storage.Driver))
	}
	log.Info("Object storage ready", zap.String("driver", cfg.Storage.Driver))

	// Initialize renderer with design source backed by object storage
	designs := storage.NewDesignStore(store, cfg.Storage.DesignPrefix)
	renderer, err := render.NewImagingRenderer(designs, log)
	if err != nil {
		log.Fatal("Failed to initialize renderer", zap.Error(err))
	}

	// Initialize order service client
	orderReader, err := orders.NewHTTPOrderReader(&orders.Config{
		BaseURL:        cfg.Orders.BaseURL,
		APIKey:         cfg.Orders.APIKey,
		TimeoutSeconds: cfg.Orders.TimeoutSeconds,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize order service client", zap.Error(err))
	}

	// Initialize application service
	gangsheetService := gangsheetapp.NewGangsheetService(
		jobRepo,
		settingsRepo,
		orderReader,
		renderer,
		store,
		signer,
		gangsheetapp.Config{
			ArtifactPrefix:    cfg.Storage.ArtifactPrefix,
			MaxRollWorkers:    cfg.Render.MaxRollWorkers,
			PresignExpiration: cfg.Storage.PresignExpiration,
		},
		log,
	)

	// Initialize and start background job runner
	runner := worker.NewRunner(worker.Config{
		Workers:    cfg.Worker.Workers,
		QueueSize:  cfg.Worker.QueueSize,
		JobTimeout: cfg.Worker.JobTimeout,
	}, gangsheetService, jobRepo, log)
	gangsheetService.AttachQueue(runner)

	if err := runner.Start(context.Background()); err != nil {
		log.Fatal("Failed to start job runner", zap.Error(err))
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := runner.Stop(stopCtx); err != nil {
			log.Error("Error stopping job runner", zap.Error(err))
		}
	}()
	log.Info("Job runner started",
		zap.Int("workers", cfg.Worker.Workers),
		zap.Duration("job_timeout", cfg.Worker.JobTimeout),
	)

	// Start artifact retention loop
	retentionCtx, stopRetention := context.WithCancel(context.Background())
	defer stopRetention()
	if cfg.Retention.Enabled {
		go retentionLoop(retentionCtx, gangsheetService, cfg.Retention, log)
		log.Info("Artifact retention enabled",
			zap.Duration("max_age", cfg.Retention.ArtifactMaxAge),
			zap.Duration("interval", cfg.Retention.CleanupInterval),
		)
	}

	// Initialize HTTP handlers
	gangsheetHandler := handler.NewGangsheetHandler(gangsheetService)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. BodyLimit - Limit request body size
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORS())
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Tenant resolution applies to every API route
	r.Use(middleware.TenantMiddleware())

	r.Register(handler.GangsheetRoutes(gangsheetHandler)).
		Register(handler.RollSettingsRoutes(gangsheetHandler))

	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)
	r.Register(systemRoutes)

	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")
	stopRetention()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// retentionLoop periodically deletes artifacts of terminal jobs older than
// the configured age.
func retentionLoop(ctx context.Context, service *gangsheetapp.GangsheetService, cfg config.RetentionConfig, log *zap.Logger) {
	ticker := time.NewTicker(cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := service.CleanupExpired(ctx, cfg.ArtifactMaxAge)
			if err != nil {
				log.Error("Artifact cleanup failed", zap.Error(err))
				continue
			}
			if removed > 0 {
				log.Info("Expired artifacts removed", zap.Int("count", removed))
			}
		}
	}
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
