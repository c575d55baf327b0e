package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"bitbucket.org/mmdatafocus/collections_backend/config"
	"bitbucket.org/mmdatafocus/collections_backend/middlewares"
	"bitbucket.org/mmdatafocus/collections_backend/models"
	"bitbucket.org/mmdatafocus/collections_backend/workflow"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// pinger is the health check of the store.
type pinger interface {
	Ping(ctx context.Context) error
}

// app holds the handlers' dependencies. They are filled in once the database is reachable;
// until then ready is false and app endpoints answer 503.
type app struct {
	ready    atomic.Bool
	store    pinger
	uploader *workflow.Uploader
	crossRef *workflow.CrossReferencer

	logger         *logrus.Logger
	maxUploadBytes int64
}

func newRouter(a *app, settings *config.Settings, limiter *middlewares.RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(middlewares.CorrelationMiddleware())
	r.GET("/healthz", a.healthHandler)

	r.Use(func(c *gin.Context) {
		// Gate app endpoints on dependency readiness.
		if !a.ready.Load() {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "service starting"})
			return
		}
		c.Next()
	})

	corsConfig := cors.DefaultConfig()
	// In production, require an explicit allowlist via CORS_ALLOWED_ORIGINS; deny all when unset.
	if settings.IsProduction() {
		if len(settings.CORSAllowedOrigins) == 0 {
			corsConfig.AllowOriginFunc = func(string) bool { return false }
		} else {
			corsConfig.AllowOrigins = settings.CORSAllowedOrigins
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", "Authorization", middlewares.HeaderCorrelationId, middlewares.HeaderUploadedBy)
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition", middlewares.HeaderCorrelationId)
	r.Use(cors.New(corsConfig))

	if limiter != nil {
		r.Use(limiter.Middleware())
	}
	r.Use(middlewares.ErrorLogger(a.logger))
	r.Use(gin.Recovery())

	api := r.Group("/api")
	api.POST("/uploads/:module", a.uploadHandler)
	api.POST("/uploads/:module/errors", a.uploadErrorsHandler)
	api.POST("/cross-reference", a.crossReferenceHandler)
	r.NoRoute(customNotFoundHandler)
	return r
}

func main() {
	logger := config.GetLogger()
	settings, err := config.LoadSettings()
	if err != nil {
		logger.WithFields(logrus.Fields{"field": "settings"}).Fatal(err.Error())
	}
	config.SetLogLevel(settings.LogLevel)
	if settings.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	a := &app{logger: logger, maxUploadBytes: int64(settings.MaxUploadMB) << 20}

	// The limiter shares the redis client connected below; it passes everything until then.
	var limiter *middlewares.RateLimiter
	if settings.RateLimitEnabled && settings.RedisAddress != "" {
		limiter = middlewares.NewRateLimiter(
			int64(settings.RateLimitMaxRequests),
			time.Duration(settings.RateLimitWindowSeconds)*time.Second,
		)
	}

	// Start listening immediately (Cloud Run startup probe is TCP based).
	srv := &http.Server{
		Addr:    ":" + settings.Port,
		Handler: newRouter(a, settings, limiter),
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	db, err := config.OpenDatabaseWithRetry(settings.DB, 0)
	if err != nil {
		logger.WithFields(logrus.Fields{"field": "database"}).Fatal(err.Error())
	}
	defer config.CloseDatabase(db)
	store := models.NewStore(db)

	// Redis only serializes loads; without it uploads still work.
	rdb, locker, err := config.ConnectRedis(sigCtx, settings.RedisAddress, 5)
	if err != nil {
		logger.WithFields(logrus.Fields{"field": "redis"}).Warn("load lock disabled: " + err.Error())
	}
	defer func() {
		if rdb != nil {
			_ = rdb.Close()
		}
	}()
	if limiter != nil && rdb != nil {
		limiter.Attach(rdb)
	}

	uploader := &workflow.Uploader{
		Store:              store,
		Locker:             locker,
		LockTTL:            time.Duration(settings.LoadLockTTLSeconds) * time.Second,
		ReconcileChunkSize: settings.ReconcileChunkSize,
		LoadChunkSize:      settings.LoadChunkSize,
		Logger:             logger,
	}
	publisher, err := config.NewPublisher(sigCtx, settings.PubSubProjectID, settings.IngestTopic)
	if err != nil {
		logger.WithFields(logrus.Fields{"field": "pubsub"}).Warn("load notifications disabled: " + err.Error())
	} else if publisher != nil {
		uploader.Notifier = publisher
		defer publisher.Close()
	}
	archive, err := config.NewArchive(sigCtx, settings.GCSBucket)
	if err != nil {
		logger.WithFields(logrus.Fields{"field": "gcs"}).Warn("source file archive disabled: " + err.Error())
	} else if archive != nil {
		uploader.Archive = archive
		defer archive.Close()
	}

	a.store = store
	a.uploader = uploader
	a.crossRef = &workflow.CrossReferencer{History: store, ChunkSize: settings.ReconcileChunkSize, Logger: logger}
	a.ready.Store(true)

	logger.WithFields(logrus.Fields{
		"info":    "Connection Established",
		"dialect": settings.DB.Dialect,
	}).Info("collections ingest listening on port ", settings.Port)
	log.Println("Server started successfully")

	// Block until shutdown or server error.
	select {
	case <-sigCtx.Done():
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Drain HTTP requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}
