package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shopsync/internal/client/shopify"
	"shopsync/internal/config"
	cronrunner "shopsync/internal/cron"
	"shopsync/internal/db"
	"shopsync/internal/handler"
	"shopsync/internal/logger"
	gormrepository "shopsync/internal/repository/gorm"
	"shopsync/internal/service"
	synctrack "shopsync/internal/sync"
)

func main() {
	cfgPath := os.Getenv("SHOPSYNC_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("SHOPSYNC_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)

	shopHTTP := &http.Client{Timeout: cfg.Shopify.Timeout}
	shopClient := shopify.NewClient(shopHTTP, cfg.Shopify.BaseURL, cfg.Shopify.AccessToken)

	checkpoints := &synctrack.CheckpointStore{
		Repo:       store,
		Logger:     logger,
		Expiration: cfg.Sync.CheckpointExpiration,
	}
	ranges := &synctrack.RangeResolver{Repo: store, Logger: logger}
	tracker := &synctrack.ProgressTracker{Repo: store, Logger: logger}
	importer := &service.ImportService{
		Repo:        store,
		Fetcher:     shopClient,
		Checkpoints: checkpoints,
		Ranges:      ranges,
		Tracker:     tracker,
		Logger:      logger,
		Config: service.ImportConfig{
			PageLimit: cfg.Import.PageLimit,
			MaxPages:  cfg.Import.MaxPages,
			Resume:    cfg.Import.Resume,
		},
	}
	analytics := &service.AnalyticsService{Repo: store}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)
	handler.RegisterDocs(engine)

	syncHandler := &handler.SyncHandler{
		Repo:        store,
		Importer:    importer,
		Tracker:     tracker,
		Checkpoints: checkpoints,
		Ranges:      ranges,
		Logger:      logger,
	}
	syncHandler.Register(engine)
	liveHandler := &handler.SyncLiveHandler{Repo: store, Logger: logger}
	liveHandler.Register(engine)
	storeHandler := &handler.StoreHandler{Repo: store}
	storeHandler.Register(engine)
	analyticsHandler := &handler.AnalyticsHandler{Service: analytics}
	analyticsHandler.Register(engine)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Cron.Enabled {
		runTimeout := cfg.Sync.RunTimeout
		_, err = cronRunner.Add(cfg.Cron.TimeoutSweep, func(ctx context.Context) {
			tracker.CleanupTimedOutSyncs(ctx, runTimeout)
		})
		if err != nil {
			logger.Warn("cron register timeout sweep failed", zap.Error(err))
		}
		_, err = cronRunner.Add(cfg.Cron.CheckpointSweep, func(ctx context.Context) {
			checkpoints.CleanupExpired(ctx)
		})
		if err != nil {
			logger.Warn("cron register checkpoint sweep failed", zap.Error(err))
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	errCh := make(chan error, 1)

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
