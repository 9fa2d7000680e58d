package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/anonreport/incident-api/api/swagger"
	"github.com/anonreport/incident-api/internal/handler"
	"github.com/anonreport/incident-api/internal/middleware"
	"github.com/anonreport/incident-api/internal/repository"
	"github.com/anonreport/incident-api/internal/service"
	"github.com/anonreport/incident-api/pkg/cache"
	"github.com/anonreport/incident-api/pkg/config"
	"github.com/anonreport/incident-api/pkg/database"
	"github.com/anonreport/incident-api/pkg/logger"
	corsmiddleware "github.com/anonreport/incident-api/pkg/middleware/cors"
	reqidmiddleware "github.com/anonreport/incident-api/pkg/middleware/requestid"
	"github.com/anonreport/incident-api/pkg/storage"
	"github.com/anonreport/incident-api/pkg/vision"
)

// @title Incident Report API
// @version 1.0.0
// @description Anonymous incident reporting backend
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.EnsureSchema(ctx, db); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
		logr.Info("database schema ensured")
	}

	metrics := service.NewMetricsService()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, report cache disabled", zap.Error(err))
		redisClient = nil
	}
	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, "incident")
		defer cacheRepo.Close()
		cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Redis.TTL, logr)
	}

	images, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("init image storage: %w", err)
	}

	var generator service.ImageGenerator
	if cfg.Gemini.APIKey != "" {
		gemini, err := vision.NewGeminiClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			return fmt.Errorf("init gemini client: %w", err)
		}
		generator = gemini
	} else {
		logr.Warn("GEMINI_API_KEY not set, image analysis will fail")
	}

	reportRepo := repository.NewReportRepository(db, metrics)
	reportSvc := service.NewReportService(reportRepo, cacheSvc, images, metrics, logr)
	classifierSvc := service.NewClassifierService(generator, metrics, logr)
	sessionSvc := service.NewSessionService(cfg.Session.Secret, cfg.Session.Issuer)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	handler.RegisterOpsRoutes(r, handler.NewMetricsHandler(metrics, reportRepo, logr))
	handler.RegisterReportRoutes(
		r.Group(cfg.APIPrefix),
		handler.NewReportHandler(reportSvc),
		handler.NewAnalysisHandler(classifierSvc),
		sessionSvc,
	)

	if local, ok := images.(*storage.LocalStorage); ok && strings.HasPrefix(cfg.Storage.PublicBaseURL, "/") {
		r.Static(cfg.Storage.PublicBaseURL, local.Dir())
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
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

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
