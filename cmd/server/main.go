package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/roadside-assist/internal/config"
	"github.com/iliyamo/roadside-assist/internal/database"
	"github.com/iliyamo/roadside-assist/internal/handler"
	"github.com/iliyamo/roadside-assist/internal/logger"
	"github.com/iliyamo/roadside-assist/internal/middleware"
	"github.com/iliyamo/roadside-assist/internal/repository"
	"github.com/iliyamo/roadside-assist/internal/router"
	"github.com/iliyamo/roadside-assist/internal/service"
	"github.com/iliyamo/roadside-assist/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	zl, err := logger.New(cfg.IsDevelopment())
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		zl.Fatal("database connect failed", zap.Error(err))
	}
	defer db.Close()
	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			zl.Fatal("schema migration failed", zap.Error(err))
		}
	}

	// Redis is optional: without it the limiter and the cache pass through.
	rlCfg := config.LoadRateLimitConfig()
	cacheCfg := config.LoadCacheConfig()
	rdb, err := config.NewRedisClient(ctx, config.LoadRedisConfig())
	if err != nil {
		zl.Warn("redis unavailable; rate limiting and caching disabled", zap.Error(err))
	} else {
		defer rdb.Close()
	}

	// ---- storage ----
	users := repository.NewUserRepo(db)
	workshops := repository.NewWorkshopRepo(db)
	assignments := repository.NewAssignmentRepo(db)
	requests := repository.NewRequestRepo(db)
	reviews := repository.NewReviewRepo(db)
	notifications := repository.NewNotificationRepo(db)
	stats := repository.NewStatsRepo(db)

	// ---- services ----
	tokens := utils.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	purger := middleware.NewPurger(rdb, cacheCfg.Prefix, zl)

	authSvc := service.NewAuthService(users, utils.NewPasswordHasher(cfg.BcryptCost), tokens, cfg.AdminSignupSecret, zl)
	requestSvc := service.NewRequestService(requests, workshops, assignments, cfg.StrictTransitions, zl)
	workshopSvc := service.NewWorkshopService(workshops, reviews, zl)
	adminSvc := service.NewAdminService(users, workshops, assignments, stats, purger, zl)
	reviewSvc := service.NewReviewService(requests, reviews, purger)
	notificationSvc := service.NewNotificationService(notifications, users)

	// ---- HTTP ----
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()

	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(echomw.BodyLimit("1M"))
	e.Use(middleware.RequestLogger(zl))
	e.Use(middleware.Metrics())
	// No caller is known yet at this point, so the global bucket is per ip
	// and route; authenticated routes get a second bucket keyed as configured.
	e.Use(middleware.NewTokenBucket(rlCfg.WithKeyStrategy("ip_route", rlCfg.Prefix+":ip"), rdb, zl))

	authn := middleware.Chain(middleware.JWTAuth(tokens), middleware.NewTokenBucket(rlCfg, rdb, zl))
	authLimiter := middleware.NewTokenBucket(rlCfg.WithCapacity(rlCfg.AuthCapacity, rlCfg.Prefix+":auth"), rdb, zl)

	timeout := cfg.RequestTimeout
	authH := handler.NewAuthHandler(authSvc, timeout, zl)
	workshopH := handler.NewWorkshopHandler(workshopSvc, timeout, zl)
	requestH := handler.NewRequestHandler(requestSvc, reviewSvc, timeout, zl)
	adminH := handler.NewAdminHandler(adminSvc, timeout, zl)
	notificationH := handler.NewNotificationHandler(notificationSvc, timeout, zl)

	router.RegisterRoutes(e, handler.NewHealthHandler(db, 2*time.Second, zl))
	router.RegisterAuth(e, authH, authn, authLimiter)
	router.RegisterPublic(e, workshopH, middleware.NewRedisCache(cacheCfg, rdb, zl))
	router.RegisterRequests(e, requestH, workshopH, notificationH, authn)
	router.RegisterAdmin(e, adminH, requestH, notificationH, authn)

	addr := ":" + cfg.Port
	go func() {
		zl.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env),
			zap.Bool("strict_transitions", cfg.StrictTransitions), zap.Bool("redis", rdb != nil))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zl.Error("graceful shutdown failed", zap.Error(err))
	}
}
