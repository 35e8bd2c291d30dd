package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"

	"github.com/padraicbc/racelog/config"
	"github.com/padraicbc/racelog/db"
	"github.com/padraicbc/racelog/handlers"
	applog "github.com/padraicbc/racelog/logger"
	"github.com/padraicbc/racelog/metrics"
	mw "github.com/padraicbc/racelog/middleware"
	"github.com/padraicbc/racelog/oauth"
	"github.com/padraicbc/racelog/repository"
)

func main() {
	cfg := config.Load()
	logger, err := applog.New(cfg.Debug)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	ctx := context.Background()
	bdb, err := db.Setup(ctx, cfg)
	if err != nil {
		logger.Fatal("database setup failed", zap.Error(err))
	}
	defer bdb.Close()

	if err := db.CreateTables(ctx, bdb); err != nil {
		logger.Fatal("create tables failed", zap.Error(err))
	}

	races := repository.NewRaceRepository(bdb)
	users := repository.NewUserRepository(bdb)
	userCache := mw.NewUserCache(users, cfg.UserCacheTTL)
	m := metrics.New()

	opts := []handlers.Option{
		handlers.WithLogger(logger),
		handlers.WithTokenTTL(cfg.TokenTTL),
		handlers.WithUserCache(userCache),
		handlers.WithMetrics(m),
		handlers.WithPinger(bdb),
	}
	if cfg.GoogleClientID != "" {
		opts = append(opts, handlers.WithGoogle(oauth.NewGoogleVerifier(cfg.GoogleClientID, logger)))
	}
	h := handlers.New(races, users, cfg.JWTKey(), opts...)

	globalLimit, err := mw.RateLimit(cfg.RateLimit, "global")
	if err != nil {
		logger.Fatal("rate limit", zap.Error(err))
	}
	authLimit, err := mw.RateLimit(cfg.AuthRateLimit, "auth")
	if err != nil {
		logger.Fatal("auth rate limit", zap.Error(err))
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handlers.ErrorHandler(logger)
	e.Use(m.Middleware())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogError:    true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.Int("status", v.Status),
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			switch {
			case v.Status >= 500:
				logger.Error("http request", fields...)
			case v.Status >= 400:
				logger.Warn("http request", fields...)
			default:
				logger.Info("http request", fields...)
			}
			return nil
		},
	}))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
		ExposeHeaders:    []string{echo.HeaderContentDisposition, "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
	}))

	// Unlimited operational endpoints
	e.GET("/health", h.Health)
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	api := e.Group("/api", globalLimit)
	h.Routes(api, mw.JWT(cfg.JWTKey(), userCache), authLimit)

	if cfg.Debug {
		logger.Info("starting server", zap.String("mode", "debug"), zap.String("addr", cfg.Port))
		if err := e.Start(cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server exited", zap.Error(err))
		}
		return
	}

	autoTLS := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		Cache:      autocert.DirCache(".cache"),
		HostPolicy: autocert.HostWhitelist(cfg.TLSDomains...),
	}

	s := &http.Server{
		Addr:         ":443",
		Handler:      e,
		TLSConfig:    autoTLS.TLSConfig(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	logger.Info("starting server", zap.String("mode", "tls"), zap.Strings("domains", cfg.TLSDomains))
	if err := s.ListenAndServeTLS("", ""); err != http.ErrServerClosed {
		logger.Error("tls server exited", zap.Error(err))
		os.Exit(1)
	}
}
