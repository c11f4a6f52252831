package main

import (
	"context"
	"database/sql"
	"errors"
	stdhttp "net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	_ "github.com/vncsmyrnk/fieldsurvey/docs"
	"github.com/vncsmyrnk/fieldsurvey/internal/adapters/handler/http"
	"github.com/vncsmyrnk/fieldsurvey/internal/adapters/oauth/google"
	"github.com/vncsmyrnk/fieldsurvey/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/fieldsurvey/internal/config"
	"github.com/vncsmyrnk/fieldsurvey/internal/core/services"
	"github.com/vncsmyrnk/fieldsurvey/internal/logger"
	"github.com/vncsmyrnk/fieldsurvey/internal/metrics"
)

// @title        fieldsurvey API
// @version      1.0
// @description  Survey management, offline answer collection and reporting.
// @BasePath     /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, File: cfg.Log.File})
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	db, err := sql.Open("postgres", cfg.Database.ConnString())
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		log.Fatal("failed to reach database", zap.Error(err))
	}

	surveyRepo := postgres.NewSurveyRepository(db)
	answerRepo := postgres.NewAnswerRepository(db)
	reportRepo := postgres.NewReportRepository(db)
	userRepo := postgres.NewUserRepository(db)
	assignmentRepo := postgres.NewAssignmentRepository(db)
	authRepo := postgres.NewAuthRepository(db)

	authService := services.NewAuthService(userRepo, authRepo, google.NewVerifier(), services.AuthOptions{
		Secret:         cfg.Auth.JWTSecret,
		GoogleClientID: cfg.Auth.GoogleClientID,
		AccessTTL:      cfg.Auth.AccessTokenTTL,
		RefreshTTL:     cfg.Auth.RefreshTokenTTL,
	})

	handlers := http.Handlers{
		Survey:     http.NewSurveyHandler(services.NewSurveyService(surveyRepo)),
		Answer:     http.NewAnswerHandler(services.NewAnswerService(surveyRepo, answerRepo)),
		Report:     http.NewReportHandler(services.NewReportService(surveyRepo, answerRepo, reportRepo, log)),
		User:       http.NewUserHandler(services.NewUserService(userRepo)),
		Assignment: http.NewAssignmentHandler(services.NewAssignmentService(assignmentRepo, surveyRepo, userRepo)),
		Auth: http.NewAuthHandler(authService, cfg.Auth.RedirectURL, http.CookieOptions{
			Domain:     cfg.Auth.CookieDomain,
			SameSite:   cfg.Auth.CookieSameSite,
			AccessTTL:  cfg.Auth.AccessTokenTTL,
			RefreshTTL: cfg.Auth.RefreshTokenTTL,
		}),
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.Register(registry)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	routerCfg := http.RouterConfig{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Metrics:        metrics.Handler(registry),
		Logger:         log,
	}
	if cfg.RateLimit.Enabled {
		limiter := http.NewIPRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst, 10*time.Minute)
		go limiter.Cleanup(ctx)
		routerCfg.AnswerLimiter = limiter
	}

	server := &stdhttp.Server{
		Addr:         cfg.Server.Addr,
		Handler:      http.NewHandler(handlers, authService, routerCfg),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("listening", zap.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("gracefully shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal("shutdown failed", zap.Error(err))
	}
}
