package main

import (
	"context"
	"database/sql"
	"flag"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/vncsmyrnk/fieldsurvey/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/fieldsurvey/internal/config"
	"github.com/vncsmyrnk/fieldsurvey/internal/core/services"
	"github.com/vncsmyrnk/fieldsurvey/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	db := cfg.Database
	flag.StringVar(&db.Host, "db-host", db.Host, "Database host")
	flag.StringVar(&db.Port, "db-port", db.Port, "Database port")
	flag.StringVar(&db.User, "db-user", db.User, "Database user")
	flag.StringVar(&db.Password, "db-pass", db.Password, "Database password")
	flag.StringVar(&db.Name, "db-name", db.Name, "Database name")
	concurrency := flag.Int("concurrency", cfg.Summary.Concurrency, "Surveys summarized at once")
	timeout := flag.Duration("timeout", cfg.Summary.Timeout, "Job deadline")
	flag.Parse()

	log := logger.New(logger.Config{Level: cfg.Log.Level, File: cfg.Log.File})
	defer log.Sync()

	conn, err := sql.Open("postgres", db.ConnString())
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err))
	}
	defer conn.Close()

	if err := conn.Ping(); err != nil {
		log.Fatal("failed to reach database", zap.Error(err))
	}

	surveyRepo := postgres.NewSurveyRepository(conn)
	reports := services.NewReportService(
		surveyRepo,
		postgres.NewAnswerRepository(conn),
		postgres.NewReportRepository(conn),
		log,
	)
	summaryService := services.NewSummaryService(surveyRepo, reports, *concurrency, log)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	log.Info("starting report summarization job")

	if err := summaryService.SummarizeAllSurveys(ctx); err != nil {
		log.Fatal("failed to summarize surveys", zap.Error(err))
	}

	log.Info("report summarization completed")
}
