package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vncsmyrnk/fieldsurvey/internal/core/ports"
)

type summaryService struct {
	surveyRepo  ports.SurveyRepository
	reports     ports.ReportService
	concurrency int
	log         *zap.Logger
}

// NewSummaryService returns a service that regenerates the sample report of every
// survey. concurrency bounds the number of surveys processed at once; values
// below one mean no bound.
func NewSummaryService(surveyRepo ports.SurveyRepository, reports ports.ReportService, concurrency int, log *zap.Logger) ports.SummaryService {
	if log == nil {
		log = zap.NewNop()
	}
	return &summaryService{
		surveyRepo:  surveyRepo,
		reports:     reports,
		concurrency: concurrency,
		log:         log,
	}
}

func (s *summaryService) SummarizeAllSurveys(ctx context.Context) error {
	surveys, err := s.surveyRepo.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch all surveys: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	if s.concurrency > 0 {
		g.SetLimit(s.concurrency)
	}

	for _, survey := range surveys {
		id := survey.ID
		g.Go(func() error {
			report, err := s.reports.GenerateSample(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to summarize survey %s: %w", id, err)
			}
			s.log.Debug("survey summarized", zap.String("survey_id", id.String()), zap.String("report_id", report.ID.String()))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	s.log.Info("all surveys summarized", zap.Int("surveys", len(surveys)))
	return nil
}
