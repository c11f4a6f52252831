package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/vncsmyrnk/fieldsurvey/internal/core/domain"
	"github.com/vncsmyrnk/fieldsurvey/internal/core/ports"
	"github.com/vncsmyrnk/fieldsurvey/internal/core/reporting"
	"github.com/vncsmyrnk/fieldsurvey/internal/metrics"
)

var tracer = otel.Tracer("github.com/vncsmyrnk/fieldsurvey/internal/core/services")

type reportService struct {
	surveyRepo ports.SurveyRepository
	answerRepo ports.AnswerRepository
	reportRepo ports.ReportRepository
	log        *zap.Logger
	now        func() time.Time
}

func NewReportService(surveyRepo ports.SurveyRepository, answerRepo ports.AnswerRepository, reportRepo ports.ReportRepository, log *zap.Logger) ports.ReportService {
	if log == nil {
		log = zap.NewNop()
	}
	return &reportService{
		surveyRepo: surveyRepo,
		answerRepo: answerRepo,
		reportRepo: reportRepo,
		log:        log,
		now:        time.Now,
	}
}

func (s *reportService) GenerateVariable(ctx context.Context, surveyID, questionID uuid.UUID) (*domain.Report, error) {
	params := map[string]any{"question_id": questionID.String()}
	return s.generate(ctx, surveyID, domain.ReportTypeVariable, params, func(survey *domain.Survey, answers []domain.Answer) (any, error) {
		if survey.QuestionIndex(questionID) < 0 {
			return nil, domain.NewValidationError("question_id", "does not belong to the survey")
		}
		return reporting.BuildVariableReport(answers, questionID), nil
	})
}

func (s *reportService) GenerateCross(ctx context.Context, surveyID uuid.UUID, variables []uuid.UUID) (*domain.Report, error) {
	ids := make([]string, len(variables))
	for i, v := range variables {
		ids[i] = v.String()
	}
	params := map[string]any{"variables": ids}
	return s.generate(ctx, surveyID, domain.ReportTypeCross, params, func(survey *domain.Survey, answers []domain.Answer) (any, error) {
		for _, v := range variables {
			if survey.QuestionIndex(v) < 0 {
				return nil, domain.NewValidationError("variables", "every variable must be a question of the survey")
			}
		}
		return reporting.BuildCrossReport(answers, variables)
	})
}

func (s *reportService) GenerateSample(ctx context.Context, surveyID uuid.UUID) (*domain.Report, error) {
	return s.generate(ctx, surveyID, domain.ReportTypeSample, map[string]any{}, func(_ *domain.Survey, answers []domain.Answer) (any, error) {
		return reporting.BuildSampleReport(answers), nil
	})
}

func (s *reportService) GenerateItem(ctx context.Context, surveyID uuid.UUID) (*domain.Report, error) {
	return s.generate(ctx, surveyID, domain.ReportTypeItem, map[string]any{}, func(survey *domain.Survey, answers []domain.Answer) (any, error) {
		return reporting.BuildItemReport(answers, survey.Questions), nil
	})
}

type buildFunc func(survey *domain.Survey, answers []domain.Answer) (any, error)

func (s *reportService) generate(ctx context.Context, surveyID uuid.UUID, reportType domain.ReportType, params map[string]any, build buildFunc) (report *domain.Report, err error) {
	ctx, span := tracer.Start(ctx, "report.generate", trace.WithAttributes(
		attribute.String("survey.id", surveyID.String()),
		attribute.String("report.type", string(reportType)),
	))
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		metrics.ReportGenerations.WithLabelValues(string(reportType), result).Inc()
		span.End()
	}()

	survey, err := s.surveyRepo.GetByID(ctx, surveyID)
	if err != nil {
		return nil, err
	}

	answers, err := s.answerRepo.ListBySurvey(ctx, surveyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}

	data, err := build(survey, answers)
	if err != nil {
		return nil, err
	}

	report = &domain.Report{
		ID:         uuid.New(),
		SurveyID:   surveyID,
		Type:       reportType,
		Parameters: params,
		CreatedAt:  s.now().UTC(),
		Empty:      reporting.IsEmpty(data),
		Data:       data,
	}
	span.SetAttributes(attribute.Int("answers.count", len(answers)), attribute.Bool("report.empty", report.Empty))

	if err := s.reportRepo.Save(ctx, report); err != nil {
		return nil, domain.NewPersistenceError("save report", err)
	}

	s.log.Info("report generated",
		zap.String("report_id", report.ID.String()),
		zap.String("survey_id", surveyID.String()),
		zap.String("type", string(reportType)),
		zap.Int("answers", len(answers)),
		zap.Bool("empty", report.Empty),
	)
	return report, nil
}

func (s *reportService) GetReport(ctx context.Context, id uuid.UUID) (*domain.Report, error) {
	return s.reportRepo.GetByID(ctx, id)
}

func (s *reportService) ListReports(ctx context.Context, surveyID uuid.UUID) ([]*domain.Report, error) {
	if _, err := s.surveyRepo.GetByID(ctx, surveyID); err != nil {
		return nil, err
	}
	return s.reportRepo.ListBySurvey(ctx, surveyID)
}

// Export renders a stored report. "excel" yields the same CSV document, which
// spreadsheet tools open directly.
func (s *reportService) Export(ctx context.Context, id uuid.UUID, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", "csv", "excel":
	default:
		return nil, domain.NewValidationError("format", "must be csv or excel")
	}

	report, err := s.reportRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	rows, err := reporting.RowsFromData(report.Data)
	if err != nil {
		return nil, err
	}
	return reporting.ToCSV(rows)
}
