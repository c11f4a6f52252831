package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/fieldsurvey/internal/core/domain"
)

type ReportRepository interface {
	Save(ctx context.Context, report *domain.Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Report, error)
	ListBySurvey(ctx context.Context, surveyID uuid.UUID) ([]*domain.Report, error)
}

type ReportService interface {
	GenerateVariable(ctx context.Context, surveyID, questionID uuid.UUID) (*domain.Report, error)
	GenerateCross(ctx context.Context, surveyID uuid.UUID, variables []uuid.UUID) (*domain.Report, error)
	GenerateSample(ctx context.Context, surveyID uuid.UUID) (*domain.Report, error)
	GenerateItem(ctx context.Context, surveyID uuid.UUID) (*domain.Report, error)
	GetReport(ctx context.Context, id uuid.UUID) (*domain.Report, error)
	ListReports(ctx context.Context, surveyID uuid.UUID) ([]*domain.Report, error)
	Export(ctx context.Context, id uuid.UUID, format string) ([]byte, error)
}

type SummaryService interface {
	SummarizeAllSurveys(ctx context.Context) error
}
