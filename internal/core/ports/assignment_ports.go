package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/fieldsurvey/internal/core/domain"
)

type AssignmentRepository interface {
	Save(ctx context.Context, assignment *domain.Assignment) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Assignment, error)
	UpdateStatus(ctx context.Context, assignment *domain.Assignment) error
	ListByResearcher(ctx context.Context, researcherID uuid.UUID) ([]*domain.Assignment, error)
	ListBySurvey(ctx context.Context, surveyID uuid.UUID) ([]*domain.Assignment, error)
}

type AssignmentService interface {
	Assign(ctx context.Context, researcherID, surveyID uuid.UUID) (*domain.Assignment, error)
	Start(ctx context.Context, id, researcherID uuid.UUID) (*domain.Assignment, error)
	Complete(ctx context.Context, id, researcherID uuid.UUID) (*domain.Assignment, error)
	ListForResearcher(ctx context.Context, researcherID uuid.UUID) ([]*domain.Assignment, error)
	ListForSurvey(ctx context.Context, surveyID uuid.UUID) ([]*domain.Assignment, error)
}
