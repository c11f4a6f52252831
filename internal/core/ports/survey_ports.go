package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/fieldsurvey/internal/core/domain"
)

type SurveyRepository interface {
	Save(ctx context.Context, survey *domain.Survey) error
	Update(ctx context.Context, survey *domain.Survey) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Survey, error)
	GetAll(ctx context.Context) ([]*domain.Survey, error)
}

type CreateSurveyInput struct {
	Name           string
	City           string
	State          string
	Date           string
	Contractor     string
	CurrentManager domain.Manager
}

// UpdateSurveyInput applies only the non-nil fields.
type UpdateSurveyInput struct {
	Name           *string
	City           *string
	State          *string
	Date           *string
	Contractor     *string
	CurrentManager *domain.Manager
}

type QuestionInput struct {
	Text     string
	Type     domain.QuestionType
	Options  []string
	Required bool
}

type UpdateQuestionInput struct {
	Text     *string
	Type     *domain.QuestionType
	Options  []string
	Required *bool
}

type SurveyService interface {
	Create(ctx context.Context, input CreateSurveyInput) (*domain.Survey, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateSurveyInput) (*domain.Survey, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Duplicate(ctx context.Context, id uuid.UUID) (*domain.Survey, error)
	GetSurvey(ctx context.Context, id uuid.UUID) (*domain.Survey, error)
	ListSurveys(ctx context.Context) ([]*domain.Survey, error)
	AddQuestion(ctx context.Context, surveyID uuid.UUID, input QuestionInput) (*domain.Survey, error)
	UpdateQuestion(ctx context.Context, surveyID, questionID uuid.UUID, input UpdateQuestionInput) (*domain.Survey, error)
	DeleteQuestion(ctx context.Context, surveyID, questionID uuid.UUID) (*domain.Survey, error)
	ReorderQuestions(ctx context.Context, surveyID uuid.UUID, order []uuid.UUID) (*domain.Survey, error)
}
