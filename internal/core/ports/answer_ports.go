package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/fieldsurvey/internal/core/domain"
)

// AnswerStore is the durable answer set. InsertBatch is all-or-nothing and must
// ignore answers whose ID is already stored so a retried batch cannot duplicate.
type AnswerStore interface {
	Insert(ctx context.Context, answer *domain.Answer) error
	InsertBatch(ctx context.Context, answers []domain.Answer) error
}

type AnswerRepository interface {
	AnswerStore
	ListBySurvey(ctx context.Context, surveyID uuid.UUID) ([]domain.Answer, error)
	ListBySurveyAndResearcher(ctx context.Context, surveyID, researcherID uuid.UUID) ([]domain.Answer, error)
}

// Connectivity reports whether the device is online and notifies transitions.
type Connectivity interface {
	Online() bool
	Subscribe() (<-chan bool, func())
}

// LocalStore is device-local durable key-value storage for string blobs.
type LocalStore interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

type AnswerInput struct {
	SurveyID     uuid.UUID
	QuestionID   uuid.UUID
	ResearcherID uuid.UUID
	Answer       string
}

type AnswerQueue interface {
	SubmitAnswer(ctx context.Context, input AnswerInput) domain.SubmitResult
	SyncPendingAnswers(ctx context.Context) (domain.SyncResult, error)
	Pending() []domain.Answer
	LastSync() (time.Time, bool)
}

type AnswerService interface {
	Submit(ctx context.Context, input AnswerInput) (*domain.Answer, error)
	SubmitBatch(ctx context.Context, answers []domain.Answer) error
	ListBySurvey(ctx context.Context, surveyID uuid.UUID) ([]domain.Answer, error)
	ListMine(ctx context.Context, surveyID, researcherID uuid.UUID) ([]domain.Answer, error)
}
