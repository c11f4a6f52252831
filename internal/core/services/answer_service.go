package services

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vncsmyrnk/fieldsurvey/internal/core/domain"
	"github.com/vncsmyrnk/fieldsurvey/internal/core/ports"
	"github.com/vncsmyrnk/fieldsurvey/internal/metrics"
)

type answerService struct {
	surveyRepo ports.SurveyRepository
	answerRepo ports.AnswerRepository
}

func NewAnswerService(surveyRepo ports.SurveyRepository, answerRepo ports.AnswerRepository) ports.AnswerService {
	return &answerService{
		surveyRepo: surveyRepo,
		answerRepo: answerRepo,
	}
}

func (s *answerService) Submit(ctx context.Context, input ports.AnswerInput) (answer *domain.Answer, err error) {
	defer func() { countStored("single", 1, err) }()

	survey, err := s.surveyRepo.GetByID(ctx, input.SurveyID)
	if err != nil {
		return nil, err
	}

	answer = &domain.Answer{
		ID:           uuid.New(),
		SurveyID:     input.SurveyID,
		QuestionID:   input.QuestionID,
		ResearcherID: input.ResearcherID,
		Answer:       input.Answer,
		CreatedAt:    time.Now().UTC(),
	}
	if err := validateAnswer(survey, answer); err != nil {
		return nil, err
	}

	if err := s.answerRepo.Insert(ctx, answer); err != nil {
		return nil, domain.NewPersistenceError("insert answer", err)
	}
	return answer, nil
}

// SubmitBatch stores answers that already carry their client-side ID and
// timestamp. Either every answer is valid and stored, or nothing is.
func (s *answerService) SubmitBatch(ctx context.Context, answers []domain.Answer) (err error) {
	if len(answers) == 0 {
		return nil
	}
	defer func() { countStored("batch", len(answers), err) }()

	surveys := make(map[uuid.UUID]*domain.Survey)
	for i := range answers {
		a := &answers[i]
		if a.ID == uuid.Nil {
			return domain.NewValidationError("id", "is required")
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = time.Now().UTC()
		}

		survey, ok := surveys[a.SurveyID]
		if !ok {
			var err error
			survey, err = s.surveyRepo.GetByID(ctx, a.SurveyID)
			if err != nil {
				return err
			}
			surveys[a.SurveyID] = survey
		}
		if err := validateAnswer(survey, a); err != nil {
			return err
		}
	}

	if err := s.answerRepo.InsertBatch(ctx, answers); err != nil {
		return domain.NewPersistenceError("insert answer batch", err)
	}
	return nil
}

func (s *answerService) ListBySurvey(ctx context.Context, surveyID uuid.UUID) ([]domain.Answer, error) {
	if _, err := s.surveyRepo.GetByID(ctx, surveyID); err != nil {
		return nil, err
	}
	return s.answerRepo.ListBySurvey(ctx, surveyID)
}

func (s *answerService) ListMine(ctx context.Context, surveyID, researcherID uuid.UUID) ([]domain.Answer, error) {
	return s.answerRepo.ListBySurveyAndResearcher(ctx, surveyID, researcherID)
}

func countStored(mode string, n int, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrSurveyNotFound):
		result = "invalid"
	default:
		result = "failed"
	}
	metrics.AnswersStored.WithLabelValues(mode, result).Add(float64(n))
}

func validateAnswer(survey *domain.Survey, a *domain.Answer) error {
	if a.ResearcherID == uuid.Nil {
		return domain.NewValidationError("researcher_id", "is required")
	}
	if strings.TrimSpace(a.Answer) == "" {
		return domain.NewValidationError("answer", "must not be empty")
	}

	idx := survey.QuestionIndex(a.QuestionID)
	if idx < 0 {
		return domain.NewValidationError("question_id", "does not belong to the survey")
	}
	q := survey.Questions[idx]
	if q.Type == domain.QuestionTypeMultipleChoice && !slices.Contains(q.Options, a.Answer) {
		return domain.NewValidationError("answer", "is not one of the question options")
	}
	return nil
}
