package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vncsmyrnk/fieldsurvey/internal/core/domain"
	"github.com/vncsmyrnk/fieldsurvey/internal/core/ports"
)

const codeAttempts = 3

type surveyService struct {
	repo ports.SurveyRepository
	now  func() time.Time
}

func NewSurveyService(repo ports.SurveyRepository) ports.SurveyService {
	return &surveyService{
		repo: repo,
		now:  time.Now,
	}
}

func (s *surveyService) Create(ctx context.Context, input ports.CreateSurveyInput) (*domain.Survey, error) {
	survey := &domain.Survey{
		Name:           strings.TrimSpace(input.Name),
		City:           strings.TrimSpace(input.City),
		State:          strings.TrimSpace(input.State),
		Date:           input.Date,
		Contractor:     input.Contractor,
		CurrentManager: input.CurrentManager,
		Questions:      []domain.Question{},
	}
	if err := validateSurvey(survey); err != nil {
		return nil, err
	}

	if err := s.save(ctx, survey); err != nil {
		return nil, err
	}
	return survey, nil
}

// save assigns a fresh ID and code and retries when the code collides.
func (s *surveyService) save(ctx context.Context, survey *domain.Survey) error {
	now := s.now().UTC()
	survey.ID = uuid.New()
	survey.CreatedAt = now
	survey.UpdatedAt = now

	var err error
	for attempt := 0; attempt < codeAttempts; attempt++ {
		survey.Code = GenerateSurveyCode(survey.City, survey.State, now.Add(time.Duration(attempt)*time.Millisecond))
		err = s.repo.Save(ctx, survey)
		if !errors.Is(err, domain.ErrDuplicateCode) {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("failed to save survey: %w", err)
	}
	return nil
}

// GenerateSurveyCode builds the short public code of a survey: the first three
// letters of the city, the first two of the state, and six time-derived digits.
func GenerateSurveyCode(city, state string, at time.Time) string {
	return fmt.Sprintf("%s%s%06d",
		strings.ToUpper(prefix(city, 3)),
		strings.ToUpper(prefix(state, 2)),
		at.UnixMilli()%1_000_000,
	)
}

func prefix(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}

func (s *surveyService) Update(ctx context.Context, id uuid.UUID, input ports.UpdateSurveyInput) (*domain.Survey, error) {
	survey, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		survey.Name = strings.TrimSpace(*input.Name)
	}
	if input.City != nil {
		survey.City = strings.TrimSpace(*input.City)
	}
	if input.State != nil {
		survey.State = strings.TrimSpace(*input.State)
	}
	if input.Date != nil {
		survey.Date = *input.Date
	}
	if input.Contractor != nil {
		survey.Contractor = *input.Contractor
	}
	if input.CurrentManager != nil {
		survey.CurrentManager = *input.CurrentManager
	}
	if err := validateSurvey(survey); err != nil {
		return nil, err
	}

	return s.update(ctx, survey)
}

func (s *surveyService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *surveyService) Duplicate(ctx context.Context, id uuid.UUID) (*domain.Survey, error) {
	original, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	dup := *original
	dup.Name = original.Name + " (Copy)"
	dup.Questions = make([]domain.Question, len(original.Questions))
	for i, q := range original.Questions {
		q.ID = uuid.New()
		q.Options = append([]string(nil), q.Options...)
		dup.Questions[i] = q
	}

	if err := s.save(ctx, &dup); err != nil {
		return nil, err
	}
	return &dup, nil
}

func (s *surveyService) GetSurvey(ctx context.Context, id uuid.UUID) (*domain.Survey, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *surveyService) ListSurveys(ctx context.Context) ([]*domain.Survey, error) {
	return s.repo.GetAll(ctx)
}

func (s *surveyService) AddQuestion(ctx context.Context, surveyID uuid.UUID, input ports.QuestionInput) (*domain.Survey, error) {
	survey, err := s.repo.GetByID(ctx, surveyID)
	if err != nil {
		return nil, err
	}

	q := domain.Question{
		ID:       uuid.New(),
		Text:     strings.TrimSpace(input.Text),
		Type:     input.Type,
		Options:  cleanOptions(input.Options),
		Required: input.Required,
	}
	if err := validateQuestion(&q); err != nil {
		return nil, err
	}

	survey.Questions = append(survey.Questions, q)
	return s.update(ctx, survey)
}

func (s *surveyService) UpdateQuestion(ctx context.Context, surveyID, questionID uuid.UUID, input ports.UpdateQuestionInput) (*domain.Survey, error) {
	survey, err := s.repo.GetByID(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	idx := survey.QuestionIndex(questionID)
	if idx < 0 {
		return nil, domain.ErrQuestionNotFound
	}

	q := survey.Questions[idx]
	if input.Text != nil {
		q.Text = strings.TrimSpace(*input.Text)
	}
	if input.Type != nil {
		q.Type = *input.Type
	}
	if input.Options != nil {
		q.Options = cleanOptions(input.Options)
	}
	if input.Required != nil {
		q.Required = *input.Required
	}
	if err := validateQuestion(&q); err != nil {
		return nil, err
	}

	survey.Questions[idx] = q
	return s.update(ctx, survey)
}

func (s *surveyService) DeleteQuestion(ctx context.Context, surveyID, questionID uuid.UUID) (*domain.Survey, error) {
	survey, err := s.repo.GetByID(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	idx := survey.QuestionIndex(questionID)
	if idx < 0 {
		return nil, domain.ErrQuestionNotFound
	}

	survey.Questions = append(survey.Questions[:idx], survey.Questions[idx+1:]...)
	return s.update(ctx, survey)
}

// ReorderQuestions expects order to name every question of the survey exactly once.
func (s *surveyService) ReorderQuestions(ctx context.Context, surveyID uuid.UUID, order []uuid.UUID) (*domain.Survey, error) {
	survey, err := s.repo.GetByID(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if len(order) != len(survey.Questions) {
		return nil, domain.NewValidationError("order", "must list every question of the survey")
	}

	reordered := make([]domain.Question, 0, len(order))
	seen := make(map[uuid.UUID]bool, len(order))
	for _, id := range order {
		idx := survey.QuestionIndex(id)
		if idx < 0 || seen[id] {
			return nil, domain.NewValidationError("order", "must list every question of the survey")
		}
		seen[id] = true
		reordered = append(reordered, survey.Questions[idx])
	}

	survey.Questions = reordered
	return s.update(ctx, survey)
}

func (s *surveyService) update(ctx context.Context, survey *domain.Survey) (*domain.Survey, error) {
	survey.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, survey); err != nil {
		return nil, err
	}
	return survey, nil
}

func validateSurvey(s *domain.Survey) error {
	if s.Name == "" {
		return domain.NewValidationError("name", "is required")
	}
	if s.City == "" {
		return domain.NewValidationError("city", "is required")
	}
	if len([]rune(s.State)) < 2 {
		return domain.NewValidationError("state", "must have at least two letters")
	}
	if s.CurrentManager.Type != "" && !s.CurrentManager.Type.Valid() {
		return domain.NewValidationError("current_manager.type", "is not a known manager type")
	}
	return nil
}

func validateQuestion(q *domain.Question) error {
	if q.Text == "" {
		return domain.NewValidationError("text", "is required")
	}
	switch q.Type {
	case domain.QuestionTypeText:
		q.Options = nil
	case domain.QuestionTypeMultipleChoice:
		if len(q.Options) < 2 {
			return domain.NewValidationError("options", "multiple choice questions need at least two options")
		}
	default:
		return domain.NewValidationError("type", "must be text or multiple_choice")
	}
	return nil
}

func cleanOptions(options []string) []string {
	out := make([]string, 0, len(options))
	for _, o := range options {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
