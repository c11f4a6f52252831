package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vncsmyrnk/fieldsurvey/internal/core/domain"
	"github.com/vncsmyrnk/fieldsurvey/internal/core/ports"
)

type assignmentService struct {
	repo       ports.AssignmentRepository
	surveyRepo ports.SurveyRepository
	userRepo   ports.UserRepository
}

func NewAssignmentService(repo ports.AssignmentRepository, surveyRepo ports.SurveyRepository, userRepo ports.UserRepository) ports.AssignmentService {
	return &assignmentService{
		repo:       repo,
		surveyRepo: surveyRepo,
		userRepo:   userRepo,
	}
}

func (s *assignmentService) Assign(ctx context.Context, researcherID, surveyID uuid.UUID) (*domain.Assignment, error) {
	if _, err := s.surveyRepo.GetByID(ctx, surveyID); err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, researcherID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	if user.Role != domain.RoleResearcher {
		return nil, domain.NewValidationError("researcher_id", "must reference a researcher")
	}

	a := &domain.Assignment{
		ID:           uuid.New(),
		SurveyID:     surveyID,
		ResearcherID: researcherID,
		Status:       domain.AssignmentPending,
		AssignedAt:   time.Now().UTC(),
	}
	if err := s.repo.Save(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *assignmentService) Start(ctx context.Context, id, researcherID uuid.UUID) (*domain.Assignment, error) {
	return s.transition(ctx, id, researcherID, domain.AssignmentInProgress)
}

func (s *assignmentService) Complete(ctx context.Context, id, researcherID uuid.UUID) (*domain.Assignment, error) {
	return s.transition(ctx, id, researcherID, domain.AssignmentCompleted)
}

// transition moves an assignment forward; only its researcher may do so and a
// completed assignment stays completed.
func (s *assignmentService) transition(ctx context.Context, id, researcherID uuid.UUID, to domain.AssignmentStatus) (*domain.Assignment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.ResearcherID != researcherID {
		return nil, domain.ErrForbidden
	}
	if a.Status == domain.AssignmentCompleted {
		return nil, domain.NewValidationError("status", "assignment is already completed")
	}
	if a.Status == to {
		return a, nil
	}

	a.Status = to
	if to == domain.AssignmentCompleted {
		now := time.Now().UTC()
		a.CompletedAt = &now
	}
	if err := s.repo.UpdateStatus(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *assignmentService) ListForResearcher(ctx context.Context, researcherID uuid.UUID) ([]*domain.Assignment, error) {
	return s.repo.ListByResearcher(ctx, researcherID)
}

func (s *assignmentService) ListForSurvey(ctx context.Context, surveyID uuid.UUID) ([]*domain.Assignment, error) {
	if _, err := s.surveyRepo.GetByID(ctx, surveyID); err != nil {
		return nil, err
	}
	return s.repo.ListBySurvey(ctx, surveyID)
}
