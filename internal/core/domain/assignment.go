package domain

import (
	"time"

	"github.com/google/uuid"
)

type AssignmentStatus string

const (
	AssignmentPending    AssignmentStatus = "pending"
	AssignmentInProgress AssignmentStatus = "in_progress"
	AssignmentCompleted  AssignmentStatus = "completed"
)

type Assignment struct {
	ID           uuid.UUID        `json:"id"`
	SurveyID     uuid.UUID        `json:"survey_id"`
	ResearcherID uuid.UUID        `json:"researcher_id"`
	Status       AssignmentStatus `json:"status"`
	AssignedAt   time.Time        `json:"assigned_at"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty"`
}
