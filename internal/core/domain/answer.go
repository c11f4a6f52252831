package domain

import (
	"time"

	"github.com/google/uuid"
)

// Answer is immutable once created. Resubmitting creates a new answer with a new ID.
type Answer struct {
	ID           uuid.UUID `json:"id"`
	SurveyID     uuid.UUID `json:"survey_id"`
	QuestionID   uuid.UUID `json:"question_id"`
	ResearcherID uuid.UUID `json:"researcher_id"`
	Answer       string    `json:"answer"`
	CreatedAt    time.Time `json:"created_at"`
}

type SubmitStatus string

const (
	SubmitDelivered     SubmitStatus = "delivered"
	SubmitQueuedOffline SubmitStatus = "queued_offline"
	SubmitFailed        SubmitStatus = "failed"
)

// SubmitResult tells the caller which path a submission took. Reason is set for
// QueuedOffline when a remote write was attempted and failed, and always for Failed.
type SubmitResult struct {
	Status SubmitStatus
	Answer Answer
	Reason error
}

type SyncResult struct {
	Synced int
	// Rejected counts answers the store refused as invalid; they left the queue.
	Rejected  int
	Remaining int
	SyncedAt  time.Time
}
