package domain

import (
	"time"

	"github.com/google/uuid"
)

type QuestionType string

const (
	QuestionTypeText           QuestionType = "text"
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
)

func (t QuestionType) Valid() bool {
	return t == QuestionTypeText || t == QuestionTypeMultipleChoice
}

type ManagerType string

const (
	ManagerPrefeito    ManagerType = "Prefeito"
	ManagerPrefeita    ManagerType = "Prefeita"
	ManagerGovernador  ManagerType = "Governador"
	ManagerGovernadora ManagerType = "Governadora"
	ManagerPresidente  ManagerType = "Presidente"
	ManagerPresidenta  ManagerType = "Presidenta"
)

func (t ManagerType) Valid() bool {
	switch t {
	case ManagerPrefeito, ManagerPrefeita, ManagerGovernador, ManagerGovernadora, ManagerPresidente, ManagerPresidenta:
		return true
	}
	return false
}

type Manager struct {
	Type ManagerType `json:"type"`
	Name string      `json:"name"`
}

type Survey struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	City           string     `json:"city"`
	State          string     `json:"state"`
	Date           string     `json:"date"`
	Contractor     string     `json:"contractor"`
	Code           string     `json:"code"`
	CurrentManager Manager    `json:"current_manager"`
	Questions      []Question `json:"questions"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Question is owned by one survey; its position in Survey.Questions is its display order.
type Question struct {
	ID       uuid.UUID    `json:"id"`
	Text     string       `json:"text"`
	Type     QuestionType `json:"type"`
	Options  []string     `json:"options,omitempty"`
	Required bool         `json:"required"`
}

func (s *Survey) QuestionIndex(id uuid.UUID) int {
	for i, q := range s.Questions {
		if q.ID == id {
			return i
		}
	}
	return -1
}
