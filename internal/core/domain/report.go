package domain

import (
	"time"

	"github.com/google/uuid"
)

type ReportType string

const (
	ReportTypeVariable ReportType = "variable"
	ReportTypeCross    ReportType = "cross"
	ReportTypeSample   ReportType = "sample"
	ReportTypeItem     ReportType = "item"
)

func (t ReportType) Valid() bool {
	switch t {
	case ReportTypeVariable, ReportTypeCross, ReportTypeSample, ReportTypeItem:
		return true
	}
	return false
}

// Report is a derived, read-only artifact. Data holds one of []CategoryCount,
// []CrossRow, []QuestionSummary or []ItemGroup depending on Type.
type Report struct {
	ID         uuid.UUID      `json:"id"`
	SurveyID   uuid.UUID      `json:"survey_id"`
	Type       ReportType     `json:"type"`
	Parameters map[string]any `json:"parameters"`
	CreatedAt  time.Time      `json:"created_at"`
	Empty      bool           `json:"empty"`
	Data       any            `json:"data"`
}

type CategoryCount struct {
	Value      string  `json:"value"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type CrossRow struct {
	Value   string          `json:"value"`
	Total   int             `json:"total"`
	Details []CategoryCount `json:"details"`
}

type QuestionSummary struct {
	QuestionID string          `json:"question_id"`
	Total      int             `json:"total"`
	Details    []CategoryCount `json:"details"`
}

type ItemAnswer struct {
	ResearcherID string    `json:"researcher_id"`
	Answer       string    `json:"answer"`
	CreatedAt    time.Time `json:"created_at"`
}

type ItemGroup struct {
	QuestionID   string       `json:"question_id"`
	QuestionText string       `json:"question_text"`
	Answers      []ItemAnswer `json:"answers"`
}
