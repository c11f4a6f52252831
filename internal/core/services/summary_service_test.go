package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/fieldsurvey/internal/core/domain"
	"github.com/vncsmyrnk/fieldsurvey/internal/core/ports"
)

type countingReports struct {
	ports.ReportService
	calls   atomic.Int32
	failFor uuid.UUID
}

func (r *countingReports) GenerateSample(ctx context.Context, surveyID uuid.UUID) (*domain.Report, error) {
	r.calls.Add(1)
	if surveyID == r.failFor {
		return nil, errors.New("boom")
	}
	return &domain.Report{ID: uuid.New(), SurveyID: surveyID, Type: domain.ReportTypeSample}, nil
}

func TestSummaryService_SummarizesEverySurvey(t *testing.T) {
	surveys := []*domain.Survey{
		{ID: uuid.New(), Code: "A"},
		{ID: uuid.New(), Code: "B"},
		{ID: uuid.New(), Code: "C"},
	}
	reports := &countingReports{}
	svc := NewSummaryService(newFakeSurveyRepo(surveys...), reports, 2, nil)

	require.NoError(t, svc.SummarizeAllSurveys(context.Background()))
	assert.EqualValues(t, 3, reports.calls.Load())
}

func TestSummaryService_ReturnsFirstError(t *testing.T) {
	failing := &domain.Survey{ID: uuid.New(), Code: "A"}
	reports := &countingReports{failFor: failing.ID}
	svc := NewSummaryService(newFakeSurveyRepo(failing, &domain.Survey{ID: uuid.New(), Code: "B"}), reports, 0, nil)

	err := svc.SummarizeAllSurveys(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), failing.ID.String())
}

func TestSummaryService_WithRealReports(t *testing.T) {
	f := newReportFixture(t)
	f.answer(f.survey.Questions[0].ID, uuid.New(), "Sim")
	svc := NewSummaryService(newFakeSurveyRepo(f.survey), f.svc, 4, nil)

	require.NoError(t, svc.SummarizeAllSurveys(context.Background()))
	require.Len(t, f.reports.reports, 1)
	assert.Equal(t, domain.ReportTypeSample, f.reports.reports[0].Type)
}
