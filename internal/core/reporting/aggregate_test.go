package reporting

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/fieldsurvey/internal/core/domain"
)

var (
	q1 = uuid.MustParse("00000000-0000-0000-0000-0000000000a1")
	q2 = uuid.MustParse("00000000-0000-0000-0000-0000000000a2")
	q3 = uuid.MustParse("00000000-0000-0000-0000-0000000000a3")
	r1 = uuid.MustParse("00000000-0000-0000-0000-0000000000b1")
	r2 = uuid.MustParse("00000000-0000-0000-0000-0000000000b2")
	r3 = uuid.MustParse("00000000-0000-0000-0000-0000000000b3")
	r4 = uuid.MustParse("00000000-0000-0000-0000-0000000000b4")
)

func answer(question, researcher uuid.UUID, value string) domain.Answer {
	return domain.Answer{
		ID:           uuid.New(),
		QuestionID:   question,
		ResearcherID: researcher,
		Answer:       value,
		CreatedAt:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func sumPercentages(rows []domain.CategoryCount) float64 {
	total := 0.0
	for _, r := range rows {
		total += r.Percentage
	}
	return total
}

func TestBuildVariableReport(t *testing.T) {
	answers := []domain.Answer{
		answer(q1, r1, "Yes"),
		answer(q1, r2, "No"),
		answer(q2, r1, "Maybe"),
		answer(q1, r3, "Yes"),
	}

	rows := BuildVariableReport(answers, q1)

	require.Len(t, rows, 2)
	assert.Equal(t, "Yes", rows[0].Value)
	assert.Equal(t, 2, rows[0].Count)
	assert.InDelta(t, 66.67, rows[0].Percentage, 0.01)
	assert.Equal(t, "No", rows[1].Value)
	assert.Equal(t, 1, rows[1].Count)
	assert.InDelta(t, 33.33, rows[1].Percentage, 0.01)
	assert.InDelta(t, 100.0, sumPercentages(rows), 1e-9)
}

func TestBuildVariableReportNoMatches(t *testing.T) {
	rows := BuildVariableReport([]domain.Answer{answer(q2, r1, "x")}, q1)

	require.NotNil(t, rows)
	assert.Empty(t, rows)
	assert.True(t, IsEmpty(rows))
	assert.Equal(t, 0.0, percentage(0, 0))
}

func TestBuildVariableReportIsIdempotent(t *testing.T) {
	answers := []domain.Answer{answer(q1, r1, "A"), answer(q1, r2, "B"), answer(q1, r3, "A")}
	snapshot := append([]domain.Answer(nil), answers...)

	first := BuildVariableReport(answers, q1)
	second := BuildVariableReport(answers, q1)

	assert.Equal(t, first, second)
	assert.Equal(t, snapshot, answers)
}

func TestBuildVariableReportOrderFollowsInput(t *testing.T) {
	forward := []domain.Answer{answer(q1, r1, "A"), answer(q1, r2, "B")}
	reversed := []domain.Answer{forward[1], forward[0]}

	a := BuildVariableReport(forward, q1)
	b := BuildVariableReport(reversed, q1)

	assert.Equal(t, "A", a[0].Value)
	assert.Equal(t, "B", b[0].Value)
	assert.ElementsMatch(t, a, b)
}

func TestBuildCrossReport(t *testing.T) {
	answers := []domain.Answer{
		answer(q1, r1, "Male"), answer(q2, r1, "Yes"),
		answer(q1, r2, "Female"), answer(q2, r2, "No"),
		answer(q1, r3, "Male"), answer(q2, r3, "No"),
		answer(q1, r4, "Male"), // no answer to q2, ignored
		answer(q3, r4, "ignored"),
	}

	rows, err := BuildCrossReport(answers, []uuid.UUID{q1, q2})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Male", rows[0].Value)
	assert.Equal(t, 2, rows[0].Total)
	require.Len(t, rows[0].Details, 2)
	assert.Equal(t, "Yes", rows[0].Details[0].Value)
	assert.InDelta(t, 50.0, rows[0].Details[0].Percentage, 1e-9)
	assert.Equal(t, "No", rows[0].Details[1].Value)

	assert.Equal(t, "Female", rows[1].Value)
	assert.Equal(t, 1, rows[1].Total)
	assert.InDelta(t, 100.0, rows[1].Details[0].Percentage, 1e-9)

	for _, row := range rows {
		assert.InDelta(t, 100.0, sumPercentages(row.Details), 1e-9)
	}
}

func TestBuildCrossReportLastAnswerWins(t *testing.T) {
	answers := []domain.Answer{
		answer(q1, r1, "old"),
		answer(q2, r1, "Yes"),
		answer(q1, r1, "new"),
	}

	rows, err := BuildCrossReport(answers, []uuid.UUID{q1, q2})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "new", rows[0].Value)
}

func TestBuildCrossReportRequiresTwoVariables(t *testing.T) {
	for _, vars := range [][]uuid.UUID{nil, {q1}, {q1, q2, q3}} {
		_, err := BuildCrossReport(nil, vars)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrValidation))

		var vErr *domain.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "variables", vErr.Field)
	}
}

func TestBuildCrossReportEmpty(t *testing.T) {
	rows, err := BuildCrossReport(nil, []uuid.UUID{q1, q2})
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestBuildSampleReport(t *testing.T) {
	answers := []domain.Answer{
		answer(q2, r1, "B"),
		answer(q1, r1, "A"),
		answer(q2, r2, "B"),
		answer(q2, r3, "C"),
	}

	summaries := BuildSampleReport(answers)
	require.Len(t, summaries, 2)

	assert.Equal(t, q2.String(), summaries[0].QuestionID)
	assert.Equal(t, 3, summaries[0].Total)
	assert.Equal(t, "B", summaries[0].Details[0].Value)
	assert.Equal(t, 2, summaries[0].Details[0].Count)
	assert.InDelta(t, 100.0, sumPercentages(summaries[0].Details), 1e-9)

	assert.Equal(t, q1.String(), summaries[1].QuestionID)
	assert.Equal(t, 1, summaries[1].Total)
	assert.InDelta(t, 100.0, summaries[1].Details[0].Percentage, 1e-9)
}

func TestBuildItemReport(t *testing.T) {
	questions := []domain.Question{
		{ID: q1, Text: "Age?", Type: domain.QuestionTypeText},
		{ID: q2, Text: "Vote?", Type: domain.QuestionTypeMultipleChoice, Options: []string{"Yes", "No"}},
	}
	answers := []domain.Answer{
		answer(q2, r1, "Yes"),
		answer(q3, r1, "orphan"),
		answer(q2, r2, "No"),
	}

	groups := BuildItemReport(answers, questions)
	require.Len(t, groups, 2)

	assert.Equal(t, q1.String(), groups[0].QuestionID)
	assert.Equal(t, "Age?", groups[0].QuestionText)
	assert.NotNil(t, groups[0].Answers)
	assert.Empty(t, groups[0].Answers)

	require.Len(t, groups[1].Answers, 2)
	assert.Equal(t, r1.String(), groups[1].Answers[0].ResearcherID)
	assert.Equal(t, "Yes", groups[1].Answers[0].Answer)
	assert.Equal(t, "No", groups[1].Answers[1].Answer)
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, IsEmpty(nil))
	assert.True(t, IsEmpty([]domain.ItemGroup{}))
	assert.False(t, IsEmpty([]domain.QuestionSummary{{QuestionID: "x"}}))
}
