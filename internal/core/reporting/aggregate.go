// Package reporting turns a flat answer list into report tables. Every builder is a
// pure function of its inputs: output entries follow the order in which distinct
// category values are first seen while scanning the input.
package reporting

import (
	"github.com/google/uuid"
	"github.com/vncsmyrnk/fieldsurvey/internal/core/domain"
)

// CrossVariables is the number of questions a cross report tabulates.
const CrossVariables = 2

type tally struct {
	order  []string
	counts map[string]int
	total  int
}

func newTally() *tally {
	return &tally{counts: make(map[string]int)}
}

func (t *tally) add(value string) {
	if _, seen := t.counts[value]; !seen {
		t.order = append(t.order, value)
	}
	t.counts[value]++
	t.total++
}

func (t *tally) rows() []domain.CategoryCount {
	rows := make([]domain.CategoryCount, 0, len(t.order))
	for _, value := range t.order {
		count := t.counts[value]
		rows = append(rows, domain.CategoryCount{
			Value:      value,
			Count:      count,
			Percentage: percentage(count, t.total),
		})
	}
	return rows
}

func percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return (float64(count) / float64(total)) * 100
}

// BuildVariableReport tallies the answers given to one question.
func BuildVariableReport(answers []domain.Answer, questionID uuid.UUID) []domain.CategoryCount {
	t := newTally()
	for _, a := range answers {
		if a.QuestionID == questionID {
			t.add(a.Answer)
		}
	}
	return t.rows()
}

// BuildCrossReport cross-tabulates two questions over researchers that answered
// both. When a researcher answered a question more than once, the last answer in
// scan order is used. Percentages are relative to each row's own total.
func BuildCrossReport(answers []domain.Answer, variables []uuid.UUID) ([]domain.CrossRow, error) {
	if len(variables) != CrossVariables {
		return nil, domain.NewValidationError("variables", "must name exactly two questions")
	}
	varA, varB := variables[0], variables[1]

	type pair struct {
		a, b string
		hasA bool
		hasB bool
	}
	var researchers []uuid.UUID
	byResearcher := make(map[uuid.UUID]*pair)

	for _, ans := range answers {
		p, ok := byResearcher[ans.ResearcherID]
		if !ok {
			p = &pair{}
			byResearcher[ans.ResearcherID] = p
			researchers = append(researchers, ans.ResearcherID)
		}
		// a question may be crossed with itself
		if ans.QuestionID == varA {
			p.a, p.hasA = ans.Answer, true
		}
		if ans.QuestionID == varB {
			p.b, p.hasB = ans.Answer, true
		}
	}

	var rowOrder []string
	rows := make(map[string]*tally)
	for _, id := range researchers {
		p := byResearcher[id]
		if !p.hasA || !p.hasB {
			continue
		}
		t, ok := rows[p.a]
		if !ok {
			t = newTally()
			rows[p.a] = t
			rowOrder = append(rowOrder, p.a)
		}
		t.add(p.b)
	}

	result := make([]domain.CrossRow, 0, len(rowOrder))
	for _, value := range rowOrder {
		t := rows[value]
		result = append(result, domain.CrossRow{
			Value:   value,
			Total:   t.total,
			Details: t.rows(),
		})
	}
	return result, nil
}

// BuildSampleReport tallies every question present in the input in a single pass.
func BuildSampleReport(answers []domain.Answer) []domain.QuestionSummary {
	var order []uuid.UUID
	byQuestion := make(map[uuid.UUID]*tally)
	for _, a := range answers {
		t, ok := byQuestion[a.QuestionID]
		if !ok {
			t = newTally()
			byQuestion[a.QuestionID] = t
			order = append(order, a.QuestionID)
		}
		t.add(a.Answer)
	}

	result := make([]domain.QuestionSummary, 0, len(order))
	for _, id := range order {
		t := byQuestion[id]
		result = append(result, domain.QuestionSummary{
			QuestionID: id.String(),
			Total:      t.total,
			Details:    t.rows(),
		})
	}
	return result
}

// BuildItemReport groups raw answers under each survey question, in survey order.
// Answers to questions that are not part of the survey are left out.
func BuildItemReport(answers []domain.Answer, questions []domain.Question) []domain.ItemGroup {
	byQuestion := make(map[uuid.UUID][]domain.ItemAnswer, len(questions))
	for _, a := range answers {
		byQuestion[a.QuestionID] = append(byQuestion[a.QuestionID], domain.ItemAnswer{
			ResearcherID: a.ResearcherID.String(),
			Answer:       a.Answer,
			CreatedAt:    a.CreatedAt,
		})
	}

	result := make([]domain.ItemGroup, 0, len(questions))
	for _, q := range questions {
		items := byQuestion[q.ID]
		if items == nil {
			items = []domain.ItemAnswer{}
		}
		result = append(result, domain.ItemGroup{
			QuestionID:   q.ID.String(),
			QuestionText: q.Text,
			Answers:      items,
		})
	}
	return result
}

// IsEmpty reports whether generated report data has no entries.
func IsEmpty(data any) bool {
	switch d := data.(type) {
	case []domain.CategoryCount:
		return len(d) == 0
	case []domain.CrossRow:
		return len(d) == 0
	case []domain.QuestionSummary:
		return len(d) == 0
	case []domain.ItemGroup:
		return len(d) == 0
	}
	return data == nil
}
