package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/vncsmyrnk/fieldsurvey/internal/core/domain"
	"github.com/vncsmyrnk/fieldsurvey/internal/core/ports"
)

// Answers are insert-only. A known ID is skipped so a resent batch is harmless.
const insertAnswer = `
	INSERT INTO answers (id, survey_id, question_id, researcher_id, answer, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (id) DO NOTHING
`

type answerRepository struct {
	db *sql.DB
}

func NewAnswerRepository(db *sql.DB) ports.AnswerRepository {
	return &answerRepository{
		db: db,
	}
}

func (r *answerRepository) Insert(ctx context.Context, a *domain.Answer) error {
	_, err := r.db.ExecContext(ctx, insertAnswer, a.ID, a.SurveyID, a.QuestionID, a.ResearcherID, a.Answer, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert answer: %w", err)
	}
	return nil
}

func (r *answerRepository) InsertBatch(ctx context.Context, answers []domain.Answer) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertAnswer)
	if err != nil {
		return fmt.Errorf("failed to prepare answer statement: %w", err)
	}
	defer stmt.Close()

	for _, a := range answers {
		_, err = stmt.ExecContext(ctx, a.ID, a.SurveyID, a.QuestionID, a.ResearcherID, a.Answer, a.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert answer %s: %w", a.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *answerRepository) ListBySurvey(ctx context.Context, surveyID uuid.UUID) ([]domain.Answer, error) {
	query := `
		SELECT id, survey_id, question_id, researcher_id, answer, created_at
		FROM answers
		WHERE survey_id = $1
		ORDER BY created_at, seq
	`
	return r.list(ctx, query, surveyID)
}

func (r *answerRepository) ListBySurveyAndResearcher(ctx context.Context, surveyID, researcherID uuid.UUID) ([]domain.Answer, error) {
	query := `
		SELECT id, survey_id, question_id, researcher_id, answer, created_at
		FROM answers
		WHERE survey_id = $1 AND researcher_id = $2
		ORDER BY created_at, seq
	`
	return r.list(ctx, query, surveyID, researcherID)
}

func (r *answerRepository) list(ctx context.Context, query string, args ...any) ([]domain.Answer, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	defer rows.Close()

	answers := []domain.Answer{}
	for rows.Next() {
		var a domain.Answer
		if err := rows.Scan(&a.ID, &a.SurveyID, &a.QuestionID, &a.ResearcherID, &a.Answer, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		answers = append(answers, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating answers: %w", err)
	}
	return answers, nil
}
