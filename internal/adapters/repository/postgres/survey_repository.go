package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/vncsmyrnk/fieldsurvey/internal/core/domain"
	"github.com/vncsmyrnk/fieldsurvey/internal/core/ports"
)

const surveyColumns = `id, name, city, state, date, contractor, code, manager_type, manager_name, questions, created_at, updated_at`

type surveyRepository struct {
	db *sql.DB
}

func NewSurveyRepository(db *sql.DB) ports.SurveyRepository {
	return &surveyRepository{
		db: db,
	}
}

func (r *surveyRepository) Save(ctx context.Context, survey *domain.Survey) error {
	questions, err := encodeQuestions(survey.Questions)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO surveys (` + surveyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = r.db.ExecContext(ctx, query,
		survey.ID, survey.Name, survey.City, survey.State, survey.Date, survey.Contractor, survey.Code,
		survey.CurrentManager.Type, survey.CurrentManager.Name, questions, survey.CreatedAt, survey.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "surveys_code_key") {
			return domain.ErrDuplicateCode
		}
		return fmt.Errorf("failed to insert survey: %w", err)
	}
	return nil
}

func (r *surveyRepository) Update(ctx context.Context, survey *domain.Survey) error {
	questions, err := encodeQuestions(survey.Questions)
	if err != nil {
		return err
	}

	query := `
		UPDATE surveys
		SET name = $2, city = $3, state = $4, date = $5, contractor = $6,
			manager_type = $7, manager_name = $8, questions = $9, updated_at = $10
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query,
		survey.ID, survey.Name, survey.City, survey.State, survey.Date, survey.Contractor,
		survey.CurrentManager.Type, survey.CurrentManager.Name, questions, survey.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update survey: %w", err)
	}
	return expectOneRow(res, domain.ErrSurveyNotFound)
}

func (r *surveyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM surveys WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete survey: %w", err)
	}
	return expectOneRow(res, domain.ErrSurveyNotFound)
}

func (r *surveyRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Survey, error) {
	query := `SELECT ` + surveyColumns + ` FROM surveys WHERE id = $1`

	survey, err := scanSurvey(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSurveyNotFound
		}
		return nil, fmt.Errorf("failed to get survey: %w", err)
	}
	return survey, nil
}

func (r *surveyRepository) GetAll(ctx context.Context) ([]*domain.Survey, error) {
	query := `SELECT ` + surveyColumns + ` FROM surveys ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get all surveys: %w", err)
	}
	defer rows.Close()

	var surveys []*domain.Survey
	for rows.Next() {
		survey, err := scanSurvey(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan survey: %w", err)
		}
		surveys = append(surveys, survey)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating surveys: %w", err)
	}
	return surveys, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSurvey(row rowScanner) (*domain.Survey, error) {
	var (
		s         domain.Survey
		questions []byte
	)
	err := row.Scan(
		&s.ID, &s.Name, &s.City, &s.State, &s.Date, &s.Contractor, &s.Code,
		&s.CurrentManager.Type, &s.CurrentManager.Name, &questions, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(questions, &s.Questions); err != nil {
		return nil, fmt.Errorf("failed to decode questions: %w", err)
	}
	if s.Questions == nil {
		s.Questions = []domain.Question{}
	}
	return &s, nil
}

// JSONB parameters go over the wire as text; lib/pq would send []byte as bytea.
func encodeQuestions(questions []domain.Question) (string, error) {
	if questions == nil {
		questions = []domain.Question{}
	}
	b, err := json.Marshal(questions)
	if err != nil {
		return "", fmt.Errorf("failed to encode questions: %w", err)
	}
	return string(b), nil
}

func expectOneRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
