package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/vncsmyrnk/fieldsurvey/internal/core/domain"
	"github.com/vncsmyrnk/fieldsurvey/internal/core/ports"
)

const assignmentColumns = `id, survey_id, researcher_id, status, assigned_at, completed_at`

type assignmentRepository struct {
	db *sql.DB
}

func NewAssignmentRepository(db *sql.DB) ports.AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) Save(ctx context.Context, a *domain.Assignment) error {
	query := `
		INSERT INTO assignments (` + assignmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query, a.ID, a.SurveyID, a.ResearcherID, a.Status, a.AssignedAt, a.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to insert assignment: %w", err)
	}
	return nil
}

func (r *assignmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE id = $1`
	a, err := scanAssignment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	return a, nil
}

func (r *assignmentRepository) UpdateStatus(ctx context.Context, a *domain.Assignment) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE assignments SET status = $2, completed_at = $3 WHERE id = $1`,
		a.ID, a.Status, a.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update assignment: %w", err)
	}
	return expectOneRow(res, domain.ErrAssignmentNotFound)
}

func (r *assignmentRepository) ListByResearcher(ctx context.Context, researcherID uuid.UUID) ([]*domain.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE researcher_id = $1 ORDER BY assigned_at DESC`
	return r.list(ctx, query, researcherID)
}

func (r *assignmentRepository) ListBySurvey(ctx context.Context, surveyID uuid.UUID) ([]*domain.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE survey_id = $1 ORDER BY assigned_at DESC`
	return r.list(ctx, query, surveyID)
}

func (r *assignmentRepository) list(ctx context.Context, query string, arg any) ([]*domain.Assignment, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()

	assignments := []*domain.Assignment{}
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assignments: %w", err)
	}
	return assignments, nil
}

func scanAssignment(row rowScanner) (*domain.Assignment, error) {
	var (
		a         domain.Assignment
		completed sql.NullTime
	)
	if err := row.Scan(&a.ID, &a.SurveyID, &a.ResearcherID, &a.Status, &a.AssignedAt, &completed); err != nil {
		return nil, err
	}
	if completed.Valid {
		a.CompletedAt = &completed.Time
	}
	return &a, nil
}
