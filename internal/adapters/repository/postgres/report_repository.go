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
	"github.com/vncsmyrnk/fieldsurvey/internal/core/reporting"
)

type reportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) ports.ReportRepository {
	return &reportRepository{
		db: db,
	}
}

func (r *reportRepository) Save(ctx context.Context, report *domain.Report) error {
	params, err := json.Marshal(report.Parameters)
	if err != nil {
		return fmt.Errorf("failed to encode report parameters: %w", err)
	}
	data, err := json.Marshal(report.Data)
	if err != nil {
		return fmt.Errorf("failed to encode report data: %w", err)
	}

	query := `
		INSERT INTO reports (id, survey_id, type, parameters, data, empty, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.db.ExecContext(ctx, query, report.ID, report.SurveyID, report.Type, string(params), string(data), report.Empty, report.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}
	return nil
}

func (r *reportRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Report, error) {
	query := `
		SELECT id, survey_id, type, parameters, data, empty, created_at
		FROM reports
		WHERE id = $1
	`
	report, err := scanReport(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return report, nil
}

func (r *reportRepository) ListBySurvey(ctx context.Context, surveyID uuid.UUID) ([]*domain.Report, error) {
	query := `
		SELECT id, survey_id, type, parameters, data, empty, created_at
		FROM reports
		WHERE survey_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, surveyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	reports := []*domain.Report{}
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reports: %w", err)
	}
	return reports, nil
}

func scanReport(row rowScanner) (*domain.Report, error) {
	var (
		rep          domain.Report
		params, data []byte
	)
	if err := row.Scan(&rep.ID, &rep.SurveyID, &rep.Type, &params, &data, &rep.Empty, &rep.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(params, &rep.Parameters); err != nil {
		return nil, fmt.Errorf("failed to decode report parameters: %w", err)
	}
	decoded, err := reporting.DecodeData(rep.Type, data)
	if err != nil {
		return nil, err
	}
	rep.Data = decoded
	return &rep, nil
}
