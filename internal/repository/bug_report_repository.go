package repository

import (
	"context"
	"database/sql"
	"fmt"

	"pomorix/internal/model"
)

type BugReportRepository struct {
	db *sql.DB
}

func NewBugReportRepository(db *sql.DB) *BugReportRepository {
	return &BugReportRepository{db: db}
}

func (r *BugReportRepository) Create(ctx context.Context, report *model.BugReport) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO bug_reports (id, user_id, title, description, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		report.ID,
		nullString(report.UserID),
		report.Title,
		report.Description,
		formatTime(report.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("create bug report: %w", err)
	}
	return nil
}

func (r *BugReportRepository) Get(ctx context.Context, id string) (*model.BugReport, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, user_id, title, description, created_at FROM bug_reports WHERE id = ?`,
		id,
	)

	var report model.BugReport
	var userID sql.NullString
	var createdAt string
	if err := row.Scan(&report.ID, &userID, &report.Title, &report.Description, &createdAt); err != nil {
		if notFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan bug report: %w", err)
	}
	report.UserID = userID.String

	parsed, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse bug report created_at: %w", err)
	}
	report.CreatedAt = parsed
	return &report, nil
}
