package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pomorix/internal/model"
)

// SessionRecord is a stored session. PausedSeconds accumulates the length
// of every finished pause; an ongoing pause is tracked by PausedAt.
type SessionRecord struct {
	ID              string
	UserID          string
	TaskID          string
	TaskTitle       string
	SessionType     model.SessionType
	State           model.SessionState
	DurationSeconds int
	StartedAt       time.Time
	PausedAt        *time.Time
	PausedSeconds   int
	EndedAt         *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, user_id, task_id, task_title, session_type, state, duration_seconds,
		started_at, paused_at, paused_seconds, ended_at, created_at, updated_at`

func (r *SessionRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return tx, nil
}

// GetOpen returns the user's session that has not completed or been
// aborted.
func (r *SessionRepository) GetOpen(ctx context.Context, userID string) (*SessionRecord, error) {
	return getOpenSession(ctx, r.db, userID)
}

func (r *SessionRepository) GetOpenTx(ctx context.Context, tx *sql.Tx, userID string) (*SessionRecord, error) {
	return getOpenSession(ctx, tx, userID)
}

func getOpenSession(ctx context.Context, q execer, userID string) (*SessionRecord, error) {
	row := q.QueryRowContext(
		ctx,
		`SELECT `+sessionColumns+`
		 FROM sessions
		 WHERE user_id = ? AND state IN (?, ?)
		 ORDER BY started_at DESC
		 LIMIT 1`,
		userID,
		model.StateFocus,
		model.StateBreak,
	)
	return scanSession(row)
}

func (r *SessionRepository) InsertTx(ctx context.Context, tx *sql.Tx, session *SessionRecord) error {
	_, err := tx.ExecContext(
		ctx,
		`INSERT INTO sessions (`+sessionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.UserID,
		nullString(session.TaskID),
		session.TaskTitle,
		session.SessionType,
		session.State,
		session.DurationSeconds,
		formatTime(session.StartedAt),
		nullTime(session.PausedAt),
		session.PausedSeconds,
		nullTime(session.EndedAt),
		formatTime(session.CreatedAt),
		formatTime(session.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *SessionRepository) UpdateTx(ctx context.Context, tx *sql.Tx, session *SessionRecord) error {
	_, err := tx.ExecContext(
		ctx,
		`UPDATE sessions
		 SET state = ?,
		     paused_at = ?,
		     paused_seconds = ?,
		     ended_at = ?,
		     updated_at = ?
		 WHERE id = ?`,
		session.State,
		nullTime(session.PausedAt),
		session.PausedSeconds,
		nullTime(session.EndedAt),
		formatTime(session.UpdatedAt),
		session.ID,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// Recent lists the newest sessions of every user for the public feed.
func (r *SessionRepository) Recent(ctx context.Context, limit int) ([]model.FeedItem, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT s.id, u.email, s.task_title, s.state, s.started_at, s.ended_at
		 FROM sessions s
		 JOIN users u ON u.id = s.user_id
		 ORDER BY s.started_at DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list recent sessions: %w", err)
	}
	defer rows.Close()

	items := make([]model.FeedItem, 0, limit)
	for rows.Next() {
		var item model.FeedItem
		var startedAt string
		var endedAt sql.NullString
		if err := rows.Scan(&item.ID, &item.UserEmail, &item.TaskTitle, &item.State, &startedAt, &endedAt); err != nil {
			return nil, fmt.Errorf("scan feed item: %w", err)
		}
		if item.StartedAt, err = parseTime(startedAt); err != nil {
			return nil, fmt.Errorf("parse feed started_at: %w", err)
		}
		if item.EndedAt, err = parseNullTime(endedAt); err != nil {
			return nil, fmt.Errorf("parse feed ended_at: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feed: %w", err)
	}
	return items, nil
}

// CountOnline counts users with a session in progress.
func (r *SessionRepository) CountOnline(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(
		ctx,
		`SELECT COUNT(DISTINCT user_id) FROM sessions WHERE state IN (?, ?)`,
		model.StateFocus,
		model.StateBreak,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("count online users: %w", err)
	}
	return count, nil
}

// CompletedFocusTimes returns when each of the user's completed focus
// sessions ended, oldest first.
func (r *SessionRepository) CompletedFocusTimes(ctx context.Context, userID string) ([]time.Time, error) {
	return completedFocusTimes(ctx, r.db, userID)
}

func (r *SessionRepository) CompletedFocusTimesTx(ctx context.Context, tx *sql.Tx, userID string) ([]time.Time, error) {
	return completedFocusTimes(ctx, tx, userID)
}

func completedFocusTimes(ctx context.Context, q execer, userID string) ([]time.Time, error) {
	rows, err := q.QueryContext(
		ctx,
		`SELECT ended_at
		 FROM sessions
		 WHERE user_id = ? AND session_type = ? AND state = ? AND ended_at IS NOT NULL
		 ORDER BY ended_at ASC`,
		userID,
		model.SessionFocus,
		model.StateCompleted,
	)
	if err != nil {
		return nil, fmt.Errorf("list completed sessions: %w", err)
	}
	defer rows.Close()

	var times []time.Time
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan ended_at: %w", err)
		}
		t, err := parseTime(raw)
		if err != nil {
			return nil, fmt.Errorf("parse ended_at: %w", err)
		}
		times = append(times, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate completed sessions: %w", err)
	}
	return times, nil
}

// CompletedFocusSince lists the user's completed focus sessions that ended
// at or after since, oldest first. A zero since lists all of them.
func (r *SessionRepository) CompletedFocusSince(ctx context.Context, userID string, since time.Time) ([]*SessionRecord, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT `+sessionColumns+`
		 FROM sessions
		 WHERE user_id = ? AND session_type = ? AND state = ? AND ended_at IS NOT NULL
		 ORDER BY ended_at ASC`,
		userID,
		model.SessionFocus,
		model.StateCompleted,
	)
	if err != nil {
		return nil, fmt.Errorf("list completed focus sessions: %w", err)
	}
	defer rows.Close()

	var records []*SessionRecord
	for rows.Next() {
		record, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		// Stored times vary in fractional digits, so the window is applied
		// after parsing rather than in SQL.
		if record.EndedAt.Before(since) {
			continue
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate completed focus sessions: %w", err)
	}
	return records, nil
}

func scanSession(s scanner) (*SessionRecord, error) {
	var session SessionRecord
	var taskID sql.NullString
	var startedAt string
	var pausedAt sql.NullString
	var endedAt sql.NullString
	var createdAt string
	var updatedAt string
	err := s.Scan(
		&session.ID,
		&session.UserID,
		&taskID,
		&session.TaskTitle,
		&session.SessionType,
		&session.State,
		&session.DurationSeconds,
		&startedAt,
		&pausedAt,
		&session.PausedSeconds,
		&endedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if notFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	session.TaskID = taskID.String

	if session.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, fmt.Errorf("parse session started_at: %w", err)
	}
	if session.PausedAt, err = parseNullTime(pausedAt); err != nil {
		return nil, fmt.Errorf("parse session paused_at: %w", err)
	}
	if session.EndedAt, err = parseNullTime(endedAt); err != nil {
		return nil, fmt.Errorf("parse session ended_at: %w", err)
	}
	if session.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse session created_at: %w", err)
	}
	if session.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse session updated_at: %w", err)
	}
	return &session, nil
}
