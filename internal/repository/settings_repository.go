package repository

import (
	"context"
	"database/sql"
	"fmt"

	"pomorix/internal/model"
)

type SettingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

const settingsColumns = `id, pomodoro_duration, short_break, long_break, alarm_sound, ticking_sound,
		volume, auto_start_breaks, auto_start_pomodoros, daily_goal_pomodoros, created_at, updated_at`

func (r *SettingsRepository) Get(ctx context.Context, userID string) (*model.Settings, error) {
	return getSettings(ctx, r.db, userID)
}

func (r *SettingsRepository) GetTx(ctx context.Context, tx *sql.Tx, userID string) (*model.Settings, error) {
	return getSettings(ctx, tx, userID)
}

func getSettings(ctx context.Context, q execer, userID string) (*model.Settings, error) {
	row := q.QueryRowContext(
		ctx,
		`SELECT `+settingsColumns+` FROM settings WHERE user_id = ?`,
		userID,
	)
	return scanSettings(row)
}

func (r *SettingsRepository) Create(ctx context.Context, userID string, settings *model.Settings) error {
	return insertSettings(ctx, r.db, userID, settings)
}

func (r *SettingsRepository) CreateTx(ctx context.Context, tx *sql.Tx, userID string, settings *model.Settings) error {
	return insertSettings(ctx, tx, userID, settings)
}

func insertSettings(ctx context.Context, q execer, userID string, settings *model.Settings) error {
	_, err := q.ExecContext(
		ctx,
		`INSERT INTO settings (
			id, user_id, pomodoro_duration, short_break, long_break, alarm_sound, ticking_sound,
			volume, auto_start_breaks, auto_start_pomodoros, daily_goal_pomodoros, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		settings.ID,
		userID,
		settings.PomodoroDuration,
		settings.ShortBreak,
		settings.LongBreak,
		settings.AlarmSound,
		settings.TickingSound,
		settings.Volume,
		settings.AutoStartBreaks,
		settings.AutoStartPomodoros,
		settings.DailyGoalPomodoros,
		formatTime(settings.CreatedAt),
		formatTime(settings.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("create settings: %w", err)
	}
	return nil
}

func (r *SettingsRepository) Update(ctx context.Context, userID string, settings *model.Settings) error {
	result, err := r.db.ExecContext(
		ctx,
		`UPDATE settings
		 SET pomodoro_duration = ?,
		     short_break = ?,
		     long_break = ?,
		     alarm_sound = ?,
		     ticking_sound = ?,
		     volume = ?,
		     auto_start_breaks = ?,
		     auto_start_pomodoros = ?,
		     daily_goal_pomodoros = ?,
		     updated_at = ?
		 WHERE user_id = ?`,
		settings.PomodoroDuration,
		settings.ShortBreak,
		settings.LongBreak,
		settings.AlarmSound,
		settings.TickingSound,
		settings.Volume,
		settings.AutoStartBreaks,
		settings.AutoStartPomodoros,
		settings.DailyGoalPomodoros,
		formatTime(settings.UpdatedAt),
		userID,
	)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanSettings(s scanner) (*model.Settings, error) {
	var settings model.Settings
	var createdAt string
	var updatedAt string
	err := s.Scan(
		&settings.ID,
		&settings.PomodoroDuration,
		&settings.ShortBreak,
		&settings.LongBreak,
		&settings.AlarmSound,
		&settings.TickingSound,
		&settings.Volume,
		&settings.AutoStartBreaks,
		&settings.AutoStartPomodoros,
		&settings.DailyGoalPomodoros,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if notFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan settings: %w", err)
	}

	if settings.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse settings created_at: %w", err)
	}
	if settings.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse settings updated_at: %w", err)
	}
	return &settings, nil
}
