package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type BadgeRepository struct {
	db *sql.DB
}

func NewBadgeRepository(db *sql.DB) *BadgeRepository {
	return &BadgeRepository{db: db}
}

// Unlocked maps each badge code the user holds to its unlock time.
func (r *BadgeRepository) Unlocked(ctx context.Context, userID string) (map[string]time.Time, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT badge_code, unlocked_at FROM user_badges WHERE user_id = ?`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	defer rows.Close()

	unlocked := make(map[string]time.Time)
	for rows.Next() {
		var code string
		var raw string
		if err := rows.Scan(&code, &raw); err != nil {
			return nil, fmt.Errorf("scan badge: %w", err)
		}
		at, err := parseTime(raw)
		if err != nil {
			return nil, fmt.Errorf("parse badge unlocked_at: %w", err)
		}
		unlocked[code] = at
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate badges: %w", err)
	}
	return unlocked, nil
}

// UnlockTx records the badge unless the user already holds it.
func (r *BadgeRepository) UnlockTx(ctx context.Context, tx *sql.Tx, userID, code string, at time.Time) error {
	_, err := tx.ExecContext(
		ctx,
		`INSERT OR IGNORE INTO user_badges (user_id, badge_code, unlocked_at) VALUES (?, ?, ?)`,
		userID,
		code,
		formatTime(at),
	)
	if err != nil {
		return fmt.Errorf("unlock badge %s: %w", code, err)
	}
	return nil
}
