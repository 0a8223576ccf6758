package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apperrors "pomorix/internal/errors"
	"pomorix/internal/model"
	"pomorix/internal/repository"
)

// SessionService owns the authoritative session clock. Remaining time is
// always derived from stored timestamps at read time.
type SessionService struct {
	sessions *repository.SessionRepository
	tasks    *repository.TaskRepository
	settings *repository.SettingsRepository
	stats    *StatsService
	logger   *slog.Logger
	now      func() time.Time
}

func NewSessionService(
	sessions *repository.SessionRepository,
	tasks *repository.TaskRepository,
	settings *repository.SettingsRepository,
	stats *StatsService,
	logger *slog.Logger,
) *SessionService {
	return &SessionService{
		sessions: sessions,
		tasks:    tasks,
		settings: settings,
		stats:    stats,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Start opens a session of the given type for the user's active task. The
// length comes from the user's settings.
func (s *SessionService) Start(ctx context.Context, userID string, sessionType model.SessionType) (*model.Session, *apperrors.APIError) {
	if !sessionType.Valid() {
		return nil, apperrors.BadRequest("invalid_session_type", "session_type must be FOCUS, SHORT_BREAK or LONG_BREAK")
	}

	now := s.now()
	tx, err := s.sessions.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to start transaction")
	}
	defer tx.Rollback()

	open, err := s.sessions.GetOpenTx(ctx, tx, userID)
	if err == nil {
		return nil, apperrors.Conflict("session_active", "a session is already in progress", toSessionView(open, now))
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, s.internal("get open session", userID, err)
	}

	task, err := s.tasks.GetActiveTx(ctx, tx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.BadRequest("no_active_task", "select an active task before starting a session")
	}
	if err != nil {
		return nil, s.internal("get active task", userID, err)
	}

	settings, err := s.settingsTx(ctx, tx, userID)
	if err != nil {
		return nil, s.internal("get settings", userID, err)
	}

	record := repository.SessionRecord{
		ID:              uuid.NewString(),
		UserID:          userID,
		TaskID:          task.ID,
		TaskTitle:       task.Title,
		SessionType:     sessionType,
		State:           model.StateFor(sessionType),
		DurationSeconds: settings.SecondsFor(sessionType),
		StartedAt:       now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.sessions.InsertTx(ctx, tx, &record); err != nil {
		return nil, s.internal("insert session", userID, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, apperrors.Internal("failed to commit transaction")
	}

	s.logger.Info("session started",
		"user_id", userID,
		"session_id", record.ID,
		"session_type", sessionType,
		"duration_seconds", record.DurationSeconds,
	)
	return toSessionView(&record, now), nil
}

// Current returns the open session with its remaining time, or nil.
func (s *SessionService) Current(ctx context.Context, userID string) (*model.Session, *apperrors.APIError) {
	record, err := s.sessions.GetOpen(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, s.internal("get open session", userID, err)
	}
	return toSessionView(record, s.now()), nil
}

// Pause freezes the open session. Pausing a paused session is a no-op so
// the call is safe to retry.
func (s *SessionService) Pause(ctx context.Context, userID string) (*model.Session, *apperrors.APIError) {
	return s.transition(ctx, userID, "pause", func(_ context.Context, _ *sql.Tx, record *repository.SessionRecord, now time.Time) error {
		if record.PausedAt == nil {
			record.PausedAt = &now
		}
		return nil
	})
}

// Resume continues a paused session. Resuming a running session is a
// no-op.
func (s *SessionService) Resume(ctx context.Context, userID string) (*model.Session, *apperrors.APIError) {
	return s.transition(ctx, userID, "resume", func(_ context.Context, _ *sql.Tx, record *repository.SessionRecord, now time.Time) error {
		foldPause(record, now)
		return nil
	})
}

// Complete ends the open session. A finished focus session credits its
// task with one pomodoro and may unlock badges.
func (s *SessionService) Complete(ctx context.Context, userID string) (*model.Session, *apperrors.APIError) {
	return s.transition(ctx, userID, "complete", func(ctx context.Context, tx *sql.Tx, record *repository.SessionRecord, now time.Time) error {
		foldPause(record, now)
		record.State = model.StateCompleted
		record.EndedAt = &now

		if record.SessionType != model.SessionFocus || record.TaskID == "" {
			return nil
		}
		return s.tasks.IncrementCompletedTx(ctx, tx, userID, record.TaskID, now.Format(time.RFC3339Nano))
	})
}

type transitionFunc func(ctx context.Context, tx *sql.Tx, record *repository.SessionRecord, now time.Time) error

func (s *SessionService) transition(ctx context.Context, userID, op string, apply transitionFunc) (*model.Session, *apperrors.APIError) {
	now := s.now()
	tx, err := s.sessions.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to start transaction")
	}
	defer tx.Rollback()

	record, err := s.sessions.GetOpenTx(ctx, tx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("no_active_session", "no session is in progress")
	}
	if err != nil {
		return nil, s.internal("get open session", userID, err)
	}

	if err := apply(ctx, tx, record, now); err != nil {
		return nil, s.internal(op+" session", userID, err)
	}
	record.UpdatedAt = now
	if err := s.sessions.UpdateTx(ctx, tx, record); err != nil {
		return nil, s.internal(op+" session", userID, err)
	}

	if record.State == model.StateCompleted && record.SessionType == model.SessionFocus {
		if err := s.stats.UnlockBadgesTx(ctx, tx, userID, now); err != nil {
			return nil, s.internal("unlock badges", userID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, apperrors.Internal("failed to commit transaction")
	}

	s.logger.Info("session "+op, "user_id", userID, "session_id", record.ID)
	return toSessionView(record, now), nil
}

func (s *SessionService) settingsTx(ctx context.Context, tx *sql.Tx, userID string) (model.Settings, error) {
	settings, err := s.settings.GetTx(ctx, tx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.DefaultSettings(), nil
	}
	if err != nil {
		return model.Settings{}, err
	}
	return *settings, nil
}

func (s *SessionService) internal(op, userID string, err error) *apperrors.APIError {
	s.logger.Error(op, "user_id", userID, "error", err)
	return apperrors.Internal("failed to " + op)
}

// foldPause ends an ongoing pause and adds its length to PausedSeconds.
func foldPause(record *repository.SessionRecord, now time.Time) {
	if record.PausedAt == nil {
		return
	}
	if paused := now.Sub(*record.PausedAt); paused > 0 {
		record.PausedSeconds += int(paused / time.Second)
	}
	record.PausedAt = nil
}

// elapsedSeconds is the running time of the session, excluding pauses.
func elapsedSeconds(record *repository.SessionRecord, now time.Time) int {
	end := now
	if record.EndedAt != nil {
		end = *record.EndedAt
	}
	if record.PausedAt != nil {
		end = *record.PausedAt
	}
	elapsed := int(end.Sub(record.StartedAt)/time.Second) - record.PausedSeconds
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

func toSessionView(record *repository.SessionRecord, now time.Time) *model.Session {
	elapsed := elapsedSeconds(record, now)
	remaining := record.DurationSeconds - elapsed
	if remaining < 0 {
		remaining = 0
	}
	return &model.Session{
		ID:               record.ID,
		TaskID:           record.TaskID,
		TaskTitle:        record.TaskTitle,
		SessionType:      record.SessionType,
		State:            record.State,
		DurationSeconds:  record.DurationSeconds,
		StartedAt:        record.StartedAt,
		PausedAt:         record.PausedAt,
		IsPaused:         record.PausedAt != nil,
		RemainingSeconds: remaining,
		ElapsedSeconds:   elapsed,
		EndedAt:          record.EndedAt,
	}
}
