package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apperrors "pomorix/internal/errors"
	"pomorix/internal/model"
	"pomorix/internal/repository"
)

const (
	minDurationMinutes = 1
	maxDurationMinutes = 180
	maxDailyGoal       = 50
)

type SettingsService struct {
	repo   *repository.SettingsRepository
	logger *slog.Logger
}

func NewSettingsService(repo *repository.SettingsRepository, logger *slog.Logger) *SettingsService {
	return &SettingsService{repo: repo, logger: logger}
}

func newDefaultSettings(now time.Time) model.Settings {
	settings := model.DefaultSettings()
	settings.ID = uuid.NewString()
	settings.CreatedAt = now
	settings.UpdatedAt = now
	return settings
}

// Get returns the user's settings, creating the defaults on first read.
func (s *SettingsService) Get(ctx context.Context, userID string) (*model.Settings, *apperrors.APIError) {
	settings, err := s.repo.Get(ctx, userID)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		s.logger.Error("get settings", "user_id", userID, "error", err)
		return nil, apperrors.Internal("failed to get settings")
	}

	created := newDefaultSettings(time.Now().UTC())
	if err := s.repo.Create(ctx, userID, &created); err != nil {
		s.logger.Error("create settings", "user_id", userID, "error", err)
		return nil, apperrors.Internal("failed to create settings")
	}
	return &created, nil
}

func (s *SettingsService) Update(ctx context.Context, userID string, update model.SettingsUpdate) (*model.Settings, *apperrors.APIError) {
	settings, apiErr := s.Get(ctx, userID)
	if apiErr != nil {
		return nil, apiErr
	}

	update.Apply(settings)
	if apiErr := validateSettings(*settings); apiErr != nil {
		return nil, apiErr
	}
	return s.save(ctx, userID, settings)
}

// Reset restores every preference to its default while keeping the
// settings identity.
func (s *SettingsService) Reset(ctx context.Context, userID string) (*model.Settings, *apperrors.APIError) {
	current, apiErr := s.Get(ctx, userID)
	if apiErr != nil {
		return nil, apiErr
	}

	settings := model.DefaultSettings()
	settings.ID = current.ID
	settings.CreatedAt = current.CreatedAt
	return s.save(ctx, userID, &settings)
}

func (s *SettingsService) save(ctx context.Context, userID string, settings *model.Settings) (*model.Settings, *apperrors.APIError) {
	settings.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, userID, settings); err != nil {
		s.logger.Error("update settings", "user_id", userID, "error", err)
		return nil, apperrors.Internal("failed to update settings")
	}
	return settings, nil
}

func validateSettings(settings model.Settings) *apperrors.APIError {
	durations := []struct {
		field   string
		minutes int
	}{
		{"pomodoro_duration", settings.PomodoroDuration},
		{"short_break", settings.ShortBreak},
		{"long_break", settings.LongBreak},
	}
	for _, d := range durations {
		if d.minutes < minDurationMinutes || d.minutes > maxDurationMinutes {
			err := apperrors.BadRequest("invalid_settings", "durations must be between 1 and 180 minutes")
			err.Details = map[string]interface{}{"field": d.field, "value": d.minutes}
			return err
		}
	}
	if settings.Volume < 0 || settings.Volume > 100 {
		return apperrors.BadRequest("invalid_settings", "volume must be between 0 and 100")
	}
	if settings.DailyGoalPomodoros < 1 || settings.DailyGoalPomodoros > maxDailyGoal {
		return apperrors.BadRequest("invalid_settings", "daily goal must be between 1 and 50")
	}

	switch settings.AlarmSound {
	case model.AlarmBells, model.AlarmDigital, model.AlarmBird, model.AlarmNone:
	default:
		return apperrors.BadRequest("invalid_settings", "unknown alarm sound")
	}
	switch settings.TickingSound {
	case model.TickingNone, model.TickingFast, model.TickingSlow, model.TickingWhiteNoise:
	default:
		return apperrors.BadRequest("invalid_settings", "unknown ticking sound")
	}
	return nil
}
