package service

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"time"

	apperrors "pomorix/internal/errors"
	"pomorix/internal/model"
	"pomorix/internal/repository"
)

const maxDisplayNameLength = 50

// ProfileService assembles the profile page: the account, lifetime totals,
// streak, unlocked badges and focus analytics over a range.
type ProfileService struct {
	users    *repository.UserRepository
	sessions *repository.SessionRepository
	stats    *StatsService
	logger   *slog.Logger
	now      func() time.Time
}

func NewProfileService(users *repository.UserRepository, sessions *repository.SessionRepository, stats *StatsService, logger *slog.Logger) *ProfileService {
	return &ProfileService{
		users:    users,
		sessions: sessions,
		stats:    stats,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *ProfileService) Profile(ctx context.Context, userID string, rng model.ProfileRange) (*model.Profile, *apperrors.APIError) {
	if rng == "" {
		rng = model.RangeLast7Days
	}
	if !rng.Valid() {
		return nil, apperrors.BadRequest("invalid_range", "range must be one of LAST_7_DAYS, LAST_30_DAYS, ALL_TIME")
	}

	user, apiErr := s.user(ctx, userID)
	if apiErr != nil {
		return nil, apiErr
	}
	completed, err := s.sessions.CompletedFocusSince(ctx, userID, time.Time{})
	if err != nil {
		s.logger.Error("list completed focus sessions", "user_id", userID, "error", err)
		return nil, apperrors.Internal("failed to load profile")
	}
	streak, apiErr := s.stats.Streak(ctx, userID)
	if apiErr != nil {
		return nil, apiErr
	}
	badges, apiErr := s.stats.Badges(ctx, userID, true)
	if apiErr != nil {
		return nil, apiErr
	}

	now := s.now()
	totalSeconds := 0
	for _, record := range completed {
		totalSeconds += focusSeconds(record, now)
	}

	return &model.Profile{
		User:              *user,
		MemberSince:       user.CreatedAt,
		TotalPomodoros:    len(completed),
		TotalFocusMinutes: totalSeconds / 60,
		Streak:            *streak,
		Analytics:         computeAnalytics(completed, rng, now),
		Badges:            badges,
	}, nil
}

func (s *ProfileService) Update(ctx context.Context, userID string, req model.UpdateProfileRequest) (*model.User, *apperrors.APIError) {
	if req.DisplayName != nil {
		name := strings.TrimSpace(*req.DisplayName)
		if len(name) > maxDisplayNameLength {
			return nil, apperrors.BadRequest("invalid_display_name", "display name must be at most 50 characters")
		}
		if err := s.users.UpdateDisplayName(ctx, userID, name, s.now()); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperrors.NotFound("user_not_found", "user not found")
			}
			s.logger.Error("update display name", "user_id", userID, "error", err)
			return nil, apperrors.Internal("failed to update profile")
		}
	}
	return s.user(ctx, userID)
}

func (s *ProfileService) user(ctx context.Context, userID string) (*model.User, *apperrors.APIError) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("user_not_found", "user not found")
		}
		s.logger.Error("get user", "user_id", userID, "error", err)
		return nil, apperrors.Internal("failed to load user")
	}
	return user, nil
}

// computeAnalytics buckets completed focus sessions by the UTC day they
// ended. Every day of the window is listed, including empty ones. ALL_TIME
// starts on the day of the first completed session.
func computeAnalytics(completed []*repository.SessionRecord, rng model.ProfileRange, now time.Time) model.ProfileAnalytics {
	today := truncateDay(now)
	start := today
	if days := rng.Days(); days > 0 {
		start = today.AddDate(0, 0, -(days - 1))
	} else if len(completed) > 0 {
		start = truncateDay(*completed[0].EndedAt)
	}

	analytics := model.ProfileAnalytics{Range: rng}
	index := make(map[string]int)
	for day := start; !day.After(today); day = day.AddDate(0, 0, 1) {
		key := day.Format(time.DateOnly)
		index[key] = len(analytics.Days)
		analytics.Days = append(analytics.Days, model.DailyFocus{Date: key})
	}

	seconds := 0
	daySeconds := make([]int, len(analytics.Days))
	for _, record := range completed {
		i, ok := index[truncateDay(*record.EndedAt).Format(time.DateOnly)]
		if !ok {
			continue
		}
		focus := focusSeconds(record, now)
		analytics.Days[i].Pomodoros++
		analytics.Pomodoros++
		daySeconds[i] += focus
		seconds += focus
	}
	for i := range analytics.Days {
		analytics.Days[i].FocusMinutes = daySeconds[i] / 60
	}

	analytics.FocusMinutes = seconds / 60
	if len(analytics.Days) > 0 {
		average := float64(seconds) / 60 / float64(len(analytics.Days))
		analytics.DailyAverageMinutes = math.Round(average*10) / 10
	}
	return analytics
}

// focusSeconds is the focused time of a completed session, never more than
// its planned duration.
func focusSeconds(record *repository.SessionRecord, now time.Time) int {
	elapsed := elapsedSeconds(record, now)
	if elapsed > record.DurationSeconds {
		return record.DurationSeconds
	}
	return elapsed
}
