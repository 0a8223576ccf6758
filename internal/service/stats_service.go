package service

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	apperrors "pomorix/internal/errors"
	"pomorix/internal/model"
	"pomorix/internal/repository"
)

const (
	defaultFeedLimit = 50
	maxFeedLimit     = 100
)

type badgeRule struct {
	badge    model.Badge
	unlocked func(streak model.Streak) bool
}

var badgeRules = []badgeRule{
	{
		badge: model.Badge{Code: "FIRST_POMODORO", Title: "First Step", Description: "Complete your first pomodoro", Category: model.BadgeOnboarding},
		unlocked: func(s model.Streak) bool {
			return s.TotalPomodoros >= 1
		},
	},
	{
		badge: model.Badge{Code: "TEN_POMODOROS", Title: "Getting Serious", Description: "Complete 10 pomodoros", Category: model.BadgeVolume},
		unlocked: func(s model.Streak) bool {
			return s.TotalPomodoros >= 10
		},
	},
	{
		badge: model.Badge{Code: "HUNDRED_POMODOROS", Title: "Centurion", Description: "Complete 100 pomodoros", Category: model.BadgeVolume},
		unlocked: func(s model.Streak) bool {
			return s.TotalPomodoros >= 100
		},
	},
	{
		badge: model.Badge{Code: "STREAK_3", Title: "On a Roll", Description: "Focus three days in a row", Category: model.BadgeStreak},
		unlocked: func(s model.Streak) bool {
			return s.CurrentStreak >= 3
		},
	},
	{
		badge: model.Badge{Code: "STREAK_7", Title: "Week Warrior", Description: "Focus seven days in a row", Category: model.BadgeStreak},
		unlocked: func(s model.Streak) bool {
			return s.CurrentStreak >= 7
		},
	},
	{
		badge: model.Badge{Code: "MARATHON", Title: "Marathon", Description: "Complete 8 pomodoros in one day", Category: model.BadgeIntensity},
		unlocked: func(s model.Streak) bool {
			return s.TodayPomodoros >= 8
		},
	},
}

// StatsService derives streaks and badges from completed focus sessions
// and serves the public activity feed.
type StatsService struct {
	sessions *repository.SessionRepository
	badges   *repository.BadgeRepository
	logger   *slog.Logger
	now      func() time.Time
}

func NewStatsService(sessions *repository.SessionRepository, badges *repository.BadgeRepository, logger *slog.Logger) *StatsService {
	return &StatsService{
		sessions: sessions,
		badges:   badges,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *StatsService) Streak(ctx context.Context, userID string) (*model.Streak, *apperrors.APIError) {
	times, err := s.sessions.CompletedFocusTimes(ctx, userID)
	if err != nil {
		s.logger.Error("list completed sessions", "user_id", userID, "error", err)
		return nil, apperrors.Internal("failed to compute streak")
	}
	streak := computeStreak(times, s.now())
	return &streak, nil
}

// Badges lists every badge with the user's unlock status. With
// unlockedOnly set, locked badges are left out.
func (s *StatsService) Badges(ctx context.Context, userID string, unlockedOnly bool) ([]model.Badge, *apperrors.APIError) {
	unlocked, err := s.badges.Unlocked(ctx, userID)
	if err != nil {
		s.logger.Error("list badges", "user_id", userID, "error", err)
		return nil, apperrors.Internal("failed to list badges")
	}

	badges := make([]model.Badge, 0, len(badgeRules))
	for _, rule := range badgeRules {
		badge := rule.badge
		badge.ID = badge.Code
		if at, ok := unlocked[badge.Code]; ok {
			badge.IsUnlocked = true
			badge.UnlockedAt = &at
		}
		if unlockedOnly && !badge.IsUnlocked {
			continue
		}
		badges = append(badges, badge)
	}
	return badges, nil
}

// UnlockBadgesTx grants every badge whose rule the user now meets. It runs
// inside the transaction that completed the session.
func (s *StatsService) UnlockBadgesTx(ctx context.Context, tx *sql.Tx, userID string, now time.Time) error {
	times, err := s.sessions.CompletedFocusTimesTx(ctx, tx, userID)
	if err != nil {
		return err
	}
	streak := computeStreak(times, now)
	for _, rule := range badgeRules {
		if !rule.unlocked(streak) {
			continue
		}
		if err := s.badges.UnlockTx(ctx, tx, userID, rule.badge.Code, now); err != nil {
			return err
		}
	}
	return nil
}

func (s *StatsService) Feed(ctx context.Context, limit int) (*model.GlobalFeed, *apperrors.APIError) {
	if limit <= 0 {
		limit = defaultFeedLimit
	}
	if limit > maxFeedLimit {
		limit = maxFeedLimit
	}

	items, err := s.sessions.Recent(ctx, limit)
	if err != nil {
		s.logger.Error("list feed", "error", err)
		return nil, apperrors.Internal("failed to load feed")
	}
	online, apiErr := s.OnlineCount(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	return &model.GlobalFeed{Items: items, OnlineCount: online}, nil
}

func (s *StatsService) OnlineCount(ctx context.Context) (int, *apperrors.APIError) {
	count, err := s.sessions.CountOnline(ctx)
	if err != nil {
		s.logger.Error("count online users", "error", err)
		return 0, apperrors.Internal("failed to count online users")
	}
	return count, nil
}

// computeStreak counts UTC calendar days with at least one completed focus
// session. The current streak survives until the end of the day after the
// last active day.
func computeStreak(completed []time.Time, now time.Time) model.Streak {
	streak := model.Streak{TotalPomodoros: len(completed)}
	if len(completed) == 0 {
		return streak
	}

	today := truncateDay(now)
	var days []time.Time
	for _, t := range completed {
		day := truncateDay(t)
		if day.Equal(today) {
			streak.TodayPomodoros++
		}
		if len(days) == 0 || !days[len(days)-1].Equal(day) {
			days = append(days, day)
		}
	}

	run := 0
	for i, day := range days {
		if i > 0 && days[i-1].AddDate(0, 0, 1).Equal(day) {
			run++
		} else {
			run = 1
		}
		if run > streak.LongestStreak {
			streak.LongestStreak = run
		}
	}

	last := days[len(days)-1]
	if last.Equal(today) || last.AddDate(0, 0, 1).Equal(today) {
		streak.CurrentStreak = run
	}
	lastActive := completed[len(completed)-1]
	streak.LastActiveDate = &lastActive
	return streak
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
