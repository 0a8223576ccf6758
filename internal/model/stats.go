package model

import "time"

type Streak struct {
	CurrentStreak  int        `json:"current_streak"`
	LongestStreak  int        `json:"longest_streak"`
	TodayPomodoros int        `json:"today_pomodoros"`
	TotalPomodoros int        `json:"total_pomodoros"`
	LastActiveDate *time.Time `json:"last_active_date,omitempty"`
}

type BadgeCategory string

const (
	BadgeVolume     BadgeCategory = "VOLUME"
	BadgeStreak     BadgeCategory = "STREAK"
	BadgeOnboarding BadgeCategory = "ONBOARDING"
	BadgeIntensity  BadgeCategory = "INTENSITY"
)

type Badge struct {
	ID          string        `json:"id"`
	Code        string        `json:"code"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Category    BadgeCategory `json:"category"`
	IsUnlocked  bool          `json:"is_unlocked"`
	UnlockedAt  *time.Time    `json:"unlocked_at,omitempty"`
}

type FeedItem struct {
	ID        string       `json:"id"`
	UserEmail string       `json:"user_email"`
	TaskTitle string       `json:"task_title"`
	State     SessionState `json:"state"`
	StartedAt time.Time    `json:"started_at"`
	EndedAt   *time.Time   `json:"ended_at,omitempty"`
}

type GlobalFeed struct {
	Items       []FeedItem `json:"items"`
	OnlineCount int        `json:"online_count"`
}

type OnlineCount struct {
	OnlineCount int `json:"online_count"`
}
