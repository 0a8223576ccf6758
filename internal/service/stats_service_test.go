package service

import (
	"testing"
	"time"
)

func TestComputeStreak(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)
	day := func(offset, hour int) time.Time {
		return time.Date(2024, 3, 10+offset, hour, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name        string
		completed   []time.Time
		wantCurrent int
		wantLongest int
		wantToday   int
	}{
		{
			name: "no sessions",
		},
		{
			name:        "three days ending today",
			completed:   []time.Time{day(-2, 9), day(-1, 9), day(0, 9), day(0, 11)},
			wantCurrent: 3,
			wantLongest: 3,
			wantToday:   2,
		},
		{
			name:        "streak survives until the day after",
			completed:   []time.Time{day(-2, 9), day(-1, 9)},
			wantCurrent: 2,
			wantLongest: 2,
		},
		{
			name:        "gap breaks the current streak",
			completed:   []time.Time{day(-6, 9), day(-5, 9), day(-4, 9), day(-2, 9)},
			wantCurrent: 0,
			wantLongest: 3,
		},
		{
			name:        "longest run kept after a restart",
			completed:   []time.Time{day(-8, 9), day(-7, 9), day(-6, 9), day(-5, 9), day(-1, 20), day(0, 8)},
			wantCurrent: 2,
			wantLongest: 4,
			wantToday:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := computeStreak(tt.completed, now)
			if got.CurrentStreak != tt.wantCurrent || got.LongestStreak != tt.wantLongest || got.TodayPomodoros != tt.wantToday {
				t.Fatalf("got current=%d longest=%d today=%d, want %d/%d/%d",
					got.CurrentStreak, got.LongestStreak, got.TodayPomodoros,
					tt.wantCurrent, tt.wantLongest, tt.wantToday)
			}
			if got.TotalPomodoros != len(tt.completed) {
				t.Fatalf("expected total %d, got %d", len(tt.completed), got.TotalPomodoros)
			}
		})
	}
}

func TestBadgeRulesFollowStreak(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)
	var completed []time.Time
	for i := 0; i < 8; i++ {
		completed = append(completed, now.Add(-time.Duration(7-i)*30*time.Minute))
	}
	streak := computeStreak(completed, now)

	unlocked := map[string]bool{}
	for _, rule := range badgeRules {
		unlocked[rule.badge.Code] = rule.unlocked(streak)
	}
	for code, want := range map[string]bool{
		"FIRST_POMODORO":    true,
		"TEN_POMODOROS":     false,
		"HUNDRED_POMODOROS": false,
		"STREAK_3":          false,
		"MARATHON":          true,
	} {
		if unlocked[code] != want {
			t.Fatalf("%s: expected unlocked=%t", code, want)
		}
	}
}
