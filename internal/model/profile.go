package model

import "time"

// ProfileRange selects the window of the profile analytics.
type ProfileRange string

const (
	RangeLast7Days  ProfileRange = "LAST_7_DAYS"
	RangeLast30Days ProfileRange = "LAST_30_DAYS"
	RangeAllTime    ProfileRange = "ALL_TIME"
)

func (r ProfileRange) Valid() bool {
	switch r {
	case RangeLast7Days, RangeLast30Days, RangeAllTime:
		return true
	default:
		return false
	}
}

// Days is the window length in days, zero for all time.
func (r ProfileRange) Days() int {
	switch r {
	case RangeLast7Days:
		return 7
	case RangeLast30Days:
		return 30
	default:
		return 0
	}
}

type DailyFocus struct {
	Date         string `json:"date"`
	Pomodoros    int    `json:"pomodoros"`
	FocusMinutes int    `json:"focus_minutes"`
}

type ProfileAnalytics struct {
	Range        ProfileRange `json:"range"`
	Pomodoros    int          `json:"pomodoros"`
	FocusMinutes int          `json:"focus_minutes"`
	// DailyAverageMinutes spreads FocusMinutes over the window, or over the
	// days since the first session for ALL_TIME.
	DailyAverageMinutes float64      `json:"daily_average_minutes"`
	Days                []DailyFocus `json:"days"`
}

type Profile struct {
	User              User             `json:"user"`
	MemberSince       time.Time        `json:"member_since"`
	TotalPomodoros    int              `json:"total_pomodoros"`
	TotalFocusMinutes int              `json:"total_focus_minutes"`
	Streak            Streak           `json:"streak"`
	Analytics         ProfileAnalytics `json:"analytics"`
	Badges            []Badge          `json:"badges"`
}

type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name"`
}

type CreateBugReportRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type BugReport struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}
