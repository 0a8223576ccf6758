package model

import "time"

type AlarmSound string

const (
	AlarmBells   AlarmSound = "BELLS"
	AlarmDigital AlarmSound = "DIGITAL"
	AlarmBird    AlarmSound = "BIRD"
	AlarmNone    AlarmSound = "NONE"
)

type TickingSound string

const (
	TickingNone       TickingSound = "NONE"
	TickingFast       TickingSound = "TICKING_FAST"
	TickingSlow       TickingSound = "TICKING_SLOW"
	TickingWhiteNoise TickingSound = "WHITE_NOISE"
)

// Settings is the user's preference snapshot. Durations are minutes.
type Settings struct {
	ID                 string       `json:"id,omitempty"`
	PomodoroDuration   int          `json:"pomodoro_duration"`
	ShortBreak         int          `json:"short_break"`
	LongBreak          int          `json:"long_break"`
	AlarmSound         AlarmSound   `json:"alarm_sound"`
	TickingSound       TickingSound `json:"ticking_sound"`
	Volume             int          `json:"volume"`
	AutoStartBreaks    bool         `json:"auto_start_breaks"`
	AutoStartPomodoros bool         `json:"auto_start_pomodoros"`
	DailyGoalPomodoros int          `json:"daily_goal_pomodoros"`
	CreatedAt          time.Time    `json:"created_at,omitempty"`
	UpdatedAt          time.Time    `json:"updated_at,omitempty"`
}

func DefaultSettings() Settings {
	return Settings{
		PomodoroDuration:   25,
		ShortBreak:         5,
		LongBreak:          15,
		AlarmSound:         AlarmBells,
		TickingSound:       TickingNone,
		Volume:             50,
		AutoStartBreaks:    false,
		AutoStartPomodoros: true,
		DailyGoalPomodoros: 8,
	}
}

// SecondsFor returns the configured length of a session type, falling back
// to the defaults when a duration is unset.
func (s Settings) SecondsFor(t SessionType) int {
	defaults := DefaultSettings()
	minutes := 0
	switch t {
	case SessionShortBreak:
		minutes = s.ShortBreak
		if minutes <= 0 {
			minutes = defaults.ShortBreak
		}
	case SessionLongBreak:
		minutes = s.LongBreak
		if minutes <= 0 {
			minutes = defaults.LongBreak
		}
	default:
		minutes = s.PomodoroDuration
		if minutes <= 0 {
			minutes = defaults.PomodoroDuration
		}
	}
	return minutes * 60
}

// SettingsUpdate is a partial update; nil fields are left unchanged.
type SettingsUpdate struct {
	PomodoroDuration   *int          `json:"pomodoro_duration,omitempty"`
	ShortBreak         *int          `json:"short_break,omitempty"`
	LongBreak          *int          `json:"long_break,omitempty"`
	AlarmSound         *AlarmSound   `json:"alarm_sound,omitempty"`
	TickingSound       *TickingSound `json:"ticking_sound,omitempty"`
	Volume             *int          `json:"volume,omitempty"`
	AutoStartBreaks    *bool         `json:"auto_start_breaks,omitempty"`
	AutoStartPomodoros *bool         `json:"auto_start_pomodoros,omitempty"`
	DailyGoalPomodoros *int          `json:"daily_goal_pomodoros,omitempty"`
}

// Apply copies every non-nil field of u onto s.
func (u SettingsUpdate) Apply(s *Settings) {
	if u.PomodoroDuration != nil {
		s.PomodoroDuration = *u.PomodoroDuration
	}
	if u.ShortBreak != nil {
		s.ShortBreak = *u.ShortBreak
	}
	if u.LongBreak != nil {
		s.LongBreak = *u.LongBreak
	}
	if u.AlarmSound != nil {
		s.AlarmSound = *u.AlarmSound
	}
	if u.TickingSound != nil {
		s.TickingSound = *u.TickingSound
	}
	if u.Volume != nil {
		s.Volume = *u.Volume
	}
	if u.AutoStartBreaks != nil {
		s.AutoStartBreaks = *u.AutoStartBreaks
	}
	if u.AutoStartPomodoros != nil {
		s.AutoStartPomodoros = *u.AutoStartPomodoros
	}
	if u.DailyGoalPomodoros != nil {
		s.DailyGoalPomodoros = *u.DailyGoalPomodoros
	}
}
