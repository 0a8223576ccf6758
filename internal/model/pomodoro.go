package model

import "time"

type SessionType string

const (
	SessionFocus      SessionType = "FOCUS"
	SessionShortBreak SessionType = "SHORT_BREAK"
	SessionLongBreak  SessionType = "LONG_BREAK"
)

// Valid reports whether t is one of the three known session types.
func (t SessionType) Valid() bool {
	return t == SessionFocus || t == SessionShortBreak || t == SessionLongBreak
}

// IsBreak reports whether t is a short or long break.
func (t SessionType) IsBreak() bool {
	return t == SessionShortBreak || t == SessionLongBreak
}

func (t SessionType) Label() string {
	switch t {
	case SessionFocus:
		return "Focus"
	case SessionShortBreak:
		return "Short Break"
	case SessionLongBreak:
		return "Long Break"
	default:
		return "Unknown"
	}
}

// SessionState is the server-side lifecycle label. It is coarser than
// SessionType: both break types map to StateBreak.
type SessionState string

const (
	StateFocus     SessionState = "FOCUS"
	StateBreak     SessionState = "BREAK"
	StateCompleted SessionState = "COMPLETED"
	StateAborted   SessionState = "ABORTED"
)

// StateFor returns the running lifecycle label for a session type.
func StateFor(t SessionType) SessionState {
	if t.IsBreak() {
		return StateBreak
	}
	return StateFocus
}

// Terminal reports whether the state ends a session.
func (s SessionState) Terminal() bool {
	return s == StateCompleted || s == StateAborted
}

// Session is one timed interval. RemainingSeconds and ElapsedSeconds are
// computed by the session service at fetch time and are the only
// authoritative source of time left.
type Session struct {
	ID               string       `json:"id"`
	TaskID           string       `json:"task_id"`
	TaskTitle        string       `json:"task_title"`
	SessionType      SessionType  `json:"session_type"`
	State            SessionState `json:"state"`
	DurationSeconds  int          `json:"duration_seconds"`
	StartedAt        time.Time    `json:"started_at"`
	PausedAt         *time.Time   `json:"paused_at,omitempty"`
	IsPaused         bool         `json:"is_paused"`
	RemainingSeconds int          `json:"remaining_seconds"`
	ElapsedSeconds   int          `json:"elapsed_seconds"`
	EndedAt          *time.Time   `json:"ended_at,omitempty"`
}

type StartSessionRequest struct {
	SessionType SessionType `json:"session_type"`
}
