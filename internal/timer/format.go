package timer

import (
	"fmt"

	"pomorix/internal/model"
)

// FormatClock renders seconds as MM:SS. Negative values render as 00:00.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// Title is the one-line status used for the terminal window title.
func Title(mode model.SessionType, secondsLeft int, active bool) string {
	if secondsLeft <= 0 {
		if mode == model.SessionFocus {
			return "Focus complete!"
		}
		return "Break complete!"
	}

	title := FormatClock(secondsLeft) + " - " + modeMessage(mode)
	if !active {
		title += " (Paused)"
	}
	return title
}

func modeMessage(mode model.SessionType) string {
	switch mode {
	case model.SessionFocus:
		return "Time to focus!"
	case model.SessionShortBreak:
		return "Short break"
	case model.SessionLongBreak:
		return "Long break"
	default:
		return "Pomorix"
	}
}
