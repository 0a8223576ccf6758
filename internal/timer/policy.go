package timer

import "pomorix/internal/model"

// NextSession decides what follows a completed session. It returns false
// when the clock should stop and wait for the user.
//
// After a focus block auto_start_breaks wins over auto_start_pomodoros, so a
// user who enabled both gets the break.
func NextSession(completed model.SessionType, settings model.Settings) (model.SessionType, bool) {
	if completed == model.SessionFocus {
		if settings.AutoStartBreaks {
			return model.SessionShortBreak, true
		}
		if settings.AutoStartPomodoros {
			return model.SessionFocus, true
		}
		return model.SessionFocus, false
	}
	if settings.AutoStartPomodoros {
		return model.SessionFocus, true
	}
	return model.SessionFocus, false
}
