package api

import (
	"fmt"
	"net/url"

	"pomorix/internal/model"
)

const (
	pathRegister = "/auth/register"
	pathLogin    = "/auth/login"

	pathSessionStart    = "/pomodoro/start"
	pathSessionCurrent  = "/pomodoro/current"
	pathSessionPause    = "/pomodoro/pause"
	pathSessionResume   = "/pomodoro/resume"
	pathSessionComplete = "/pomodoro/complete"

	pathSettings      = "/settings"
	pathSettingsReset = "/settings/reset"

	pathTasks = "/tasks"

	pathStreak      = "/streak"
	pathBadges      = "/badges"
	pathMyBadges    = "/badges/me"
	pathFeed        = "/global/feed"
	pathOnlineCount = "/global/online-count"

	pathProfile    = "/user/profile"
	pathBugReports = "/bug-reports"
)

func taskPath(id string) string {
	return pathTasks + "/" + url.PathEscape(id)
}

func taskToggleActivePath(id string) string {
	return taskPath(id) + "/toggle-active"
}

func profilePath(rng model.ProfileRange) string {
	return pathProfile + "?range=" + url.QueryEscape(string(rng))
}

func feedPath(limit int) string {
	return fmt.Sprintf("%s?limit=%d", pathFeed, limit)
}
