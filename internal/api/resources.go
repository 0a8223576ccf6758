package api

import (
	"context"
	"fmt"
	"net/http"

	"pomorix/internal/model"
)

func (c *Client) Register(ctx context.Context, creds model.Credentials) (*model.AuthResult, error) {
	return c.authenticate(ctx, pathRegister, creds)
}

func (c *Client) Login(ctx context.Context, creds model.Credentials) (*model.AuthResult, error) {
	return c.authenticate(ctx, pathLogin, creds)
}

func (c *Client) authenticate(ctx context.Context, path string, creds model.Credentials) (*model.AuthResult, error) {
	var result model.AuthResult
	if err := c.do(ctx, http.MethodPost, path, creds, &result); err != nil {
		return nil, err
	}
	if result.AccessToken != "" {
		if err := c.tokens.Save(result.AccessToken); err != nil {
			return nil, fmt.Errorf("store token: %w", err)
		}
	}
	return &result, nil
}

// Logout forgets the stored token. The service keeps no session state for
// bearer tokens, so nothing is sent.
func (c *Client) Logout() error {
	return c.tokens.Clear()
}

// Settings are created with defaults by the service on first read.
func (c *Client) Settings(ctx context.Context) (model.Settings, error) {
	var settings model.Settings
	err := c.do(ctx, http.MethodGet, pathSettings, nil, &settings)
	return settings, err
}

func (c *Client) UpdateSettings(ctx context.Context, update model.SettingsUpdate) (model.Settings, error) {
	var settings model.Settings
	err := c.do(ctx, http.MethodPatch, pathSettings, update, &settings)
	return settings, err
}

func (c *Client) ResetSettings(ctx context.Context) (model.Settings, error) {
	var settings model.Settings
	err := c.do(ctx, http.MethodPost, pathSettingsReset, nil, &settings)
	return settings, err
}

func (c *Client) Tasks(ctx context.Context) ([]model.Task, error) {
	tasks := []model.Task{}
	if err := c.do(ctx, http.MethodGet, pathTasks+"?sort_by=created_at&sort_order=asc", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) CreateTask(ctx context.Context, req model.CreateTaskRequest) (*model.Task, error) {
	var task model.Task
	if err := c.do(ctx, http.MethodPost, pathTasks, req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) UpdateTask(ctx context.Context, id string, req model.UpdateTaskRequest) (*model.Task, error) {
	var task model.Task
	if err := c.do(ctx, http.MethodPatch, taskPath(id), req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, taskPath(id), nil, nil)
}

// ToggleActive flips the task's active flag. Activating a task deactivates
// every other task of the user.
func (c *Client) ToggleActive(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	if err := c.do(ctx, http.MethodPatch, taskToggleActivePath(id), nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) Streak(ctx context.Context) (model.Streak, error) {
	var streak model.Streak
	err := c.do(ctx, http.MethodGet, pathStreak, nil, &streak)
	return streak, err
}

// Badges lists every badge definition with the caller's unlock status.
func (c *Client) Badges(ctx context.Context) ([]model.Badge, error) {
	badges := []model.Badge{}
	err := c.do(ctx, http.MethodGet, pathBadges, nil, &badges)
	return badges, err
}

func (c *Client) MyBadges(ctx context.Context) ([]model.Badge, error) {
	badges := []model.Badge{}
	err := c.do(ctx, http.MethodGet, pathMyBadges, nil, &badges)
	return badges, err
}

func (c *Client) GlobalFeed(ctx context.Context, limit int) (model.GlobalFeed, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var feed model.GlobalFeed
	err := c.do(ctx, http.MethodGet, feedPath(limit), nil, &feed)
	return feed, err
}

func (c *Client) OnlineCount(ctx context.Context) (int, error) {
	var count model.OnlineCount
	if err := c.do(ctx, http.MethodGet, pathOnlineCount, nil, &count); err != nil {
		return 0, err
	}
	return count.OnlineCount, nil
}

// Profile loads the profile with focus analytics over rng. An empty rng
// means the last seven days.
func (c *Client) Profile(ctx context.Context, rng model.ProfileRange) (*model.Profile, error) {
	if rng == "" {
		rng = model.RangeLast7Days
	}
	var profile model.Profile
	if err := c.do(ctx, http.MethodGet, profilePath(rng), nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *Client) UpdateProfile(ctx context.Context, req model.UpdateProfileRequest) (*model.User, error) {
	var user model.User
	if err := c.do(ctx, http.MethodPatch, pathProfile, req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) ReportBug(ctx context.Context, req model.CreateBugReportRequest) (*model.BugReport, error) {
	var report model.BugReport
	if err := c.do(ctx, http.MethodPost, pathBugReports, req, &report); err != nil {
		return nil, err
	}
	return &report, nil
}
