package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"pomorix/internal/db"
	"pomorix/internal/handler"
	"pomorix/internal/middleware"
	"pomorix/internal/repository"
	"pomorix/internal/router"
	"pomorix/internal/service"
	"pomorix/migrations"
)

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Error      *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type authData struct {
	AccessToken string `json:"access_token"`
	User        struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

type sessionData struct {
	ID               string `json:"id"`
	SessionType      string `json:"session_type"`
	State            string `json:"state"`
	DurationSeconds  int    `json:"duration_seconds"`
	RemainingSeconds int    `json:"remaining_seconds"`
	IsPaused         bool   `json:"is_paused"`
	TaskID           string `json:"task_id"`
	Active           *bool  `json:"active"`
}

type taskData struct {
	ID                 string `json:"id"`
	Title              string `json:"title"`
	IsActive           bool   `json:"is_active"`
	CompletedPomodoros int    `json:"completed_pomodoros"`
}

func TestSessionLifecycle(t *testing.T) {
	engine := setupTestEngine(t)
	user := registerUser(t, engine, "user1@example.com", "123456")

	status, body := requestJSON(t, engine, http.MethodPost, "/api/pomodoro/start", user.AccessToken, map[string]string{"session_type": "FOCUS"})
	expectError(t, status, body, http.StatusBadRequest, "no_active_task")

	task := createActiveTask(t, engine, user.AccessToken, "Write report")

	var started sessionData
	status, body = requestJSON(t, engine, http.MethodPost, "/api/pomodoro/start", user.AccessToken, map[string]string{"session_type": "FOCUS"})
	decodeData(t, status, body, http.StatusCreated, &started)
	if started.DurationSeconds != 1500 || started.RemainingSeconds != 1500 {
		t.Fatalf("expected a 25 minute session, got %+v", started)
	}
	if started.State != "FOCUS" || started.TaskID != task.ID {
		t.Fatalf("unexpected session %+v", started)
	}

	status, body = requestJSON(t, engine, http.MethodPost, "/api/pomodoro/start", user.AccessToken, map[string]string{"session_type": "FOCUS"})
	expectError(t, status, body, http.StatusConflict, "session_active")

	for i := 0; i < 2; i++ {
		status, body = requestJSON(t, engine, http.MethodPost, "/api/pomodoro/pause", user.AccessToken, nil)
		if status != http.StatusOK {
			t.Fatalf("pause attempt %d: expected 200, got %d: %s", i+1, status, body)
		}
	}
	current := getCurrent(t, engine, user.AccessToken)
	if current.ID != started.ID || !current.IsPaused {
		t.Fatalf("expected the started session to be paused, got %+v", current)
	}

	status, body = requestJSON(t, engine, http.MethodPost, "/api/pomodoro/resume", user.AccessToken, nil)
	if status != http.StatusOK {
		t.Fatalf("resume: expected 200, got %d: %s", status, body)
	}
	if current = getCurrent(t, engine, user.AccessToken); current.IsPaused {
		t.Fatal("expected the session to be running after resume")
	}

	status, body = requestJSON(t, engine, http.MethodPost, "/api/pomodoro/complete", user.AccessToken, nil)
	if status != http.StatusOK {
		t.Fatalf("complete: expected 200, got %d: %s", status, body)
	}
	current = getCurrent(t, engine, user.AccessToken)
	if current.Active == nil || *current.Active {
		t.Fatalf("expected {\"active\":false} after completion, got %+v", current)
	}

	status, body = requestJSON(t, engine, http.MethodPost, "/api/pomodoro/complete", user.AccessToken, nil)
	expectError(t, status, body, http.StatusNotFound, "no_active_session")

	var tasks []taskData
	status, body = requestJSON(t, engine, http.MethodGet, "/api/tasks", user.AccessToken, nil)
	decodeData(t, status, body, http.StatusOK, &tasks)
	if len(tasks) != 1 || tasks[0].CompletedPomodoros != 1 {
		t.Fatalf("expected one pomodoro credited to the task, got %+v", tasks)
	}

	var streak struct {
		CurrentStreak  int `json:"current_streak"`
		TodayPomodoros int `json:"today_pomodoros"`
		TotalPomodoros int `json:"total_pomodoros"`
	}
	status, body = requestJSON(t, engine, http.MethodGet, "/api/streak", user.AccessToken, nil)
	decodeData(t, status, body, http.StatusOK, &streak)
	if streak.CurrentStreak != 1 || streak.TodayPomodoros != 1 || streak.TotalPomodoros != 1 {
		t.Fatalf("unexpected streak %+v", streak)
	}

	var badges []struct {
		Code       string `json:"code"`
		IsUnlocked bool   `json:"is_unlocked"`
	}
	status, body = requestJSON(t, engine, http.MethodGet, "/api/badges/me", user.AccessToken, nil)
	decodeData(t, status, body, http.StatusOK, &badges)
	if len(badges) != 1 || badges[0].Code != "FIRST_POMODORO" || !badges[0].IsUnlocked {
		t.Fatalf("expected the first pomodoro badge, got %+v", badges)
	}
}

func TestBreakDurationFollowsSettings(t *testing.T) {
	engine := setupTestEngine(t)
	user := registerUser(t, engine, "breaks@example.com", "123456")
	createActiveTask(t, engine, user.AccessToken, "Reading")

	var settings struct {
		ShortBreak int `json:"short_break"`
	}
	status, body := requestJSON(t, engine, http.MethodPatch, "/api/settings", user.AccessToken, map[string]int{"short_break": 10})
	decodeData(t, status, body, http.StatusOK, &settings)
	if settings.ShortBreak != 10 {
		t.Fatalf("expected short_break 10, got %d", settings.ShortBreak)
	}

	status, body = requestJSON(t, engine, http.MethodPatch, "/api/settings", user.AccessToken, map[string]int{"short_break": 0})
	expectError(t, status, body, http.StatusBadRequest, "invalid_settings")

	var started sessionData
	status, body = requestJSON(t, engine, http.MethodPost, "/api/pomodoro/start", user.AccessToken, map[string]string{"session_type": "SHORT_BREAK"})
	decodeData(t, status, body, http.StatusCreated, &started)
	if started.DurationSeconds != 600 || started.State != "BREAK" {
		t.Fatalf("expected a 10 minute break, got %+v", started)
	}

	status, body = requestJSON(t, engine, http.MethodPost, "/api/settings/reset", user.AccessToken, nil)
	decodeData(t, status, body, http.StatusOK, &settings)
	if settings.ShortBreak != 5 {
		t.Fatalf("expected reset short_break 5, got %d", settings.ShortBreak)
	}

	status, body = requestJSON(t, engine, http.MethodPost, "/api/pomodoro/start", user.AccessToken, map[string]string{"session_type": "NAP"})
	expectError(t, status, body, http.StatusBadRequest, "invalid_session_type")
}

func TestToggleActiveKeepsOneActiveTask(t *testing.T) {
	engine := setupTestEngine(t)
	user := registerUser(t, engine, "tasks@example.com", "123456")

	first := createActiveTask(t, engine, user.AccessToken, "First")
	second := createActiveTask(t, engine, user.AccessToken, "Second")

	var tasks []taskData
	status, body := requestJSON(t, engine, http.MethodGet, "/api/tasks?sort_by=created_at&sort_order=asc", user.AccessToken, nil)
	decodeData(t, status, body, http.StatusOK, &tasks)
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	for _, task := range tasks {
		if want := task.ID == second.ID; task.IsActive != want {
			t.Fatalf("task %s: expected active=%t, got %t", task.Title, want, task.IsActive)
		}
	}

	var toggled taskData
	status, body = requestJSON(t, engine, http.MethodPatch, "/api/tasks/"+second.ID+"/toggle-active", user.AccessToken, nil)
	decodeData(t, status, body, http.StatusOK, &toggled)
	if toggled.IsActive {
		t.Fatal("expected the second toggle to deactivate the task")
	}

	status, body = requestJSON(t, engine, http.MethodDelete, "/api/tasks/"+first.ID, user.AccessToken, nil)
	if status != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d: %s", status, body)
	}
	status, body = requestJSON(t, engine, http.MethodDelete, "/api/tasks/"+first.ID, user.AccessToken, nil)
	expectError(t, status, body, http.StatusNotFound, "task_not_found")
}

func TestUsersAreIsolated(t *testing.T) {
	engine := setupTestEngine(t)
	user1 := registerUser(t, engine, "user1@example.com", "123456")
	user2 := registerUser(t, engine, "user2@example.com", "123456")

	task := createActiveTask(t, engine, user1.AccessToken, "Private")
	status, body := requestJSON(t, engine, http.MethodPost, "/api/pomodoro/start", user1.AccessToken, map[string]string{"session_type": "FOCUS"})
	if status != http.StatusCreated {
		t.Fatalf("start: expected 201, got %d: %s", status, body)
	}

	current := getCurrent(t, engine, user2.AccessToken)
	if current.Active == nil || *current.Active {
		t.Fatalf("expected user2 to have no session, got %+v", current)
	}
	status, body = requestJSON(t, engine, http.MethodPatch, "/api/tasks/"+task.ID+"/toggle-active", user2.AccessToken, nil)
	expectError(t, status, body, http.StatusNotFound, "task_not_found")

	var feed struct {
		Items []struct {
			UserEmail string `json:"user_email"`
			TaskTitle string `json:"task_title"`
			State     string `json:"state"`
		} `json:"items"`
		OnlineCount int `json:"online_count"`
	}
	status, body = requestJSON(t, engine, http.MethodGet, "/api/global/feed?limit=10", "", nil)
	decodeData(t, status, body, http.StatusOK, &feed)
	if len(feed.Items) != 1 || feed.Items[0].UserEmail != "user1@example.com" || feed.Items[0].State != "FOCUS" {
		t.Fatalf("unexpected feed %+v", feed)
	}
	if feed.OnlineCount != 1 {
		t.Fatalf("expected 1 user online, got %d", feed.OnlineCount)
	}
}

func TestAuthErrors(t *testing.T) {
	engine := setupTestEngine(t)
	registerUser(t, engine, "auth@example.com", "123456")

	status, body := requestJSON(t, engine, http.MethodGet, "/api/pomodoro/current", "", nil)
	expectError(t, status, body, http.StatusUnauthorized, "unauthorized")

	status, body = requestJSON(t, engine, http.MethodGet, "/api/pomodoro/current", "not-a-token", nil)
	expectError(t, status, body, http.StatusUnauthorized, "unauthorized")

	status, body = requestJSON(t, engine, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    "AUTH@example.com",
		"password": "123456",
	})
	expectError(t, status, body, http.StatusConflict, "email_exists")

	status, body = requestJSON(t, engine, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "auth@example.com",
		"password": "wrong-password",
	})
	expectError(t, status, body, http.StatusUnauthorized, "unauthorized")

	var login authData
	status, body = requestJSON(t, engine, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "auth@example.com",
		"password": "123456",
	})
	decodeData(t, status, body, http.StatusOK, &login)
	if login.AccessToken == "" || login.User.Email != "auth@example.com" {
		t.Fatalf("unexpected login result %+v", login)
	}
}

func TestCORSPreflight(t *testing.T) {
	engine := setupTestEngine(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/settings", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "PATCH")
	recorder := httptest.NewRecorder()

	engine.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", recorder.Code)
	}
	if recorder.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Fatalf("unexpected allow-origin header: %s", recorder.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestProfileAndBugReports(t *testing.T) {
	engine := setupTestEngine(t)
	user := registerUser(t, engine, "profile@example.com", "123456")
	createActiveTask(t, engine, user.AccessToken, "Profile work")

	status, body := requestJSON(t, engine, http.MethodPost, "/api/pomodoro/start", user.AccessToken, map[string]string{"session_type": "FOCUS"})
	if status != http.StatusCreated {
		t.Fatalf("start: expected 201, got %d: %s", status, body)
	}
	status, body = requestJSON(t, engine, http.MethodPost, "/api/pomodoro/complete", user.AccessToken, nil)
	if status != http.StatusOK {
		t.Fatalf("complete: expected 200, got %d: %s", status, body)
	}

	var profile struct {
		User struct {
			Email       string `json:"email"`
			DisplayName string `json:"display_name"`
		} `json:"user"`
		TotalPomodoros int `json:"total_pomodoros"`
		Analytics      struct {
			Range     string            `json:"range"`
			Pomodoros int               `json:"pomodoros"`
			Days      []json.RawMessage `json:"days"`
		} `json:"analytics"`
		Badges []struct {
			Code string `json:"code"`
		} `json:"badges"`
	}
	status, body = requestJSON(t, engine, http.MethodGet, "/api/user/profile?range=last_30_days", user.AccessToken, nil)
	decodeData(t, status, body, http.StatusOK, &profile)
	if profile.User.Email != "profile@example.com" || profile.TotalPomodoros != 1 {
		t.Fatalf("unexpected profile %+v", profile)
	}
	if profile.Analytics.Range != "LAST_30_DAYS" || profile.Analytics.Pomodoros != 1 || len(profile.Analytics.Days) != 30 {
		t.Fatalf("unexpected analytics %+v", profile.Analytics)
	}
	if len(profile.Badges) != 1 || profile.Badges[0].Code != "FIRST_POMODORO" {
		t.Fatalf("expected the first pomodoro badge, got %+v", profile.Badges)
	}

	status, body = requestJSON(t, engine, http.MethodGet, "/api/user/profile?range=FOREVER", user.AccessToken, nil)
	expectError(t, status, body, http.StatusBadRequest, "invalid_range")

	var updated struct {
		DisplayName string `json:"display_name"`
	}
	status, body = requestJSON(t, engine, http.MethodPatch, "/api/user/profile", user.AccessToken, map[string]string{"display_name": "  Jane  "})
	decodeData(t, status, body, http.StatusOK, &updated)
	if updated.DisplayName != "Jane" {
		t.Fatalf("expected a trimmed display name, got %q", updated.DisplayName)
	}
	status, body = requestJSON(t, engine, http.MethodPatch, "/api/user/profile", user.AccessToken, map[string]string{"display_name": strings.Repeat("x", 51)})
	expectError(t, status, body, http.StatusBadRequest, "invalid_display_name")

	var report struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	status, body = requestJSON(t, engine, http.MethodPost, "/api/bug-reports", user.AccessToken, map[string]string{"title": "Timer froze", "description": "After resuming the countdown stopped."})
	decodeData(t, status, body, http.StatusCreated, &report)
	if report.ID == "" || report.Title != "Timer froze" {
		t.Fatalf("unexpected report %+v", report)
	}
	status, body = requestJSON(t, engine, http.MethodPost, "/api/bug-reports", user.AccessToken, map[string]string{"title": "Empty"})
	expectError(t, status, body, http.StatusBadRequest, "invalid_bug_report")

	status, body = requestJSON(t, engine, http.MethodGet, "/api/user/profile", "", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d: %s", status, body)
	}
}

func setupTestEngine(t *testing.T) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	if _, err := db.RunMigrations(database, migrations.Source("")); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	userRepo := repository.NewUserRepository(database)
	settingsRepo := repository.NewSettingsRepository(database)
	taskRepo := repository.NewTaskRepository(database)
	sessionRepo := repository.NewSessionRepository(database)

	authService := service.NewAuthService(userRepo, settingsRepo, "test-secret", 24*time.Hour, logger)
	statsService := service.NewStatsService(sessionRepo, repository.NewBadgeRepository(database), logger)
	sessionService := service.NewSessionService(sessionRepo, taskRepo, settingsRepo, statsService, logger)

	profileHandler := handler.NewProfileHandler(
		service.NewProfileService(userRepo, sessionRepo, statsService, logger),
		service.NewBugReportService(repository.NewBugReportRepository(database), logger),
	)

	return router.New(authService, router.Handlers{
		Auth:     handler.NewAuthHandler(authService),
		Sessions: handler.NewSessionHandler(sessionService),
		Settings: handler.NewSettingsHandler(service.NewSettingsService(settingsRepo, logger)),
		Tasks:    handler.NewTaskHandler(service.NewTaskService(taskRepo, logger)),
		Stats:    handler.NewStatsHandler(statsService),
		Profile:  profileHandler,
	}, middleware.DefaultCORSConfig([]string{"http://localhost:5173"}), logger)
}

func registerUser(t *testing.T, server http.Handler, email, password string) authData {
	t.Helper()
	status, body := requestJSON(t, server, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    email,
		"password": password,
	})
	var resp authData
	decodeData(t, status, body, http.StatusCreated, &resp)
	if resp.AccessToken == "" {
		t.Fatalf("empty token for user %s", email)
	}
	return resp
}

func createActiveTask(t *testing.T, server http.Handler, token, title string) taskData {
	t.Helper()
	var task taskData
	status, body := requestJSON(t, server, http.MethodPost, "/api/tasks", token, map[string]interface{}{
		"title":               title,
		"estimated_pomodoros": 2,
	})
	decodeData(t, status, body, http.StatusCreated, &task)

	status, body = requestJSON(t, server, http.MethodPatch, "/api/tasks/"+task.ID+"/toggle-active", token, nil)
	decodeData(t, status, body, http.StatusOK, &task)
	if !task.IsActive {
		t.Fatalf("expected task %s to be active", title)
	}
	return task
}

func getCurrent(t *testing.T, server http.Handler, token string) sessionData {
	t.Helper()
	var current sessionData
	status, body := requestJSON(t, server, http.MethodGet, "/api/pomodoro/current", token, nil)
	decodeData(t, status, body, http.StatusOK, &current)
	return current
}

func decodeData(t *testing.T, status int, body []byte, wantStatus int, out interface{}) {
	t.Helper()
	if status != wantStatus {
		t.Fatalf("expected status %d, got %d: %s", wantStatus, status, string(body))
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if env.StatusCode != wantStatus {
		t.Fatalf("expected statusCode %d in body, got %d", wantStatus, env.StatusCode)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
}

func expectError(t *testing.T, status int, body []byte, wantStatus int, wantCode string) {
	t.Helper()
	if status != wantStatus {
		t.Fatalf("expected status %d, got %d: %s", wantStatus, status, string(body))
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("unmarshal error envelope: %v", err)
	}
	if env.Error == nil || env.Error.Code != wantCode {
		t.Fatalf("expected error code %s, got %s", wantCode, string(body))
	}
}

func requestJSON(
	t *testing.T,
	server http.Handler,
	method, path, token string,
	body interface{},
) (int, []byte) {
	t.Helper()

	var payload []byte
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		payload = raw
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)
	return recorder.Code, recorder.Body.Bytes()
}
