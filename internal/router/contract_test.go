package router_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"pomorix/internal/api"
	apperrors "pomorix/internal/errors"
	"pomorix/internal/model"
)

func TestClientAgainstService(t *testing.T) {
	server := httptest.NewServer(setupTestEngine(t))
	t.Cleanup(server.Close)

	tokens := &api.MemoryTokenStore{}
	client := api.New(server.URL+"/api", api.WithTokenStore(tokens))
	ctx := context.Background()

	if _, err := client.Register(ctx, model.Credentials{Email: "client@example.com", Password: "123456"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if tokens.Token() == "" {
		t.Fatal("expected the access token to be stored")
	}

	if _, err := client.StartSession(ctx, model.SessionFocus); apperrors.StatusOf(err) != http.StatusBadRequest {
		t.Fatalf("expected 400 without an active task, got %v", err)
	}

	task, err := client.CreateTask(ctx, model.CreateTaskRequest{Title: "Contract", EstimatedPomodoros: 3})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if _, err := client.ToggleActive(ctx, task.ID); err != nil {
		t.Fatalf("toggle active: %v", err)
	}

	session, err := client.StartSession(ctx, model.SessionFocus)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if session.RemainingSeconds != 1500 || session.TaskTitle != "Contract" {
		t.Fatalf("unexpected session %+v", session)
	}

	if err := client.PauseSession(ctx); err != nil {
		t.Fatalf("pause: %v", err)
	}
	current, err := client.CurrentSession(ctx)
	if err != nil || current == nil || !current.IsPaused {
		t.Fatalf("expected a paused session, got %+v (%v)", current, err)
	}
	if err := client.ResumeSession(ctx); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if err := client.CompleteSession(ctx); err != nil {
		t.Fatalf("complete: %v", err)
	}

	current, err = client.CurrentSession(ctx)
	if err != nil {
		t.Fatalf("current after completion: %v", err)
	}
	if current != nil {
		t.Fatalf("expected no session after completion, got %+v", current)
	}

	err = client.CompleteSession(ctx)
	if apperrors.StatusOf(err) != http.StatusNotFound || apperrors.IsRetryable(err) {
		t.Fatalf("expected a non-retryable 404, got %v", err)
	}

	settings, err := client.Settings(ctx)
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if settings.PomodoroDuration != 25 || !settings.AutoStartPomodoros {
		t.Fatalf("expected default settings, got %+v", settings)
	}

	name := "Contract Tester"
	if _, err := client.UpdateProfile(ctx, model.UpdateProfileRequest{DisplayName: &name}); err != nil {
		t.Fatalf("update profile: %v", err)
	}
	profile, err := client.Profile(ctx, "")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.User.DisplayName != name || profile.TotalPomodoros != 1 || profile.Analytics.Range != model.RangeLast7Days {
		t.Fatalf("unexpected profile %+v", profile)
	}
	if _, err := client.Profile(ctx, "FOREVER"); apperrors.StatusOf(err) != http.StatusBadRequest {
		t.Fatalf("expected 400 for an unknown range, got %v", err)
	}
	if report, err := client.ReportBug(ctx, model.CreateBugReportRequest{Title: "Contract", Description: "Filed from the client."}); err != nil || report.ID == "" {
		t.Fatalf("report bug: %+v (%v)", report, err)
	}

	count, err := client.OnlineCount(ctx)
	if err != nil || count != 0 {
		t.Fatalf("expected nobody online, got %d (%v)", count, err)
	}

	if err := tokens.Save("expired"); err != nil {
		t.Fatalf("save token: %v", err)
	}
	if _, err := client.Tasks(ctx); apperrors.StatusOf(err) != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a bad token, got %v", err)
	}
	if tokens.Token() != "" {
		t.Fatal("expected the rejected token to be cleared")
	}
}
