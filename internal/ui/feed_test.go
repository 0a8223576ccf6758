package ui

import (
	"testing"
	"time"

	"pomorix/internal/model"
)

func TestDisplayName(t *testing.T) {
	tests := map[string]string{
		"jane.doe@example.com":   "Jane Doe",
		"john_smith@example.com": "John Smith",
		"alice@example.com":      "Alice",
		"bob":                    "Bob",
	}
	for email, want := range tests {
		if got := DisplayName(email); got != want {
			t.Errorf("DisplayName(%q) = %q, want %q", email, got, want)
		}
	}
}

func TestStatusOf(t *testing.T) {
	tests := map[model.SessionState]FeedStatus{
		model.StateFocus:     StatusFocusing,
		model.StateBreak:     StatusBreak,
		model.StateCompleted: StatusDone,
		model.StateAborted:   StatusDone,
	}
	for state, want := range tests {
		if got := StatusOf(state); got != want {
			t.Errorf("StatusOf(%s) = %s, want %s", state, got, want)
		}
	}
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if got := RelativeTime(now.Add(-5*time.Second), now); got != "Just now" {
		t.Fatalf("expected Just now, got %q", got)
	}
	if got := RelativeTime(now.Add(-3*time.Minute), now); got != "3 minutes ago" {
		t.Fatalf("expected 3 minutes ago, got %q", got)
	}
	if got := FormatCount(12345); got != "12,345" {
		t.Fatalf("expected 12,345, got %q", got)
	}
}
