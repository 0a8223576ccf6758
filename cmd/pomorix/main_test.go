package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"pomorix/internal/model"
)

func TestParseSettingsUpdate(t *testing.T) {
	update, err := parseSettingsUpdate([]string{"short_break=10", "auto_start_breaks=true", "alarm_sound=digital"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if update.ShortBreak == nil || *update.ShortBreak != 10 {
		t.Fatalf("unexpected short_break %v", update.ShortBreak)
	}
	if update.AutoStartBreaks == nil || !*update.AutoStartBreaks {
		t.Fatal("expected auto_start_breaks to be set")
	}
	if update.AlarmSound == nil || *update.AlarmSound != model.AlarmDigital {
		t.Fatalf("unexpected alarm_sound %v", update.AlarmSound)
	}
	if update.PomodoroDuration != nil || update.Volume != nil {
		t.Fatal("expected untouched fields to stay nil")
	}
}

func TestParseSettingsUpdateErrors(t *testing.T) {
	tests := []struct {
		pair string
		want string
	}{
		{pair: "short_break", want: "expected key=value"},
		{pair: "short_break=ten", want: "short_break"},
		{pair: "auto_start_breaks=maybe", want: "auto_start_breaks"},
		{pair: "theme=dark", want: "unknown setting"},
	}
	for _, tt := range tests {
		t.Run(tt.pair, func(t *testing.T) {
			_, err := parseSettingsUpdate([]string{tt.pair})
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		raw  string
		want model.ProfileRange
	}{
		{raw: "7d", want: model.RangeLast7Days},
		{raw: "30D", want: model.RangeLast30Days},
		{raw: "all", want: model.RangeAllTime},
		{raw: "last_30_days", want: model.RangeLast30Days},
	}
	for _, tt := range tests {
		got, err := parseRange(tt.raw)
		if err != nil || got != tt.want {
			t.Fatalf("parseRange(%q) = %s, %v; want %s", tt.raw, got, err, tt.want)
		}
	}
	if _, err := parseRange("yesterday"); err == nil {
		t.Fatal("expected an unknown range to fail")
	}
}

func TestPrintProfile(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	p := &model.Profile{
		User:              model.User{Email: "jane@example.com", DisplayName: "Jane"},
		MemberSince:       now.AddDate(0, 0, -14),
		TotalPomodoros:    1240,
		TotalFocusMinutes: 125,
		Streak:            model.Streak{CurrentStreak: 3, LongestStreak: 5},
		Analytics: model.ProfileAnalytics{
			Range:               model.RangeLast7Days,
			Pomodoros:           2,
			FocusMinutes:        50,
			DailyAverageMinutes: 7.1,
			Days: []model.DailyFocus{
				{Date: "2024-03-09"},
				{Date: "2024-03-10", Pomodoros: 2, FocusMinutes: 50},
			},
		},
	}

	var out bytes.Buffer
	if err := printProfile(&out, p, now); err != nil {
		t.Fatalf("print profile: %v", err)
	}
	for _, want := range []string{"Jane, member since 2 weeks ago", "1,240", "2h05m", "3 days (best 5)", "Last 7 days: 2 pomodoros, 50m, 7.1 min/day"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("expected %q in output:\n%s", want, out.String())
		}
	}
	for _, line := range strings.Split(out.String(), "\n") {
		if strings.Contains(line, "2024-03-10") && !strings.Contains(line, "##") {
			t.Fatalf("expected a bar for 2024-03-10, got %q", line)
		}
		if strings.Contains(line, "2024-03-09") && strings.Contains(line, "#") {
			t.Fatalf("expected no bar for an empty day, got %q", line)
		}
	}
}
