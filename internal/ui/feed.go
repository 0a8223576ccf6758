package ui

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"pomorix/internal/model"
)

type FeedStatus string

const (
	StatusFocusing FeedStatus = "FOCUSING"
	StatusBreak    FeedStatus = "BREAK"
	StatusDone     FeedStatus = "DONE"
)

// StatusOf maps a session lifecycle label to what the feed shows.
func StatusOf(state model.SessionState) FeedStatus {
	switch state {
	case model.StateFocus:
		return StatusFocusing
	case model.StateBreak:
		return StatusBreak
	default:
		return StatusDone
	}
}

// DisplayName turns "jane.doe@example.com" into "Jane Doe".
func DisplayName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	words := strings.FieldsFunc(local, func(r rune) bool { return r == '.' || r == '_' })
	for i, word := range words {
		first, size := utf8.DecodeRuneInString(word)
		words[i] = string(unicode.ToUpper(first)) + word[size:]
	}
	return strings.Join(words, " ")
}

// RelativeTime renders t relative to now, e.g. "3 minutes ago".
func RelativeTime(t, now time.Time) string {
	if now.Sub(t) < 10*time.Second {
		return "Just now"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// FormatCount adds thousand separators.
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}
