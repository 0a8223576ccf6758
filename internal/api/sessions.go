package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"pomorix/internal/model"
)

// ErrEmptySession is returned when the service acknowledges a start without
// describing the session it created.
var ErrEmptySession = errors.New("the service returned no session")

// StartSession starts a session of the given type for the active task.
// The service derives the duration from the user's settings.
func (c *Client) StartSession(ctx context.Context, sessionType model.SessionType) (*model.Session, error) {
	var session model.Session
	req := model.StartSessionRequest{SessionType: sessionType}
	if err := c.do(ctx, http.MethodPost, pathSessionStart, req, &session); err != nil {
		return nil, err
	}
	if session.ID == "" {
		return nil, ErrEmptySession
	}
	return &session, nil
}

// CurrentSession returns the active session with server-computed remaining
// time, or nil when the service reports no active session.
func (c *Client) CurrentSession(ctx context.Context) (*model.Session, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, pathSessionCurrent, nil, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var marker struct {
		Active *bool `json:"active"`
	}
	if err := json.Unmarshal(raw, &marker); err != nil {
		return nil, fmt.Errorf("decode current session: %w", err)
	}
	if marker.Active != nil && !*marker.Active {
		return nil, nil
	}

	var session model.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("decode current session: %w", err)
	}
	if session.ID == "" {
		return nil, nil
	}
	return &session, nil
}

func (c *Client) PauseSession(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, pathSessionPause, nil, nil)
}

// ResumeSession resumes the paused session. Callers must fetch
// CurrentSession afterwards to learn the remaining time.
func (c *Client) ResumeSession(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, pathSessionResume, nil, nil)
}

func (c *Client) CompleteSession(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, pathSessionComplete, nil, nil)
}
