package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "pomorix/internal/errors"
	"pomorix/internal/model"
	"pomorix/internal/service"
)

type SessionHandler struct {
	sessionService *service.SessionService
}

func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

func (h *SessionHandler) Start(c *gin.Context) {
	userID, authed := currentUser(c)
	if !authed {
		return
	}
	var req model.StartSessionRequest
	if !bindJSON(c, &req) {
		return
	}

	session, apiErr := h.sessionService.Start(c.Request.Context(), userID, req.SessionType)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	respond(c, http.StatusCreated, "Session started", session)
}

// Current answers {"active": false} rather than 404 when nothing runs.
func (h *SessionHandler) Current(c *gin.Context) {
	userID, authed := currentUser(c)
	if !authed {
		return
	}

	session, apiErr := h.sessionService.Current(c.Request.Context(), userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	if session == nil {
		ok(c, "No active session", gin.H{"active": false})
		return
	}
	ok(c, "Current session", session)
}

func (h *SessionHandler) Pause(c *gin.Context) {
	h.transition(c, h.sessionService.Pause, "Session paused")
}

func (h *SessionHandler) Resume(c *gin.Context) {
	h.transition(c, h.sessionService.Resume, "Session resumed")
}

func (h *SessionHandler) Complete(c *gin.Context) {
	h.transition(c, h.sessionService.Complete, "Session completed")
}

type sessionTransition func(ctx context.Context, userID string) (*model.Session, *apperrors.APIError)

// transition replies with null data: clients refetch the current session
// to learn the remaining time.
func (h *SessionHandler) transition(c *gin.Context, apply sessionTransition, message string) {
	userID, authed := currentUser(c)
	if !authed {
		return
	}
	if _, apiErr := apply(c.Request.Context(), userID); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	ok(c, message, nil)
}
