package handler

import (
	"github.com/gin-gonic/gin"

	"pomorix/internal/model"
	"pomorix/internal/service"
)

type SettingsHandler struct {
	settingsService *service.SettingsService
}

func NewSettingsHandler(settingsService *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

func (h *SettingsHandler) Get(c *gin.Context) {
	userID, authed := currentUser(c)
	if !authed {
		return
	}

	settings, apiErr := h.settingsService.Get(c.Request.Context(), userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	ok(c, "Settings", settings)
}

func (h *SettingsHandler) Update(c *gin.Context) {
	userID, authed := currentUser(c)
	if !authed {
		return
	}
	var update model.SettingsUpdate
	if !bindJSON(c, &update) {
		return
	}

	settings, apiErr := h.settingsService.Update(c.Request.Context(), userID, update)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	ok(c, "Settings updated", settings)
}

func (h *SettingsHandler) Reset(c *gin.Context) {
	userID, authed := currentUser(c)
	if !authed {
		return
	}

	settings, apiErr := h.settingsService.Reset(c.Request.Context(), userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	ok(c, "Settings reset", settings)
}
