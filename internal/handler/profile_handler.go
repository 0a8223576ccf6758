package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pomorix/internal/model"
	"pomorix/internal/service"
)

type ProfileHandler struct {
	profileService   *service.ProfileService
	bugReportService *service.BugReportService
}

func NewProfileHandler(profileService *service.ProfileService, bugReportService *service.BugReportService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService, bugReportService: bugReportService}
}

// Get accepts range (LAST_7_DAYS, LAST_30_DAYS, ALL_TIME).
func (h *ProfileHandler) Get(c *gin.Context) {
	userID, authed := currentUser(c)
	if !authed {
		return
	}

	rng := model.ProfileRange(strings.ToUpper(c.Query("range")))
	profile, apiErr := h.profileService.Profile(c.Request.Context(), userID, rng)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	ok(c, "Profile", profile)
}

func (h *ProfileHandler) Update(c *gin.Context) {
	userID, authed := currentUser(c)
	if !authed {
		return
	}
	var req model.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	user, apiErr := h.profileService.Update(c.Request.Context(), userID, req)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	ok(c, "Profile updated", user)
}

func (h *ProfileHandler) ReportBug(c *gin.Context) {
	userID, authed := currentUser(c)
	if !authed {
		return
	}
	var req model.CreateBugReportRequest
	if !bindJSON(c, &req) {
		return
	}

	report, apiErr := h.bugReportService.Create(c.Request.Context(), userID, req)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	respond(c, http.StatusCreated, "Bug report received", report)
}
