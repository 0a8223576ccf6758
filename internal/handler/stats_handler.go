package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"pomorix/internal/model"
	"pomorix/internal/service"
)

type StatsHandler struct {
	statsService *service.StatsService
}

func NewStatsHandler(statsService *service.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

func (h *StatsHandler) Streak(c *gin.Context) {
	userID, authed := currentUser(c)
	if !authed {
		return
	}

	streak, apiErr := h.statsService.Streak(c.Request.Context(), userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	ok(c, "Streak", streak)
}

func (h *StatsHandler) Badges(c *gin.Context) {
	h.badges(c, false)
}

func (h *StatsHandler) MyBadges(c *gin.Context) {
	h.badges(c, true)
}

func (h *StatsHandler) badges(c *gin.Context, unlockedOnly bool) {
	userID, authed := currentUser(c)
	if !authed {
		return
	}

	badges, apiErr := h.statsService.Badges(c.Request.Context(), userID, unlockedOnly)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	ok(c, "Badges", badges)
}

func (h *StatsHandler) Feed(c *gin.Context) {
	limit := 0
	if rawLimit := c.Query("limit"); rawLimit != "" {
		if parsed, err := strconv.Atoi(rawLimit); err == nil {
			limit = parsed
		}
	}

	feed, apiErr := h.statsService.Feed(c.Request.Context(), limit)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	ok(c, "Global feed", feed)
}

func (h *StatsHandler) OnlineCount(c *gin.Context) {
	count, apiErr := h.statsService.OnlineCount(c.Request.Context())
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	ok(c, "Online count", model.OnlineCount{OnlineCount: count})
}
