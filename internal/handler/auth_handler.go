package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pomorix/internal/model"
	"pomorix/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req model.Credentials
	if !bindJSON(c, &req) {
		return
	}

	result, apiErr := h.authService.Register(c.Request.Context(), req.Email, req.Password)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	respond(c, http.StatusCreated, "Registered", result)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req model.Credentials
	if !bindJSON(c, &req) {
		return
	}

	result, apiErr := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	ok(c, "Logged in", result)
}
