package handler

import (
	"net/http"

	"github.com/Queneri/catalogotefi/internal/identity"
	"github.com/Queneri/catalogotefi/internal/middleware"
	"github.com/Queneri/catalogotefi/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthHandler serves account and session endpoints
type AuthHandler struct {
	identity *identity.Service
}

// NewAuthHandler creates the auth handler
func NewAuthHandler(svc *identity.Service) *AuthHandler {
	return &AuthHandler{identity: svc}
}

func (h *AuthHandler) Register(c echo.Context) error {
	log := logger.FromContext(c)

	var req identity.Credentials
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse registration request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	user, err := h.identity.Register(c.Request().Context(), req)
	if err != nil {
		log.Warn("Registration failed", zap.String("email", req.Email), zap.Error(err))
		return respondError(c, err, http.StatusInternalServerError, "registration failed")
	}

	log.Info("User registered", zap.String("email", user.Email))
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "User registered successfully",
		"user": map[string]interface{}{
			"id":    user.ID,
			"email": user.Email,
		},
	})
}

func (h *AuthHandler) Login(c echo.Context) error {
	log := logger.FromContext(c)

	var req identity.Credentials
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	token, id, err := h.identity.Login(c.Request().Context(), req)
	if err != nil {
		log.Warn("Login failed", zap.String("email", req.Email), zap.Error(err))
		return respondError(c, err, http.StatusInternalServerError, "login failed")
	}

	log.Info("User logged in", zap.String("email", id.Email), zap.String("role", id.Role))
	return c.JSON(http.StatusOK, echo.Map{
		"token": token,
		"user":  id,
	})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	log := logger.FromContext(c)

	token, err := middleware.BearerToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error()})
	}
	if err := h.identity.Logout(c.Request().Context(), token); err != nil {
		log.Warn("Logout failed", zap.Error(err))
		return respondError(c, err, http.StatusInternalServerError, "logout failed")
	}

	log.Info("User logged out")
	return c.NoContent(http.StatusNoContent)
}

// Session returns the identity resolved by the auth middleware
func (h *AuthHandler) Session(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no active session"})
	}
	return c.JSON(http.StatusOK, id)
}
