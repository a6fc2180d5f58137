package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Queneri/catalogotefi/internal/identity"
	"github.com/Queneri/catalogotefi/pkg/logger"
	"github.com/Queneri/catalogotefi/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const identityKey = "identity"

// Authenticator resolves a bearer token to the identity of its session
type Authenticator interface {
	Session(ctx context.Context, token string) (identity.Identity, error)
}

var errBadAuthHeader = errors.New("invalid authorization format, expected Bearer token")

// BearerToken extracts the token from the Authorization header
func BearerToken(c echo.Context) (string, error) {
	header := c.Request().Header.Get("Authorization")
	if header == "" {
		return "", errors.New("missing authorization token")
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", errBadAuthHeader
	}
	return parts[1], nil
}

// AuthMiddleware requires a token bound to an active session
func AuthMiddleware(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			token, err := BearerToken(c)
			if err != nil {
				log.Warn("Rejected request without usable token", zap.Error(err))
				prometheus.RecordAuthError("missing_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error()})
			}

			id, err := auth.Session(c.Request().Context(), token)
			if err != nil {
				log.Warn("Invalid session", zap.Error(err))
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired session"})
			}

			c.Set(identityKey, id)
			c.Set("user_id", id.UserID)
			c.Set("logger", log.With(zap.Uint("user_id", id.UserID)))
			return next(c)
		}
	}
}

// RequireAdmin rejects authenticated users without the admin role.
// It must run after AuthMiddleware.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := IdentityFrom(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
		}
		if !id.IsAdmin() {
			logger.FromContext(c).Warn("Admin route denied", zap.String("email", id.Email))
			prometheus.RecordAuthError("not_admin")
			return c.JSON(http.StatusForbidden, echo.Map{"error": "admin role required"})
		}
		return next(c)
	}
}

// IdentityFrom returns the identity stored by AuthMiddleware
func IdentityFrom(c echo.Context) (identity.Identity, bool) {
	id, ok := c.Get(identityKey).(identity.Identity)
	return id, ok
}
