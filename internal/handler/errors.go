package handler

import (
	"net/http"

	"github.com/Queneri/catalogotefi/internal/catalog"
	"github.com/Queneri/catalogotefi/internal/identity"
	"github.com/Queneri/catalogotefi/internal/imaging"
	"github.com/Queneri/catalogotefi/internal/model"
	"github.com/Queneri/catalogotefi/internal/store"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// statusFor maps a domain error onto an HTTP status
func statusFor(err error) (int, bool) {
	switch {
	case model.IsValidationError(err):
		return http.StatusBadRequest, true
	case errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, catalog.ErrUnknownBrand),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, true
	case errors.Is(err, catalog.ErrRowBusy),
		errors.Is(err, catalog.ErrReorderInProgress),
		errors.Is(err, catalog.ErrIllegalTransition),
		errors.Is(err, catalog.ErrSuperseded),
		errors.Is(err, identity.ErrEmailTaken):
		return http.StatusConflict, true
	case errors.Is(err, catalog.ErrNoMatchingProducts):
		return http.StatusUnprocessableEntity, true
	case errors.Is(err, identity.ErrInvalidCredentials),
		errors.Is(err, identity.ErrNoSession):
		return http.StatusUnauthorized, true
	case errors.Is(err, imaging.ErrNotImage):
		return http.StatusUnsupportedMediaType, true
	case errors.Is(err, imaging.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, true
	case errors.Is(err, imaging.ErrEmpty):
		return http.StatusBadRequest, true
	default:
		return 0, false
	}
}

// respondError writes {"error": ...}. Unrecognised errors are reported with
// message instead of their text.
func respondError(c echo.Context, err error, fallback int, message string) error {
	status, known := statusFor(err)
	body := echo.Map{"error": err.Error()}
	if !known {
		status = fallback
		body["error"] = message
	}
	var ve *model.ValidationError
	if errors.As(err, &ve) && ve.Field != "" {
		body["field"] = ve.Field
	}
	return c.JSON(status, body)
}
