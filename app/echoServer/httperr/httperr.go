// Package httperr maps the service error taxonomy onto HTTP responses.
package httperr

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"librarium/util/apperr"
)

func statusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindInvalidInput:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict, apperr.KindInvalidState:
		return http.StatusConflict
	case apperr.KindLimitExceeded:
		return http.StatusUnprocessableEntity
	case apperr.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// JSON writes the error as {"error": KIND, "message": reason}. Errors
// outside the taxonomy become an opaque 500.
func JSON(c echo.Context, err error) error {
	kind := apperr.KindOf(err)
	if kind == "" {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(statusOf(kind), echo.Map{
		"error":   string(kind),
		"message": err.Error(),
	})
}
