package user

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"librarium/app/echoServer/httperr"
	"librarium/model"
	usersvc "librarium/service/user"
)

type Controller struct {
	Svc usersvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// GET /v1/users
func (h *Controller) List(c echo.Context) error {
	users, err := h.Svc.List(c.Request().Context())
	if err != nil {
		h.Log.Error("user list", "err", err)
		return httperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": users})
}

// GET /v1/users/:id
func (h *Controller) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	u, err := h.Svc.Get(c.Request().Context(), id)
	if err != nil {
		h.Log.Error("user get", "err", err)
		return httperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

// PATCH /v1/users/:id
func (h *Controller) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	var req model.UpdateUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	u, err := h.Svc.Update(c.Request().Context(), id, req)
	if err != nil {
		h.Log.Error("user update", "err", err)
		return httperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

// DELETE /v1/users/:id
func (h *Controller) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		h.Log.Error("user delete", "err", err)
		return httperr.JSON(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// POST /v1/users/:id/2fa/disable
func (h *Controller) Disable2FA(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	if err := h.Svc.Disable2FA(c.Request().Context(), id); err != nil {
		h.Log.Error("user 2fa disable", "err", err)
		return httperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "two-factor authentication disabled"})
}
