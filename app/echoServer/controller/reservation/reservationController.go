package reservation

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"librarium/app/echoServer/httperr"
	"librarium/app/echoServer/jwtx"
	"librarium/model"
	reservationsvc "librarium/service/reservation"
)

type Controller struct {
	Svc reservationsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// POST /v1/reservations
func (h *Controller) Create(c echo.Context) error {
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	var req model.CreateReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}
	copyID, err := uuid.Parse(req.CopyID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid copy id"})
	}

	res, err := h.Svc.Create(c.Request().Context(), uid, copyID, req.ExpirationDate)
	if err != nil {
		h.Log.Error("reservation create", "err", err)
		return httperr.JSON(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// GET /v1/reservations
func (h *Controller) List(c echo.Context) error {
	out, err := h.Svc.List(c.Request().Context())
	if err != nil {
		h.Log.Error("reservation list", "err", err)
		return httperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out})
}

// GET /v1/reservations/my
func (h *Controller) My(c echo.Context) error {
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	out, err := h.Svc.ListMine(c.Request().Context(), uid)
	if err != nil {
		h.Log.Error("reservation my", "err", err)
		return httperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out})
}

// GET /v1/reservations/pending
func (h *Controller) Pending(c echo.Context) error {
	out, err := h.Svc.ListPending(c.Request().Context())
	if err != nil {
		h.Log.Error("reservation pending", "err", err)
		return httperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out})
}

// GET /v1/reservations/stats
func (h *Controller) Stats(c echo.Context) error {
	stats, err := h.Svc.Stats(c.Request().Context())
	if err != nil {
		h.Log.Error("reservation stats", "err", err)
		return httperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

// GET /v1/reservations/:id
func (h *Controller) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	res, err := h.Svc.Get(c.Request().Context(), id)
	if err != nil {
		h.Log.Error("reservation get", "err", err)
		return httperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// PATCH /v1/reservations/:id/fulfill
func (h *Controller) Fulfill(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	res, err := h.Svc.Fulfill(c.Request().Context(), id)
	if err != nil {
		h.Log.Error("reservation fulfill", "err", err)
		return httperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// PATCH /v1/reservations/:id/cancel
//
// Staff cancel on anyone's reservation; other callers only their own.
func (h *Controller) Cancel(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	acting, err := h.actingUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	res, err := h.Svc.Cancel(c.Request().Context(), id, acting)
	if err != nil {
		h.Log.Error("reservation cancel", "err", err)
		return httperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// POST /v1/reservations/expire
func (h *Controller) Expire(c echo.Context) error {
	n, err := h.Svc.Expire(c.Request().Context())
	if err != nil {
		h.Log.Error("reservation expire", "err", err)
		return httperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "expired reservations processed",
		"expired": n,
	})
}

// DELETE /v1/reservations/:id
func (h *Controller) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	acting, err := h.actingUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	if err := h.Svc.Remove(c.Request().Context(), id, acting); err != nil {
		h.Log.Error("reservation delete", "err", err)
		return httperr.JSON(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// actingUser resolves the ownership check: staff act unrestricted
// (uuid.Nil), everyone else acts as themselves.
func (h *Controller) actingUser(c echo.Context) (uuid.UUID, error) {
	role, err := jwtx.RoleFromContext(c)
	if err != nil {
		return uuid.Nil, err
	}
	if role.Staff() {
		return uuid.Nil, nil
	}
	return jwtx.UserIDFromContext(c)
}
