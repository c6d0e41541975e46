package copy

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"librarium/app/echoServer/httperr"
	"librarium/model"
	copysvc "librarium/service/copy"
)

type Controller struct {
	Svc copysvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// POST /v1/copies
func (h *Controller) Create(c echo.Context) error {
	var req model.CreateCopyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	cp, err := h.Svc.Create(c.Request().Context(), req)
	if err != nil {
		h.Log.Error("copy create", "err", err)
		return httperr.JSON(c, err)
	}
	return c.JSON(http.StatusCreated, cp)
}

// GET /v1/copies
func (h *Controller) List(c echo.Context) error {
	copies, err := h.Svc.List(c.Request().Context())
	if err != nil {
		h.Log.Error("copy list", "err", err)
		return httperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": copies})
}

// GET /v1/copies/available
func (h *Controller) ListAvailable(c echo.Context) error {
	copies, err := h.Svc.ListAvailable(c.Request().Context())
	if err != nil {
		h.Log.Error("copy list available", "err", err)
		return httperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": copies})
}

// GET /v1/copies/:id
func (h *Controller) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	cp, err := h.Svc.Get(c.Request().Context(), id)
	if err != nil {
		h.Log.Error("copy get", "err", err)
		return httperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, cp)
}

// GET /v1/copies/:id/availability
func (h *Controller) Availability(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	av, err := h.Svc.Availability(c.Request().Context(), id)
	if err != nil {
		h.Log.Error("copy availability", "err", err)
		return httperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, av)
}

// PATCH /v1/copies/:id
func (h *Controller) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	var req model.UpdateCopyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	cp, err := h.Svc.Update(c.Request().Context(), id, req)
	if err != nil {
		h.Log.Error("copy update", "err", err)
		return httperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, cp)
}

// PATCH /v1/copies/:id/status
func (h *Controller) UpdateStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	var req model.UpdateCopyStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	cp, err := h.Svc.UpdateStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		h.Log.Error("copy status", "err", err)
		return httperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, cp)
}

// DELETE /v1/copies/:id
func (h *Controller) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	if err := h.Svc.Remove(c.Request().Context(), id); err != nil {
		h.Log.Error("copy delete", "err", err)
		return httperr.JSON(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
