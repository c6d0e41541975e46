package book

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"librarium/app/echoServer/httperr"
	"librarium/model"
	booksvc "librarium/service/book"
)

type Controller struct {
	Svc booksvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// POST /v1/books
func (h *Controller) Create(c echo.Context) error {
	var req model.CreateBookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	b, err := h.Svc.Create(c.Request().Context(), req)
	if err != nil {
		h.Log.Error("book create", "err", err)
		return httperr.JSON(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// GET /v1/books?q=
func (h *Controller) List(c echo.Context) error {
	books, err := h.Svc.List(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		h.Log.Error("book list", "err", err)
		return httperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": books})
}

// GET /v1/books/:id
func (h *Controller) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	b, err := h.Svc.Get(c.Request().Context(), id)
	if err != nil {
		h.Log.Error("book get", "err", err)
		return httperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// PATCH /v1/books/:id
func (h *Controller) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	var req model.UpdateBookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	b, err := h.Svc.Update(c.Request().Context(), id, req)
	if err != nil {
		h.Log.Error("book update", "err", err)
		return httperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// DELETE /v1/books/:id
func (h *Controller) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		h.Log.Error("book delete", "err", err)
		return httperr.JSON(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
