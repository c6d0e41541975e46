package loan

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"librarium/app/echoServer/httperr"
	"librarium/app/echoServer/jwtx"
	"librarium/model"
	loanrepo "librarium/repository/loan"
	loansvc "librarium/service/loan"
)

type Controller struct {
	Svc loansvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// POST /v1/loans
func (h *Controller) Create(c echo.Context) error {
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	var req model.CreateLoanReq
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

	l, err := h.Svc.Create(c.Request().Context(), uid, copyID, req.Notes)
	if err != nil {
		h.Log.Error("loan create", "err", err)
		return httperr.JSON(c, err)
	}
	return c.JSON(http.StatusCreated, l)
}

// GET /v1/loans?status=
func (h *Controller) List(c echo.Context) error {
	f := loanrepo.ListFilter{Status: model.LoanStatus(c.QueryParam("status"))}
	loans, err := h.Svc.List(c.Request().Context(), f)
	if err != nil {
		h.Log.Error("loan list", "err", err)
		return httperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": loans})
}

// GET /v1/loans/my
func (h *Controller) My(c echo.Context) error {
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	loans, err := h.Svc.ListMine(c.Request().Context(), uid)
	if err != nil {
		h.Log.Error("loan my", "err", err)
		return httperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": loans})
}

// GET /v1/loans/stats
func (h *Controller) Stats(c echo.Context) error {
	stats, err := h.Svc.Stats(c.Request().Context())
	if err != nil {
		h.Log.Error("loan stats", "err", err)
		return httperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

// GET /v1/loans/:id
func (h *Controller) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	l, err := h.Svc.Get(c.Request().Context(), id)
	if err != nil {
		h.Log.Error("loan get", "err", err)
		return httperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

// PATCH /v1/loans/:id/return
func (h *Controller) Return(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	l, err := h.Svc.Return(c.Request().Context(), id)
	if err != nil {
		h.Log.Error("loan return", "err", err)
		return httperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

// POST /v1/loans/overdue/sweep
func (h *Controller) OverdueSweep(c echo.Context) error {
	n, err := h.Svc.MarkOverdue(c.Request().Context())
	if err != nil {
		h.Log.Error("overdue sweep", "err", err)
		return httperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"marked_overdue": n})
}

// DELETE /v1/loans/:id
func (h *Controller) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	if err := h.Svc.Remove(c.Request().Context(), id); err != nil {
		h.Log.Error("loan delete", "err", err)
		return httperr.JSON(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
