package catalog

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"librarium/app/echoServer/httperr"
	catalogsvc "librarium/service/catalog"
)

type Controller struct {
	Svc catalogsvc.Service
	Log *slog.Logger
}

// GET /v1/catalog/search?q=
func (h *Controller) Search(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "query parameter q is required"})
	}

	out, err := h.Svc.Search(c.Request().Context(), q)
	if err != nil {
		h.Log.Error("catalog search", "err", err)
		return httperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// GET /v1/catalog/isbn/:isbn
func (h *Controller) ByISBN(c echo.Context) error {
	v, err := h.Svc.ByISBN(c.Request().Context(), c.Param("isbn"))
	if err != nil {
		h.Log.Error("catalog isbn", "err", err)
		return httperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// POST /v1/catalog/import/:isbn
func (h *Controller) Import(c echo.Context) error {
	b, err := h.Svc.Import(c.Request().Context(), c.Param("isbn"))
	if err != nil {
		h.Log.Error("catalog import", "err", err)
		return httperr.JSON(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}
