package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"librarium/app/echoServer/httperr"
	"librarium/app/echoServer/jwtx"
	"librarium/model"
	authsvc "librarium/service/auth"
)

type Controller struct {
	Svc authsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// POST /v1/auth/register
func (h *Controller) Register(c echo.Context) error {
	var req model.RegisterReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	u, token, err := h.Svc.Register(c.Request().Context(), req)
	if err != nil {
		h.Log.Error("register", "err", err)
		return httperr.JSON(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"user":         u,
		"access_token": token,
	})
}

// POST /v1/auth/login
func (h *Controller) Login(c echo.Context) error {
	var req model.LoginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	u, token, err := h.Svc.Login(c.Request().Context(), req)
	if err != nil {
		h.Log.Warn("login failed", "email", req.Email, "err", err)
		return httperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user":         u,
		"access_token": token,
	})
}

// GET /v1/auth/profile
func (h *Controller) Profile(c echo.Context) error {
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	u, err := h.Svc.Profile(c.Request().Context(), uid)
	if err != nil {
		h.Log.Error("profile", "err", err)
		return httperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

// POST /v1/auth/2fa/enable
func (h *Controller) Enable2FA(c echo.Context) error {
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	secret, url, err := h.Svc.Enable2FA(c.Request().Context(), uid)
	if err != nil {
		h.Log.Error("2fa enable", "err", err)
		return httperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"secret":      secret,
		"otpauth_url": url,
	})
}

// POST /v1/auth/2fa/verify
func (h *Controller) Verify2FA(c echo.Context) error {
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	var req model.Verify2FAReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	if err := h.Svc.Verify2FA(c.Request().Context(), uid, req.Code); err != nil {
		h.Log.Warn("2fa verify failed", "err", err)
		return httperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "two-factor authentication enabled"})
}
