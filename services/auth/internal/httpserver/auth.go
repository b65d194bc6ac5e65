package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/worknomads/pkg/httpx"
	"github.com/Skotchmaster/worknomads/pkg/logging"
	"github.com/Skotchmaster/worknomads/services/auth/internal/service"
	"github.com/Skotchmaster/worknomads/services/auth/internal/transport"
)

const (
	msgRegistered         = "Registration successful"
	msgInvalidCredentials = "No active account found with the given credentials"
	msgTokenNotValid      = "Token is invalid or expired"
	codeTokenNotValid     = "token_not_valid"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		if fields := httpx.FieldErrors(err); fields != nil {
			l.Warn("register_error", "status", 400, "reason", "validation", "error", err)
			return httpx.Fields(fields)
		}
		return err
	}

	if _, err := h.Svc.Register(ctx, req); err != nil {
		return mapError(err)
	}

	return c.JSON(http.StatusCreated, transport.DetailResponse{Detail: msgRegistered})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	pair, err := h.Svc.Login(ctx, req.Identifier(), req.Password)
	if err != nil {
		return mapError(err)
	}

	return c.JSON(http.StatusOK, transport.TokenPairResponse{
		Access:  pair.Access,
		Refresh: pair.Refresh,
	})
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	var req transport.RefreshRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("refresh_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	access, _, err := h.Svc.Refresh(ctx, req.Refresh)
	if err != nil {
		return mapError(err)
	}

	return c.JSON(http.StatusOK, transport.AccessResponse{Access: access})
}

func mapError(err error) error {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return httpx.Fields(verr.Fields)
	case errors.Is(err, service.ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, msgInvalidCredentials)
	case errors.Is(err, service.ErrInvalidRefreshToken):
		return httpx.Detail(http.StatusUnauthorized, msgTokenNotValid, codeTokenNotValid)
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, httpx.MsgServerError).SetInternal(err)
	}
}
