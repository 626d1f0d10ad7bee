package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/auth_backend/internal/apperr"
	"github.com/Skotchmaster/auth_backend/internal/latency"
	"github.com/Skotchmaster/auth_backend/internal/logging"
	authmw "github.com/Skotchmaster/auth_backend/internal/middleware/auth"
	"github.com/Skotchmaster/auth_backend/internal/service"
)

type LatencyProber interface {
	Probe(ctx context.Context) (*latency.Result, error)
}

type AuthHandler struct {
	Svc    *service.AuthService
	Prober LatencyProber
}

type signUpRequest struct {
	ID       string `json:"id" validate:"required,email|phone"`
	Password string `json:"password" validate:"required"`
}

type signInRequest struct {
	ID       string `json:"id" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type LatencyResponse struct {
	AverageLatency float64 `json:"average_latency"`
	MinLatency     float64 `json:"min_latency"`
	MaxLatency     float64 `json:"max_latency"`
	Attempts       int     `json:"attempts"`
	Failures       int     `json:"failures"`
}

func (h *AuthHandler) SignUp(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_signup")

	var req signUpRequest
	if err := bindJSON(c, &req); err != nil {
		l.Warn("signup_error", "status", apperr.KindOf(err).HTTPStatus(), "error", err)
		return err
	}

	tok, err := h.Svc.SignUp(ctx, req.ID, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, TokenResponse{Token: tok.Token})
}

func (h *AuthHandler) SignIn(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_signin")

	var req signInRequest
	if err := bindJSON(c, &req); err != nil {
		l.Warn("signin_error", "status", apperr.KindOf(err).HTTPStatus(), "error", err)
		return err
	}

	tok, err := h.Svc.SignIn(ctx, req.ID, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, TokenResponse{Token: tok.Token})
}

func (h *AuthHandler) Info(c echo.Context) error {
	creds := authmw.CredentialsFrom(c)
	if creds == nil {
		return apperr.Unauthorized(service.MsgInvalidToken)
	}
	return c.JSON(http.StatusOK, creds.User)
}

func (h *AuthHandler) LogOut(c echo.Context) error {
	creds := authmw.CredentialsFrom(c)
	all := c.QueryParam("all") == "true"

	if _, err := h.Svc.LogOut(c.Request().Context(), creds, all); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{})
}

func (h *AuthHandler) Latency(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "latency")

	res, err := h.Prober.Probe(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			l.Info("latency_canceled", "error", err)
			return apperr.Canceled(err)
		}
		l.Warn("latency_probe_failed", "status", http.StatusBadGateway, "error", err)
		return apperr.Wrap(apperr.KindUpstream, latency.ErrNoSamples.Error(), err)
	}

	l.Info("latency_probed", "address", res.Address, "avg_ms", res.Avg, "failures", res.Failures)
	return c.JSON(http.StatusOK, LatencyResponse{
		AverageLatency: res.Avg,
		MinLatency:     res.Min,
		MaxLatency:     res.Max,
		Attempts:       res.Attempts,
		Failures:       res.Failures,
	})
}

// bindJSON decodes a JSON body into dst and runs the struct validator on it.
func bindJSON(c echo.Context, dst any) error {
	ctype := c.Request().Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(ctype, echo.MIMEApplicationJSON) {
		return apperr.New(apperr.KindUnsupported, "content type must be application/json")
	}
	if err := c.Bind(dst); err != nil {
		return apperr.Wrap(apperr.KindValidation, "invalid body", err)
	}
	if err := c.Validate(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return apperr.Wrap(apperr.KindValidation, "invalid "+strings.ToLower(verrs[0].Field()), err)
		}
		return apperr.Wrap(apperr.KindValidation, "invalid body", err)
	}
	return nil
}
