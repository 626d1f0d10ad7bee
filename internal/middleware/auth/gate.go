package auth

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/auth_backend/internal/apperr"
	"github.com/Skotchmaster/auth_backend/internal/logging"
	"github.com/Skotchmaster/auth_backend/internal/models"
	"github.com/Skotchmaster/auth_backend/internal/service"
	"github.com/Skotchmaster/auth_backend/pkg/tokens"
)

const (
	ctxUser  = "user"
	ctxToken = "token"
)

// Authenticator resolves a raw token into credentials, refreshing its expiry.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*service.Credentials, error)
}

type Gate struct {
	Auth Authenticator
}

func NewGate(a Authenticator) *Gate {
	return &Gate{Auth: a}
}

// RequireToken rejects the request with 401 unless it carries a live token.
func (g *Gate) RequireToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		raw := tokens.FromRequest(c.Request())
		creds, err := g.Auth.Authenticate(ctx, raw)
		if err != nil {
			status := apperr.KindOf(err).HTTPStatus()
			l := logging.FromContext(ctx)
			if status >= http.StatusInternalServerError {
				l.Error("auth_failed", "status", status, "error", err)
			} else {
				l.Warn("auth_rejected", "status", status, "error", err)
			}
			return err
		}

		c.Set(ctxUser, creds.User)
		c.Set(ctxToken, creds.Token)
		return next(c)
	}
}

// CredentialsFrom returns what RequireToken stored on c, or nil outside a
// gated route.
func CredentialsFrom(c echo.Context) *service.Credentials {
	creds := &service.Credentials{}
	var ok bool
	if creds.User, ok = c.Get(ctxUser).(*models.User); !ok || creds.User == nil {
		return nil
	}
	if creds.Token, ok = c.Get(ctxToken).(*models.AccessToken); !ok || creds.Token == nil {
		return nil
	}
	return creds
}
