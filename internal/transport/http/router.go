package httpserver

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/auth_backend/internal/handlers"
	authmw "github.com/Skotchmaster/auth_backend/internal/middleware/auth"
	"github.com/Skotchmaster/auth_backend/internal/validate"
	loggingmw "github.com/Skotchmaster/auth_backend/pkg/middleware/logging"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Logger      *slog.Logger
	AuthHandler *handlers.AuthHandler
	Gate        *authmw.Gate
	Store       Pinger
}

// New returns an echo instance with the middleware chain, error handler and
// routes installed.
func New(d *Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validate.Echo{}
	e.HTTPErrorHandler = handlers.ErrorHandler

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(
		middleware.Recover(),
		middleware.RequestID(),
		middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: []string{"*"},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		}),
	)
	if d.Logger != nil {
		e.Use(loggingmw.RequestLogger(d.Logger))
	}

	Register(e, d)
	return e
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Store != nil {
			if err := d.Store.Ping(c.Request().Context()); err != nil {
				return c.NoContent(http.StatusServiceUnavailable)
			}
		}
		return c.NoContent(http.StatusNoContent)
	})

	e.POST("/signup", d.AuthHandler.SignUp)
	e.POST("/signin", d.AuthHandler.SignIn)
	e.GET("/latency", d.AuthHandler.Latency)

	e.GET("/info", d.AuthHandler.Info, d.Gate.RequireToken)
	e.GET("/logout", d.AuthHandler.LogOut, d.Gate.RequireToken)
}
