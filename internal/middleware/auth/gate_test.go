package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/auth_backend/internal/apperr"
	"github.com/Skotchmaster/auth_backend/internal/logging"
	"github.com/Skotchmaster/auth_backend/internal/models"
	"github.com/Skotchmaster/auth_backend/internal/service"
)

type stubAuth struct {
	valid string
	seen  []string
	err   error
}

func (s *stubAuth) Authenticate(_ context.Context, token string) (*service.Credentials, error) {
	s.seen = append(s.seen, token)
	if s.err != nil {
		return nil, s.err
	}
	if token == "" || token != s.valid {
		return nil, apperr.Unauthorized(service.MsgInvalidToken)
	}
	return &service.Credentials{
		User:  &models.User{ID: "u1", Login: "a@b.com", LoginType: models.LoginTypeEmail},
		Token: &models.AccessToken{ID: "t1", Token: token, UserID: "u1"},
	}, nil
}

func serve(t *testing.T, g *Gate, req *http.Request) (*httptest.ResponseRecorder, *service.Credentials, error) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got *service.Credentials
	err := g.RequireToken(func(c echo.Context) error {
		got = CredentialsFrom(c)
		return c.NoContent(http.StatusOK)
	})(c)
	return rec, got, err
}

func TestRequireToken_Header(t *testing.T) {
	stub := &stubAuth{valid: "good"}
	req := httptest.NewRequest(http.MethodGet, "/info?access_token=ignored", nil)
	req.Header.Set("Authorization", "Bearer good")

	rec, creds, err := serve(t, NewGate(stub), req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, creds)
	assert.Equal(t, "a@b.com", creds.User.Login)
	assert.Equal(t, "good", creds.Token.Token)
	assert.Equal(t, []string{"good"}, stub.seen)
}

func TestRequireToken_QueryFallback(t *testing.T) {
	stub := &stubAuth{valid: "good"}
	req := httptest.NewRequest(http.MethodGet, "/info?access_token=good", nil)

	_, creds, err := serve(t, NewGate(stub), req)
	require.NoError(t, err)
	require.NotNil(t, creds)
}

func TestRequireToken_Rejected(t *testing.T) {
	tests := []struct {
		name   string
		header string
		target string
	}{
		{name: "no token", target: "/info"},
		{name: "unknown token", header: "Bearer bad", target: "/info"},
		{name: "wrong scheme", header: "Basic good", target: "/info?access_token=good"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			_, creds, err := serve(t, NewGate(&stubAuth{valid: "good"}), req)
			require.Error(t, err)
			assert.Nil(t, creds)
			assert.Equal(t, http.StatusUnauthorized, apperr.KindOf(err).HTTPStatus())
		})
	}
}

func TestCredentialsFrom_Ungated(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.Nil(t, CredentialsFrom(c))
}

func TestRequireToken_LogsActualStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status float64
		level  string
	}{
		{name: "unknown token", err: apperr.Unauthorized(service.MsgInvalidToken), status: 401, level: "WARN"},
		{name: "store failure", err: apperr.Internal(errors.New("connection refused")), status: 500, level: "ERROR"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := slog.New(slog.NewJSONHandler(&buf, nil))

			req := httptest.NewRequest(http.MethodGet, "/info", nil)
			req.Header.Set("Authorization", "Bearer whatever")
			req = req.WithContext(logging.IntoContext(req.Context(), l))

			_, _, err := serve(t, NewGate(&stubAuth{err: tt.err}), req)
			require.Error(t, err)

			var line map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &line), buf.String())
			assert.Equal(t, tt.status, line["status"])
			assert.Equal(t, tt.level, line["level"])
		})
	}
}
