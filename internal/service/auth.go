package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Skotchmaster/auth_backend/internal/apperr"
	"github.com/Skotchmaster/auth_backend/internal/hash"
	"github.com/Skotchmaster/auth_backend/internal/logging"
	"github.com/Skotchmaster/auth_backend/internal/models"
	"github.com/Skotchmaster/auth_backend/internal/mykafka"
	"github.com/Skotchmaster/auth_backend/internal/repo"
	"github.com/Skotchmaster/auth_backend/internal/validate"
	"github.com/Skotchmaster/auth_backend/pkg/tokens"
)

const (
	MsgUserExists   = "User already exists"
	MsgUserNotFound = "User not found"
	MsgInvalidToken = "invalid or expired token"
	MsgMissingToken = "missing access token"
)

type AuthService struct {
	Repo     repo.Repository
	Hasher   hash.PasswordHasher
	Events   mykafka.Publisher
	TokenTTL time.Duration

	Now      func() time.Time
	NewToken func() (string, error)
}

func NewAuthService(r repo.Repository, hasher hash.PasswordHasher, events mykafka.Publisher, ttl time.Duration) *AuthService {
	if events == nil {
		events = mykafka.NopPublisher{}
	}
	return &AuthService{
		Repo:     r,
		Hasher:   hasher,
		Events:   events,
		TokenTTL: ttl,
		Now:      func() time.Time { return time.Now().UTC() },
		NewToken: tokens.New,
	}
}

// Credentials is what the auth gate attaches to an authenticated request.
type Credentials struct {
	User  *models.User
	Token *models.AccessToken
}

func ClassifyLogin(login string) models.LoginType {
	if validate.IsEmail(login) {
		return models.LoginTypeEmail
	}
	return models.LoginTypePhone
}

func (s *AuthService) SignUp(ctx context.Context, login, password string) (*models.AccessToken, error) {
	l := logging.FromContext(ctx).With("svc", "auth.signup")

	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, apperr.Validation("id and password are required")
	}

	_, err := s.Repo.FindUserByLogin(ctx, login)
	switch {
	case err == nil:
		l.Warn("signup_rejected", "status", 400, "reason", "user already exists")
		return nil, apperr.Conflict(MsgUserExists)
	case !errors.Is(err, repo.ErrNotFound):
		l.Error("signup_error", "status", 500, "reason", "user lookup failed", "error", err)
		return nil, apperr.Internal(err)
	}

	pwHash, err := s.Hasher.Hash(password)
	if err != nil {
		l.Error("signup_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, apperr.Internal(err)
	}

	user := &models.User{
		Login:     login,
		Password:  pwHash,
		LoginType: ClassifyLogin(login),
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			l.Warn("signup_rejected", "status", 400, "reason", "unique index violation")
			return nil, apperr.Conflict(MsgUserExists)
		}
		l.Error("signup_error", "status", 500, "reason", "cannot create user", "error", err)
		return nil, apperr.Internal(err)
	}

	tok, err := s.issue(ctx, user)
	if err != nil {
		l.Error("signup_error", "status", 500, "reason", "cannot issue token", "error", err)
		return nil, err
	}

	s.publish(ctx, mykafka.EventUserSignedUp, user, false)
	l.Info("signup_successful", "user_id", user.ID, "login_type", user.LoginType)
	return tok, nil
}

func (s *AuthService) SignIn(ctx context.Context, login, password string) (*models.AccessToken, error) {
	l := logging.FromContext(ctx).With("svc", "auth.signin")

	if login == "" || password == "" {
		return nil, apperr.Validation("id and password are required")
	}

	user, err := s.Repo.FindUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("signin_failed", "status", 401, "reason", "unknown login")
			return nil, apperr.Unauthorized(MsgUserNotFound)
		}
		l.Error("signin_error", "status", 500, "error", err)
		return nil, apperr.Internal(err)
	}
	if !s.Hasher.Check(user.Password, password) {
		l.Warn("signin_failed", "status", 401, "reason", "password mismatch")
		return nil, apperr.Unauthorized(MsgUserNotFound)
	}

	tok, err := s.issue(ctx, user)
	if err != nil {
		l.Error("signin_error", "status", 500, "reason", "cannot issue token", "error", err)
		return nil, err
	}

	s.publish(ctx, mykafka.EventUserSignedIn, user, false)
	l.Info("signin_successful", "user_id", user.ID)
	return tok, nil
}

// Authenticate resolves a bearer token and slides its expiry to now+TTL.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*Credentials, error) {
	if token == "" {
		return nil, apperr.Unauthorized(MsgMissingToken)
	}

	now := s.Now()
	found, err := s.Repo.FindActiveToken(ctx, token, now)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, apperr.Unauthorized(MsgInvalidToken)
		}
		return nil, apperr.Internal(err)
	}
	if found.Expired(now) {
		return nil, apperr.Unauthorized(MsgInvalidToken)
	}

	expires := now.Add(s.TokenTTL)
	if err := s.Repo.ExtendToken(ctx, found.ID, expires); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			// logged out between lookup and refresh
			return nil, apperr.Unauthorized(MsgInvalidToken)
		}
		return nil, apperr.Internal(err)
	}
	found.Expires = expires

	return &Credentials{User: found.User, Token: found}, nil
}

// LogOut deletes the presented token, or every token of its owner when all
// is set, and returns how many were removed.
func (s *AuthService) LogOut(ctx context.Context, creds *Credentials, all bool) (int64, error) {
	l := logging.FromContext(ctx).With("svc", "auth.logout")

	if creds == nil || creds.User == nil || creds.Token == nil {
		return 0, apperr.Unauthorized(MsgInvalidToken)
	}

	filter := repo.TokenFilter{Token: creds.Token.Token}
	if all {
		filter = repo.TokenFilter{UserID: creds.User.ID}
	}
	n, err := s.Repo.DeleteTokens(ctx, filter)
	if err != nil {
		l.Error("logout_failed", "status", 500, "reason", "cannot delete tokens", "error", err)
		return 0, apperr.Internal(err)
	}

	s.publish(ctx, mykafka.EventUserLoggedOut, creds.User, all)
	l.Info("successful_logout", "user_id", creds.User.ID, "all", all, "deleted", n)
	return n, nil
}

func (s *AuthService) issue(ctx context.Context, user *models.User) (*models.AccessToken, error) {
	value, err := s.NewToken()
	if err != nil {
		return nil, apperr.Internal(err)
	}
	tok := &models.AccessToken{
		Token:   value,
		Expires: s.Now().Add(s.TokenTTL),
		UserID:  user.ID,
	}
	if err := s.Repo.CreateToken(ctx, tok); err != nil {
		return nil, apperr.Internal(err)
	}
	tok.User = user
	return tok, nil
}

func (s *AuthService) publish(ctx context.Context, typ string, user *models.User, all bool) {
	event := mykafka.Event{
		Type:   typ,
		UserID: user.ID,
		Login:  user.Login,
		All:    all,
		At:     s.Now(),
	}
	if err := s.Events.PublishEvent(ctx, user.ID, event); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "type", typ, "error", err)
	}
}
