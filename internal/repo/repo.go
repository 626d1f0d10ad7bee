package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Skotchmaster/auth_backend/internal/models"
	"github.com/Skotchmaster/auth_backend/pkg/db"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
)

// TokenFilter selects tokens for deletion. Exactly one field must be set.
type TokenFilter struct {
	Token  string
	UserID string
}

func (f TokenFilter) validate() error {
	if (f.Token == "") == (f.UserID == "") {
		return fmt.Errorf("token filter needs exactly one of token or user id")
	}
	return nil
}

// Repository is the user and token store.
type Repository interface {
	FindUserByLogin(ctx context.Context, login string) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error

	CreateToken(ctx context.Context, t *models.AccessToken) error
	// FindActiveToken returns the token expiring after now together with its
	// owner. A token whose owner no longer exists is reported as ErrNotFound.
	FindActiveToken(ctx context.Context, token string, now time.Time) (*models.AccessToken, error)
	ExtendToken(ctx context.Context, id string, expires time.Time) error
	DeleteTokens(ctx context.Context, f TokenFilter) (int64, error)

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Open connects to the store named by dsn and prepares its schema.
func Open(ctx context.Context, dsn string) (Repository, error) {
	backend, err := db.Detect(dsn)
	if err != nil {
		return nil, err
	}

	switch backend {
	case db.BackendMongo:
		client, database, err := db.OpenMongo(ctx, dsn)
		if err != nil {
			return nil, err
		}
		r, err := NewMongoRepo(ctx, client, database)
		if err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		return r, nil
	default:
		gdb, err := db.OpenGorm(ctx, dsn)
		if err != nil {
			return nil, err
		}
		r, err := NewGormRepo(ctx, gdb)
		if err != nil {
			if sqlDB, derr := gdb.DB(); derr == nil {
				_ = sqlDB.Close()
			}
			return nil, err
		}
		return r, nil
	}
}
