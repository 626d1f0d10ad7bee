package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/auth_backend/internal/models"
)

type GormRepo struct {
	DB *gorm.DB
}

func NewGormRepo(ctx context.Context, db *gorm.DB) (*GormRepo, error) {
	if err := db.WithContext(ctx).AutoMigrate(&models.User{}, &models.AccessToken{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &GormRepo{DB: db}, nil
}

func (r *GormRepo) FindUserByLogin(ctx context.Context, login string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("login = ?", login).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if err := r.DB.WithContext(ctx).Create(u).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (r *GormRepo) CreateToken(ctx context.Context, t *models.AccessToken) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if err := r.DB.WithContext(ctx).Omit("User").Create(t).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (r *GormRepo) FindActiveToken(ctx context.Context, token string, now time.Time) (*models.AccessToken, error) {
	var t models.AccessToken
	err := r.DB.WithContext(ctx).
		Preload("User").
		Where("token = ? AND expires > ?", token, now.UTC()).
		First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if t.User == nil || t.User.ID == "" {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (r *GormRepo) ExtendToken(ctx context.Context, id string, expires time.Time) error {
	res := r.DB.WithContext(ctx).
		Model(&models.AccessToken{}).
		Where("id = ?", id).
		Update("expires", expires.UTC())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepo) DeleteTokens(ctx context.Context, f TokenFilter) (int64, error) {
	if err := f.validate(); err != nil {
		return 0, err
	}
	q := r.DB.WithContext(ctx)
	if f.Token != "" {
		q = q.Where("token = ?", f.Token)
	} else {
		q = q.Where("user_id = ?", f.UserID)
	}
	res := q.Delete(&models.AccessToken{})
	return res.RowsAffected, res.Error
}

func (r *GormRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *GormRepo) Close(context.Context) error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value") {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}
