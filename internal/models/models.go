package models

import "time"

type LoginType string

const (
	LoginTypeEmail LoginType = "email"
	LoginTypePhone LoginType = "phone"
)

type User struct {
	ID        string    `gorm:"primaryKey;size:36"           json:"-"`
	Login     string    `gorm:"uniqueIndex;not null"         json:"login"`
	Password  string    `gorm:"not null"                     json:"-"`
	LoginType LoginType `gorm:"column:login_type;not null"   json:"login_type"`
}

type AccessToken struct {
	ID      string    `gorm:"primaryKey;size:36"     json:"-"`
	Token   string    `gorm:"uniqueIndex;not null"   json:"token"`
	Expires time.Time `gorm:"index;not null"         json:"expires"`
	UserID  string    `gorm:"index;not null;size:36" json:"-"`
	User    *User     `gorm:"foreignKey:UserID"       json:"-"`
}

// Expired reports whether the token is no longer usable at now.
func (t *AccessToken) Expired(now time.Time) bool {
	return !t.Expires.After(now)
}
