package models

import (
	"time"
)

type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Username   string    `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email      string    `gorm:"uniqueIndex;not null" json:"email"`
	Password   string    `gorm:"not null" json:"-"` // bcrypt hash
	FullName   string    `gorm:"size:100" json:"full_name"`
	VerifyCode string    `gorm:"size:20" json:"-"` // password reset code
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DisplayName falls back to the username when no full name is set.
// Value receiver so templates can call it on non-addressable values.
func (u User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}
