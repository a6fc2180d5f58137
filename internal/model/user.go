package model

import (
	"time"

	"gorm.io/gorm"
)

// RoleAdmin grants catalog mutation rights
const RoleAdmin = "admin"

// User represents the user model stored in the database
type User struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Email     string         `json:"email" gorm:"type:varchar(255);uniqueIndex"`
	Password  string         `json:"-" gorm:"type:varchar(255)"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// UserRole grants a role to a user
type UserRole struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"uniqueIndex:idx_user_role;not null"`
	Role      string    `json:"role" gorm:"type:varchar(50);uniqueIndex:idx_user_role;not null"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is a login of a user, referenced by the session_id claim of its token
type Session struct {
	ID        string     `json:"id" gorm:"type:varchar(36);primaryKey"`
	UserID    uint       `json:"user_id" gorm:"index;not null"`
	ExpiresAt time.Time  `json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Active reports whether the session can still be used at now
func (s Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
