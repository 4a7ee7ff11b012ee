package models

import (
	"time"

	"gorm.io/gorm"
)

// User roles. OAuth-registered accounts default to RoleCustomer until an
// operator promotes them.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User represents a member of the community. Local accounts carry a bcrypt
// hash; OAuth accounts have an empty hash and a provider/provider_id pair.
type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	LoginID      string `gorm:"size:30" json:"login_id,omitempty"`
	PasswordHash string `gorm:"size:255" json:"-"`
	Name         string `gorm:"size:20" json:"name"`
	Nickname     string `gorm:"size:100" json:"nickname"`
	Age          *int   `json:"age,omitempty"`
	Gender       string `gorm:"size:10" json:"gender,omitempty"`
	Phone        string `gorm:"size:20" json:"phone,omitempty"`
	Provider     string `gorm:"size:20;column:oauth" json:"oauth,omitempty"`
	ProviderID   string `gorm:"size:255;index" json:"-"`
	Role         string `gorm:"size:20;default:'customer'" json:"role"`
	Email        string `gorm:"size:255;uniqueIndex;not null" json:"email"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsOAuth reports whether the account was created through a social provider
// and therefore has no usable local password.
func (u *User) IsOAuth() bool {
	return u.Provider != ""
}

// IsAdmin reports whether the account carries the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	if u.Role == "" {
		u.Role = RoleCustomer
	}
	return nil
}
