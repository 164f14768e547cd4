package models

import (
	"time"

	"gorm.io/gorm"
)

// User is an account created through social login
type User struct {
	ID             uint           `gorm:"primarykey" json:"id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
	Email          string         `gorm:"index" json:"email"`
	Name           string         `json:"name"`
	Username       string         `json:"username"`
	AvatarURL      string         `json:"avatar"`
	Provider       string         `gorm:"not null;uniqueIndex:idx_provider_user" json:"provider"` // "github"
	ProviderUserID string         `gorm:"not null;uniqueIndex:idx_provider_user" json:"provider_id"`
}
