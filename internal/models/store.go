package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Platform string

const (
	PlatformShopify Platform = "shopify"
	PlatformSquare  Platform = "square"
)

// Store is a merchant store connected by a user.
type Store struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	UserID    string    `json:"user_id" gorm:"index;not null"`
	Platform  Platform  `json:"platform" gorm:"not null;default:shopify"`
	ShopURL   string    `json:"shop_url" gorm:"not null"`
	APIToken  string    `json:"-" gorm:"not null"`
	IsActive  bool      `json:"is_active" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Store) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.Platform == "" {
		s.Platform = PlatformShopify
	}
	return nil
}

// OpenAICredential holds the user-supplied OpenAI key.
type OpenAICredential struct {
	UserID    string    `json:"user_id" gorm:"primaryKey;size:128"`
	APIKey    string    `json:"-" gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at"`
}
