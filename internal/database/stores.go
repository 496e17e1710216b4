package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"stockpulse/internal/models"
)

var (
	ErrStoreNotFound      = errors.New("store not found")
	ErrCredentialNotFound = errors.New("credential not found")
)

// StoreRepository persists the stores each user has connected. At most one
// store per user is active.
type StoreRepository struct {
	db *gorm.DB
}

func NewStoreRepository(db *gorm.DB) *StoreRepository {
	return &StoreRepository{db: db}
}

func (r *StoreRepository) List(ctx context.Context, userID string) ([]models.Store, error) {
	var stores []models.Store
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&stores).Error; err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}
	return stores, nil
}

func (r *StoreRepository) Get(ctx context.Context, userID, storeID string) (*models.Store, error) {
	var store models.Store
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", storeID, userID).
		First(&store).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("store %s: %w", storeID, ErrStoreNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get store: %w", err)
	}
	return &store, nil
}

// Active returns the user's active store.
func (r *StoreRepository) Active(ctx context.Context, userID string) (*models.Store, error) {
	var store models.Store
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at DESC").
		First(&store).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("active store for %s: %w", userID, ErrStoreNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active store: %w", err)
	}
	return &store, nil
}

// Create registers a store. The user's first store, or one created with
// IsActive set, becomes the active store.
func (r *StoreRepository) Create(ctx context.Context, store *models.Store) error {
	store.ShopURL = strings.TrimSpace(store.ShopURL)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Store{}).Where("user_id = ?", store.UserID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count stores: %w", err)
		}
		if count == 0 {
			store.IsActive = true
		}
		if store.IsActive {
			if err := deactivateAll(tx, store.UserID); err != nil {
				return err
			}
		}
		if err := tx.Create(store).Error; err != nil {
			return fmt.Errorf("failed to create store: %w", err)
		}
		return nil
	})
}

// Activate marks storeID active and every other store of the user inactive.
func (r *StoreRepository) Activate(ctx context.Context, userID, storeID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var store models.Store
		err := tx.Where("id = ? AND user_id = ?", storeID, userID).First(&store).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("store %s: %w", storeID, ErrStoreNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to get store: %w", err)
		}
		if err := deactivateAll(tx, userID); err != nil {
			return err
		}
		if err := tx.Model(&store).Update("is_active", true).Error; err != nil {
			return fmt.Errorf("failed to activate store: %w", err)
		}
		return nil
	})
}

func (r *StoreRepository) Delete(ctx context.Context, userID, storeID string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", storeID, userID).
		Delete(&models.Store{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete store: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("store %s: %w", storeID, ErrStoreNotFound)
	}
	return nil
}

func deactivateAll(tx *gorm.DB, userID string) error {
	if err := tx.Model(&models.Store{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Update("is_active", false).Error; err != nil {
		return fmt.Errorf("failed to deactivate stores: %w", err)
	}
	return nil
}

// CredentialRepository stores per-user OpenAI keys.
type CredentialRepository struct {
	db *gorm.DB
}

func NewCredentialRepository(db *gorm.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

func (r *CredentialRepository) SaveOpenAIKey(ctx context.Context, userID, apiKey string) error {
	cred := models.OpenAICredential{UserID: userID, APIKey: strings.TrimSpace(apiKey)}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"api_key", "updated_at"}),
	}).Create(&cred).Error
	if err != nil {
		return fmt.Errorf("failed to save openai key: %w", err)
	}
	return nil
}

func (r *CredentialRepository) OpenAIKey(ctx context.Context, userID string) (string, error) {
	var cred models.OpenAICredential
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&cred).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("openai key for %s: %w", userID, ErrCredentialNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get openai key: %w", err)
	}
	return cred.APIKey, nil
}

// ByShop returns every store registered for a shop across users.
func (r *StoreRepository) ByShop(ctx context.Context, platform models.Platform, shopURL string) ([]models.Store, error) {
	var stores []models.Store
	if err := r.db.WithContext(ctx).
		Where("platform = ? AND shop_url = ?", platform, strings.ToLower(strings.TrimSpace(shopURL))).
		Find(&stores).Error; err != nil {
		return nil, fmt.Errorf("failed to find stores for shop: %w", err)
	}
	return stores, nil
}
