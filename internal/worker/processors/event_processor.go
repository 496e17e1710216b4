package processors

import (
	"context"
	"errors"
	"fmt"

	"stockpulse/internal/logger"
	"stockpulse/internal/models"
	"stockpulse/internal/proxy"
	"stockpulse/internal/worker/processors/validation"
)

// ShopIndex finds the users that registered a shop.
type ShopIndex interface {
	ByShop(ctx context.Context, platform models.Platform, shopURL string) ([]models.Store, error)
}

// SnapshotRefresher drops or rebuilds a user's cached snapshot.
type SnapshotRefresher interface {
	Invalidate(ctx context.Context, userID string) error
	Refresh(ctx context.Context, userID string) (*models.Snapshot, error)
}

type EventProcessor struct {
	stores    ShopIndex
	snapshots SnapshotRefresher
	validator *validation.Validator
	logger    *logger.Logger
	prefetch  bool
}

// NewEventProcessor builds a processor. With prefetch set, snapshots of users
// whose active store changed are rebuilt immediately instead of on next read.
func NewEventProcessor(stores ShopIndex, snapshots SnapshotRefresher, prefetch bool, logger *logger.Logger) *EventProcessor {
	return &EventProcessor{
		stores:    stores,
		snapshots: snapshots,
		validator: validation.New(logger),
		logger:    logger,
		prefetch:  prefetch,
	}
}

func (ep *EventProcessor) Process(ctx context.Context, event models.InventoryEvent) error {
	if err := ep.validator.ValidateEvent(event); err != nil {
		return err
	}
	if !ep.validator.AffectsSnapshot(event.Topic) {
		return nil
	}

	shop := proxy.NormalizeShopDomain(event.ShopDomain)
	stores, err := ep.stores.ByShop(ctx, models.PlatformShopify, shop)
	if err != nil {
		return err
	}
	if len(stores) == 0 {
		ep.logger.Debug("No stores registered for %s", shop)
		return nil
	}

	var errs []error
	for _, s := range stores {
		if err := ep.snapshots.Invalidate(ctx, s.UserID); err != nil {
			errs = append(errs, fmt.Errorf("invalidate %s: %w", s.UserID, err))
			continue
		}
		if ep.prefetch && s.IsActive {
			if _, err := ep.snapshots.Refresh(ctx, s.UserID); err != nil {
				errs = append(errs, fmt.Errorf("refresh %s: %w", s.UserID, err))
			}
		}
	}

	ep.logger.Info("Processed %s for %s: %d stores", event.Topic, shop, len(stores))
	return errors.Join(errs...)
}
