package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"stockpulse/internal/logger"
	"stockpulse/internal/models"
)

var ErrInvalidEvent = errors.New("invalid event")

// refreshTopics are the webhook topics that change products, orders or stock.
var refreshTopics = map[string]bool{
	"products/create":         true,
	"products/update":         true,
	"products/delete":         true,
	"orders/create":           true,
	"orders/updated":          true,
	"orders/cancelled":        true,
	"orders/paid":             true,
	"refunds/create":          true,
	"inventory_levels/update": true,
	"inventory_items/update":  true,
}

type Validator struct {
	logger *logger.Logger
}

func New(logger *logger.Logger) *Validator {
	return &Validator{logger: logger}
}

// ValidateEvent checks the envelope of a webhook event.
func (v *Validator) ValidateEvent(event models.InventoryEvent) error {
	if strings.TrimSpace(event.Topic) == "" {
		return fmt.Errorf("%w: missing topic", ErrInvalidEvent)
	}
	if strings.TrimSpace(event.ShopDomain) == "" {
		return fmt.Errorf("%w: missing shop domain", ErrInvalidEvent)
	}
	if len(event.Payload) > 0 && !json.Valid(event.Payload) {
		return fmt.Errorf("%w: payload is not JSON", ErrInvalidEvent)
	}
	return nil
}

// AffectsSnapshot reports whether the topic invalidates cached snapshots.
func (v *Validator) AffectsSnapshot(topic string) bool {
	ok := refreshTopics[strings.ToLower(strings.TrimSpace(topic))]
	if !ok {
		v.logger.Debug("Ignoring webhook topic %s", topic)
	}
	return ok
}
