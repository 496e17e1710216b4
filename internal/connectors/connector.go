// Package connectors fetches a store's catalog and orders from its commerce
// platform and converts them to the shared raw model.
package connectors

import (
	"context"
	"errors"
	"fmt"

	"stockpulse/internal/models"
)

var ErrUnsupportedPlatform = errors.New("unsupported platform")

// Connector loads a full snapshot from one platform.
type Connector interface {
	Platform() models.Platform
	Fetch(ctx context.Context, store *models.Store) (*models.Snapshot, error)
}

// Registry selects a connector by store platform.
type Registry map[models.Platform]Connector

func NewRegistry(connectors ...Connector) Registry {
	r := make(Registry, len(connectors))
	for _, c := range connectors {
		r[c.Platform()] = c
	}
	return r
}

// For returns the connector for p. Stores saved without a platform are Shopify.
func (r Registry) For(p models.Platform) (Connector, error) {
	if p == "" {
		p = models.PlatformShopify
	}
	c, ok := r[p]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, p)
	}
	return c, nil
}
