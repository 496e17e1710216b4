// Package proxy relays dashboard requests to the Shopify Admin REST API using
// the caller's stored credentials.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"stockpulse/internal/database"
	"stockpulse/internal/models"
)

const (
	HeaderUserID      = "X-User-Id"
	HeaderStoreID     = "X-Store-Id"
	HeaderAccessToken = "X-Shopify-Access-Token"
	HeaderShopDomain  = "X-Shop-Domain"
)

var (
	ErrUnauthenticated = errors.New("user not authenticated")
	ErrNoActiveStore   = errors.New("no active store")
)

// StoreLookup is the part of the store registry credential resolution needs.
type StoreLookup interface {
	Get(ctx context.Context, userID, storeID string) (*models.Store, error)
	Active(ctx context.Context, userID string) (*models.Store, error)
}

type CredentialSource string

const (
	SourceStoreID     CredentialSource = "store_id"
	SourceHeaders     CredentialSource = "headers"
	SourceActiveStore CredentialSource = "active_store"
)

// Credentials identify the upstream shop and the token used against it.
type Credentials struct {
	ShopDomain  string
	AccessToken string
	StoreID     string
	Source      CredentialSource
}

// ResolveCredentials picks the shop credentials for a request. An explicit
// store id wins, then explicit token and domain headers, then the user's
// active store. A store id that does not resolve falls through.
func ResolveCredentials(ctx context.Context, stores StoreLookup, header http.Header) (Credentials, error) {
	userID := strings.TrimSpace(header.Get(HeaderUserID))
	if userID == "" {
		return Credentials{}, ErrUnauthenticated
	}

	if storeID := strings.TrimSpace(header.Get(HeaderStoreID)); storeID != "" {
		store, err := stores.Get(ctx, userID, storeID)
		switch {
		case err == nil && store.APIToken != "":
			return Credentials{
				ShopDomain:  NormalizeShopDomain(store.ShopURL),
				AccessToken: store.APIToken,
				StoreID:     store.ID,
				Source:      SourceStoreID,
			}, nil
		case err != nil && !errors.Is(err, database.ErrStoreNotFound):
			return Credentials{}, err
		}
	}

	token := strings.TrimSpace(header.Get(HeaderAccessToken))
	domain := strings.TrimSpace(header.Get(HeaderShopDomain))
	if token != "" && domain != "" {
		return Credentials{
			ShopDomain:  NormalizeShopDomain(domain),
			AccessToken: token,
			Source:      SourceHeaders,
		}, nil
	}

	store, err := stores.Active(ctx, userID)
	if errors.Is(err, database.ErrStoreNotFound) {
		return Credentials{}, ErrNoActiveStore
	}
	if err != nil {
		return Credentials{}, err
	}
	if store.APIToken == "" || store.ShopURL == "" {
		return Credentials{}, fmt.Errorf("store %s has no credentials: %w", store.ID, ErrNoActiveStore)
	}
	return Credentials{
		ShopDomain:  NormalizeShopDomain(store.ShopURL),
		AccessToken: store.APIToken,
		StoreID:     store.ID,
		Source:      SourceActiveStore,
	}, nil
}

// NormalizeShopDomain strips scheme and trailing path from a shop URL and
// expands a bare shop handle to its myshopify.com host.
func NormalizeShopDomain(raw string) string {
	d := strings.TrimSpace(raw)
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	if i := strings.Index(d, "/"); i >= 0 {
		d = d[:i]
	}
	if d != "" && !strings.Contains(d, ".") && !strings.Contains(d, ":") {
		d += ".myshopify.com"
	}
	return strings.ToLower(d)
}
