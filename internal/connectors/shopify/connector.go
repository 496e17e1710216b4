package shopify

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"

	"stockpulse/internal/logger"
	"stockpulse/internal/models"
	"stockpulse/internal/proxy"
	shopifyapi "stockpulse/internal/services/shopify"
)

type ShopifyConnector struct {
	apiVersion string
	client     *http.Client
	logger     *logger.Logger
}

func New(apiVersion string, client *http.Client, logger *logger.Logger) *ShopifyConnector {
	return &ShopifyConnector{apiVersion: apiVersion, client: client, logger: logger}
}

func (sc *ShopifyConnector) Platform() models.Platform { return models.PlatformShopify }

// Fetch pulls every product and order in parallel. Either failing fails the
// snapshot.
func (sc *ShopifyConnector) Fetch(ctx context.Context, store *models.Store) (*models.Snapshot, error) {
	shop := proxy.NormalizeShopDomain(store.ShopURL)
	client := shopifyapi.NewClient(shop, store.APIToken, sc.apiVersion, sc.client, sc.logger)

	var products []shopifyapi.Product
	var orders []shopifyapi.Order
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = client.GetAllProducts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		orders, err = client.GetAllOrders(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to fetch shopify snapshot: %w", err)
	}

	sc.logger.Debug("Fetched %d products and %d orders from %s", len(products), len(orders), shop)

	tr := shopifyapi.NewTransformer()
	return &models.Snapshot{
		Products: tr.TransformProducts(products),
		Orders:   tr.TransformOrders(orders),
		Platform: models.PlatformShopify,
	}, nil
}
