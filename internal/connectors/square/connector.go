package square

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"

	"stockpulse/internal/logger"
	"stockpulse/internal/models"
	squareapi "stockpulse/internal/services/square"
)

type SquareConnector struct {
	baseURL string
	client  *http.Client
	logger  *logger.Logger
}

func New(baseURL string, client *http.Client, logger *logger.Logger) *SquareConnector {
	return &SquareConnector{baseURL: baseURL, client: client, logger: logger}
}

func (sc *SquareConnector) Platform() models.Platform { return models.PlatformSquare }

// Fetch loads the catalog with its stock counts alongside completed orders.
func (sc *SquareConnector) Fetch(ctx context.Context, store *models.Store) (*models.Snapshot, error) {
	client := squareapi.NewClient(sc.baseURL, store.APIToken, sc.client, sc.logger)

	var objects []squareapi.CatalogObject
	var counts map[string]int
	var orders []squareapi.Order
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if objects, err = client.ListCatalogItems(gctx); err != nil {
			return err
		}
		counts, err = client.InventoryCounts(gctx, squareapi.VariationIDs(objects))
		return err
	})
	g.Go(func() error {
		var err error
		orders, err = client.SearchOrders(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to fetch square snapshot: %w", err)
	}

	sc.logger.Debug("Fetched %d catalog objects and %d orders from square store %s", len(objects), len(orders), store.ID)

	tr := squareapi.NewTransformer()
	return &models.Snapshot{
		Products: tr.TransformCatalog(objects, counts),
		Orders:   tr.TransformOrders(orders, objects),
		Platform: models.PlatformSquare,
	}, nil
}
