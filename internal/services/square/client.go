// Package square reads catalog, inventory and orders from the Square API.
package square

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stockpulse/internal/logger"
)

const (
	apiVersion = "2024-01-18"
	// batch-retrieve accepts at most this many catalog ids per call.
	countsBatch = 500
	maxPages    = 200
)

type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
	logger      *logger.Logger
}

const DefaultBaseURL = "https://connect.squareup.com"

func NewClient(baseURL, accessToken string, httpClient *http.Client, logger *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: accessToken,
		httpClient:  httpClient,
		logger:      logger,
	}
}

func (c *Client) do(ctx context.Context, method, path string, payload, target interface{}) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Square-Version", apiVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API request failed: %d - %s", resp.StatusCode, string(b))
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// ListCatalogItems pages through every ITEM and CATEGORY object in the catalog.
func (c *Client) ListCatalogItems(ctx context.Context) ([]CatalogObject, error) {
	var all []CatalogObject
	cursor := ""
	for page := 0; page < maxPages; page++ {
		q := url.Values{"types": {"ITEM,CATEGORY"}}
		if cursor != "" {
			q.Set("cursor", cursor)
		}
		var resp listCatalogResponse
		if err := c.do(ctx, http.MethodGet, "/v2/catalog/list?"+q.Encode(), nil, &resp); err != nil {
			return nil, fmt.Errorf("failed to list catalog: %w", err)
		}
		all = append(all, resp.Objects...)
		if resp.Cursor == "" {
			break
		}
		cursor = resp.Cursor
	}
	return all, nil
}

// InventoryCounts returns IN_STOCK quantities summed across locations, keyed
// by variation id.
func (c *Client) InventoryCounts(ctx context.Context, variationIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(variationIDs))
	for start := 0; start < len(variationIDs); start += countsBatch {
		end := start + countsBatch
		if end > len(variationIDs) {
			end = len(variationIDs)
		}
		cursor := ""
		for page := 0; page < maxPages; page++ {
			req := batchCountsRequest{CatalogObjectIDs: variationIDs[start:end], States: []string{"IN_STOCK"}, Cursor: cursor}
			var resp batchCountsResponse
			if err := c.do(ctx, http.MethodPost, "/v2/inventory/counts/batch-retrieve", req, &resp); err != nil {
				return nil, fmt.Errorf("failed to retrieve inventory counts: %w", err)
			}
			for _, ic := range resp.Counts {
				counts[ic.CatalogObjectID] += ic.Units()
			}
			if resp.Cursor == "" {
				break
			}
			cursor = resp.Cursor
		}
	}
	return counts, nil
}

func (c *Client) ListLocations(ctx context.Context) ([]Location, error) {
	var resp listLocationsResponse
	if err := c.do(ctx, http.MethodGet, "/v2/locations", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	return resp.Locations, nil
}

// SearchOrders pages through completed orders at every location.
func (c *Client) SearchOrders(ctx context.Context) ([]Order, error) {
	locations, err := c.ListLocations(ctx)
	if err != nil {
		return nil, err
	}
	if len(locations) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(locations))
	for _, l := range locations {
		ids = append(ids, l.ID)
	}

	var all []Order
	cursor := ""
	for page := 0; page < maxPages; page++ {
		req := searchOrdersRequest{LocationIDs: ids, Cursor: cursor, Limit: 500}
		req.Query.Filter.StateFilter.States = []string{"COMPLETED"}
		var resp searchOrdersResponse
		if err := c.do(ctx, http.MethodPost, "/v2/orders/search", req, &resp); err != nil {
			return nil, fmt.Errorf("failed to search orders: %w", err)
		}
		all = append(all, resp.Orders...)
		if resp.Cursor == "" {
			break
		}
		cursor = resp.Cursor
	}

	c.logger.Debug("fetched %d square orders across %d locations", len(all), len(ids))
	return all, nil
}
