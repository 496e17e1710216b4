package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"stockpulse/internal/logger"
)

const (
	pageSize = 250
	// maxPages bounds pagination for very large catalogs.
	maxPages = 200
)

var nextLinkPattern = regexp.MustCompile(`<([^>]+)>;\s*rel="?next"?`)

type Client struct {
	shopDomain  string
	accessToken string
	apiVersion  string
	httpClient  *http.Client
	logger      *logger.Logger
}

// NewClient builds a client for one shop. shopDomain must already be a host,
// e.g. "demo.myshopify.com".
func NewClient(shopDomain, accessToken, apiVersion string, httpClient *http.Client, logger *logger.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		shopDomain:  shopDomain,
		accessToken: accessToken,
		apiVersion:  apiVersion,
		httpClient:  httpClient,
		logger:      logger,
	}
}

func (c *Client) endpoint(resource string, query url.Values) string {
	u := fmt.Sprintf("https://%s/admin/api/%s/%s.json", c.shopDomain, c.apiVersion, resource)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// get decodes one page into target and returns the next page URL, if any.
func (c *Client) get(ctx context.Context, pageURL string, target interface{}) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("API request failed: %d - %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	return NextPageURL(resp.Header.Get("Link")), nil
}

// NextPageURL extracts the rel="next" target of a Link header.
func NextPageURL(link string) string {
	if m := nextLinkPattern.FindStringSubmatch(link); m != nil {
		return m[1]
	}
	return ""
}

// GetAllProducts pages through every product in the shop.
func (c *Client) GetAllProducts(ctx context.Context) ([]Product, error) {
	var all []Product
	next := c.endpoint("products", url.Values{"limit": {strconv.Itoa(pageSize)}})

	for page := 0; next != "" && page < maxPages; page++ {
		var resp ProductsResponse
		var err error
		next, err = c.get(ctx, next, &resp)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch products page %d: %w", page+1, err)
		}
		all = append(all, resp.Products...)
	}

	c.logger.Debug("fetched %d products from %s", len(all), c.shopDomain)
	return all, nil
}

// GetAllOrders pages through every order regardless of status.
func (c *Client) GetAllOrders(ctx context.Context) ([]Order, error) {
	var all []Order
	next := c.endpoint("orders", url.Values{"limit": {strconv.Itoa(pageSize)}, "status": {"any"}})

	for page := 0; next != "" && page < maxPages; page++ {
		var resp OrdersResponse
		var err error
		next, err = c.get(ctx, next, &resp)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch orders page %d: %w", page+1, err)
		}
		all = append(all, resp.Orders...)
	}

	c.logger.Debug("fetched %d orders from %s", len(all), c.shopDomain)
	return all, nil
}
