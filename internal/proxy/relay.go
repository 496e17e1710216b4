package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"stockpulse/internal/logger"
)

// stripped are never forwarded upstream.
var stripped = map[string]bool{
	"Connection":          true,
	"Keep-Alive":          true,
	"Proxy-Authenticate":  true,
	"Proxy-Authorization": true,
	"Te":                  true,
	"Trailer":             true,
	"Transfer-Encoding":   true,
	"Upgrade":             true,
	"Host":                true,
	"Content-Length":      true,
	"Accept-Encoding":     true,
	"Cookie":              true,
	"Origin":              true,
	"Referer":             true,
	HeaderUserID:          true,
	HeaderStoreID:         true,
	HeaderShopDomain:      true,
	HeaderAccessToken:     true,
}

// UpstreamError is a transport failure or non-2xx answer from Shopify.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return "shopify request failed: " + e.Message
	}
	return fmt.Sprintf("shopify API error %d: %s", e.StatusCode, e.Message)
}

// Response is an upstream answer relayed verbatim.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
	Link        string
}

// Relay forwards requests to the Shopify Admin API.
type Relay struct {
	client     *http.Client
	apiVersion string
	logger     *logger.Logger
}

func NewRelay(client *http.Client, apiVersion string, log *logger.Logger) *Relay {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	return &Relay{client: client, apiVersion: apiVersion, logger: log}
}

// Forward sends in to the upstream resource addressed by path using creds.
// The body is forwarded only for POST, PUT and PATCH requests carrying JSON.
func (r *Relay) Forward(ctx context.Context, in *http.Request, path string, creds Credentials) (*Response, error) {
	target := ParsePath(path, r.apiVersion)
	upstream := UpstreamURL(creds.ShopDomain, target, ApplyDefaults(target, in.URL.Query()))

	var body io.Reader
	if hasJSONBody(in) {
		payload, err := io.ReadAll(in.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, in.Method, upstream, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, vals := range in.Header {
		if stripped[http.CanonicalHeaderKey(k)] {
			continue
		}
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set(HeaderAccessToken, creds.AccessToken)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	r.logger.Debug("proxy %s %s (credentials from %s)", in.Method, upstream, creds.Source)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &UpstreamError{Message: err.Error()}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Message: err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Message: upstreamMessage(resp.StatusCode, payload)}
	}

	return &Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        payload,
		Link:        resp.Header.Get("Link"),
	}, nil
}

func hasJSONBody(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return false
	}
	return r.Body != nil && strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json")
}

// upstreamMessage prefers Shopify's {"errors": ...} payload.
func upstreamMessage(status int, body []byte) string {
	var shaped struct {
		Errors interface{} `json:"errors"`
	}
	if err := json.Unmarshal(body, &shaped); err == nil && shaped.Errors != nil {
		if s, ok := shaped.Errors.(string); ok {
			return s
		}
		if b, err := json.Marshal(shaped.Errors); err == nil {
			return string(b)
		}
	}
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return msg
	}
	return http.StatusText(status)
}
