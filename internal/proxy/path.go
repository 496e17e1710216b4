package proxy

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const (
	DefaultAPIVersion = "2024-01"
	// MaxPageSize is the largest page Shopify serves.
	MaxPageSize = "250"
)

var versionPattern = regexp.MustCompile(`(\d{4}-\d{2})/(.+)`)

// Target is the upstream Admin API resource a request maps to.
type Target struct {
	Version  string
	Endpoint string
}

// ParsePath extracts the API version and endpoint from an inbound path such as
// "/api/2024-01/orders". Without a version segment the default version and the
// last path segment are used.
func ParsePath(path, defaultVersion string) Target {
	if defaultVersion == "" {
		defaultVersion = DefaultAPIVersion
	}
	if m := versionPattern.FindStringSubmatch(path); m != nil {
		return Target{Version: m[1], Endpoint: cleanEndpoint(m[2])}
	}

	trimmed := strings.Trim(path, "/")
	endpoint := trimmed
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		endpoint = trimmed[i+1:]
	}
	return Target{Version: defaultVersion, Endpoint: cleanEndpoint(endpoint)}
}

func cleanEndpoint(e string) string {
	e = strings.Trim(e, "/")
	return strings.TrimSuffix(e, ".json")
}

// resource is the collection name an endpoint addresses, "orders" for
// "orders/count" or "orders".
func (t Target) resource() string {
	if i := strings.Index(t.Endpoint, "/"); i >= 0 {
		return t.Endpoint[:i]
	}
	return t.Endpoint
}

// ApplyDefaults fills the page-size cap and, for orders, the status filter.
func ApplyDefaults(t Target, query url.Values) url.Values {
	out := url.Values{}
	for k, v := range query {
		out[k] = append([]string(nil), v...)
	}
	if out.Get("limit") == "" {
		out.Set("limit", MaxPageSize)
	}
	if t.resource() == "orders" && out.Get("status") == "" {
		out.Set("status", "any")
	}
	return out
}

// UpstreamURL builds https://{shop}/admin/api/{version}/{endpoint}.json?{query}.
func UpstreamURL(shopDomain string, t Target, query url.Values) string {
	u := fmt.Sprintf("https://%s/admin/api/%s/%s.json", shopDomain, t.Version, t.Endpoint)
	if encoded := query.Encode(); encoded != "" {
		u += "?" + encoded
	}
	return u
}
