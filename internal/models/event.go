package models

import (
	"encoding/json"
	"time"
)

// InventoryEvent is a Shopify webhook delivery forwarded through Kafka.
type InventoryEvent struct {
	Topic      string          `json:"topic"`
	ShopDomain string          `json:"shop_domain"`
	WebhookID  string          `json:"webhook_id,omitempty"`
	ReceivedAt time.Time       `json:"received_at"`
	Payload    json.RawMessage `json:"payload"`
}
