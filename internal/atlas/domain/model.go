// Package domain defines the billing vendor contract used by the gateway.
package domain

import (
	"encoding/json"
	"time"
)

// UserHeader carries the resolved customer id on proxied vendor requests.
const UserHeader = "X-Atlas-User-Id"

// FeaturesAllowed is the vendor verdict for a set of features. A feature
// missing from Features is not allowed.
type FeaturesAllowed struct {
	OK       bool            `json:"ok"`
	Features map[string]bool `json:"features"`
}

// Allowed reports whether the overall check passed and featureID is granted.
func (f FeaturesAllowed) Allowed(featureID string) bool {
	return f.OK && f.Features[featureID]
}

// FeatureEvents records Quantity uses of every feature in FeatureIDs.
type FeatureEvents struct {
	FeatureIDs []string `json:"featureIds"`
	CustomerID string   `json:"customerId"`
	Quantity   int      `json:"quantity"`
}

// FeatureEvent is the wire form of a single queued usage event. ID is a ULID
// and doubles as the idempotency key.
type FeatureEvent struct {
	ID         string    `json:"id"`
	FeatureID  string    `json:"featureId"`
	CustomerID string    `json:"customerId"`
	Quantity   int       `json:"quantity"`
	Timestamp  time.Time `json:"timestamp"`
}

// Status is the raw vendor status response.
type Status struct {
	StatusCode int             `json:"status_code"`
	Body       json.RawMessage `json:"body"`
}

type featureCheckRequest struct {
	FeatureIDs []string         `json:"featureIds"`
	Usage      map[string]int64 `json:"usage,omitempty"`
}

// NewFeatureCheckRequest builds the body of a feature check.
func NewFeatureCheckRequest(featureIDs []string, usage map[string]int64) any {
	return featureCheckRequest{FeatureIDs: featureIDs, Usage: usage}
}

type eventsRequest struct {
	Events []FeatureEvent `json:"events"`
}

// NewEventsRequest builds the body of an events batch.
func NewEventsRequest(events []FeatureEvent) any {
	return eventsRequest{Events: events}
}
