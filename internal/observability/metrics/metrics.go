package metrics

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics exposes application-level instruments.
type Metrics struct {
	featureChecks    metric.Int64Counter
	usageEvents      metric.Int64Counter
	pricingLookups   metric.Int64Counter
	diceRolls        metric.Int64Counter
	rateLimitAllowed metric.Int64Counter
	rateLimitDenied  metric.Int64Counter
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "creditgate"
	}
	meter := provider.Meter(name)

	m := &Metrics{}
	for _, c := range []struct {
		target     *metric.Int64Counter
		name, desc string
	}{
		{&m.featureChecks, "creditgate_feature_checks_total", "Entitlement checks by feature and outcome."},
		{&m.usageEvents, "creditgate_usage_events_total", "Usage quantity queued for the billing vendor."},
		{&m.pricingLookups, "creditgate_pricing_lookups_total", "Pricing model reads by source."},
		{&m.diceRolls, "creditgate_dice_rolls_total", "Dice roll attempts by outcome."},
		{&m.rateLimitAllowed, "creditgate_rate_limit_allowed_total", "Requests admitted by the feature limiter."},
		{&m.rateLimitDenied, "creditgate_rate_limit_denied_total", "Requests rejected by the feature limiter."},
	} {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, err
		}
		*c.target = counter
	}
	return m, nil
}

// RecordFeatureCheck counts an entitlement check; outcome is "allowed",
// "denied" or "error".
func (m *Metrics) RecordFeatureCheck(ctx context.Context, feature, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("feature", strings.TrimSpace(feature)),
		attribute.String("outcome", strings.TrimSpace(outcome)),
	)
	m.featureChecks.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordUsageEvent counts feature usage events handed to the vendor queue.
func (m *Metrics) RecordUsageEvent(ctx context.Context, feature string, count int) {
	if m == nil || count <= 0 {
		return
	}
	attrs := FilterAttributes(attribute.String("feature", strings.TrimSpace(feature)))
	m.usageEvents.Add(ctx, int64(count), metric.WithAttributes(attrs...))
}

// RecordPricingLookup counts pricing model reads by source: "cache",
// "vendor" or "static".
func (m *Metrics) RecordPricingLookup(ctx context.Context, source string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("source", strings.TrimSpace(source)))
	m.pricingLookups.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// Dice roll outcomes.
const (
	DiceRollGranted      = "granted"
	DiceRollLimitReached = "limit_reached"
	DiceRollNotIncluded  = "not_included"
	DiceRollImported     = "imported"
)

// RecordDiceRoll counts roll attempts by outcome. Only "granted" and
// "imported" rolls are persisted.
func (m *Metrics) RecordDiceRoll(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("outcome", outcome))
	m.diceRolls.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRateLimitAllowed increments rate limit allow counts.
func (m *Metrics) RecordRateLimitAllowed(ctx context.Context, feature, endpoint string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("feature", strings.TrimSpace(feature)),
		attribute.String("endpoint", strings.TrimSpace(endpoint)),
	)
	m.rateLimitAllowed.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRateLimitDenied increments rate limit deny counts.
func (m *Metrics) RecordRateLimitDenied(ctx context.Context, feature, endpoint, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("feature", strings.TrimSpace(feature)),
		attribute.String("endpoint", strings.TrimSpace(endpoint)),
		attribute.String("reason", strings.TrimSpace(reason)),
	)
	m.rateLimitDenied.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// user_id is excluded to keep cardinality bounded.
var allowedLabelKeys = map[attribute.Key]struct{}{
	"feature":     {},
	"outcome":     {},
	"source":      {},
	"endpoint":    {},
	"status_code": {},
	"reason":      {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
