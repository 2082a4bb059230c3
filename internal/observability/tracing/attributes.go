package tracing

import (
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

const (
	AttrFeature        = attribute.Key("creditgate.feature")
	AttrFeatureOutcome = attribute.Key("creditgate.feature.outcome")
	AttrAtlasMode      = attribute.Key("atlas.mode")
	AttrAtlasRoute     = attribute.Key("atlas.route")
	AttrAtlasStatus    = attribute.Key("atlas.status_code")
	AttrRequestID      = attribute.Key("request_id")
)

// Substrings of attribute keys that may carry credentials or the forwarded
// user identity.
var sensitiveAttributeKeys = []string{
	"api_key",
	"token",
	"authorization",
	"cookie",
	"password",
	"x-atlas-user-id",
}

const maxErrorCodeLength = 64

// SafeAttributes drops attributes with sensitive keys.
func SafeAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if isSensitiveKey(string(attr.Key)) {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}

// SafeError reduces err to the first domain error code in its chain, such as
// "customer_not_found", or to its type when there is none. Vendor messages
// never reach the exporter.
func SafeError(err error) error {
	if err == nil {
		return nil
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		if code := e.Error(); isErrorCode(code) {
			return errors.New(code)
		}
	}
	return fmt.Errorf("%T", err)
}

func isErrorCode(msg string) bool {
	if msg == "" || len(msg) > maxErrorCodeLength {
		return false
	}
	for _, r := range msg {
		if (r < 'a' || r > 'z') && r != '_' {
			return false
		}
	}
	return true
}

func isSensitiveKey(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, needle := range sensitiveAttributeKeys {
		if strings.Contains(key, needle) {
			return true
		}
	}
	return false
}
