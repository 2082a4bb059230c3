package tracing

import (
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const vendorTracerName = "creditgate/atlas"

// Path segments that precede a vendor resource id.
var vendorIDParents = map[string]struct{}{
	"customers":     {},
	"plans":         {},
	"entitlements":  {},
	"subscriptions": {},
	"events":        {},
}

// WrapVendorTransport traces calls to the billing vendor, for both the API
// client and the browser proxy. A nil base uses http.DefaultTransport.
func WrapVendorTransport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &vendorTransport{base: base, tracer: otel.Tracer(vendorTracerName)}
}

type vendorTransport struct {
	base   http.RoundTripper
	tracer trace.Tracer
}

func (t *vendorTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	route := VendorRoute(req.URL.Path)
	ctx, span := t.tracer.Start(req.Context(), "atlas "+strings.ToUpper(req.Method)+" "+route,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(AttrAtlasRoute.String(route)),
	)
	defer span.End()

	req = req.WithContext(ctx)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		span.RecordError(SafeError(err))
		span.SetStatus(codes.Error, "atlas unreachable")
		return resp, err
	}

	span.SetAttributes(SafeAttributes(
		attribute.String("http.method", req.Method),
		attribute.String("http.host", req.URL.Host),
		AttrAtlasStatus.Int(resp.StatusCode),
		attribute.Int64("http.client_duration_ms", time.Since(start).Milliseconds()),
	)...)
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		span.SetStatus(codes.Error, "atlas rejected credentials")
	case resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests:
		span.SetStatus(codes.Error, "atlas unavailable")
	}
	return resp, nil
}

// VendorRoute replaces resource ids in a vendor path with "{id}" so customer
// ids stay out of span names.
func VendorRoute(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i := 1; i < len(segments); i++ {
		if _, ok := vendorIDParents[segments[i-1]]; ok && segments[i] != "" {
			segments[i] = "{id}"
		}
	}
	return "/" + strings.Join(segments, "/")
}
