// Package proxy forwards browser calls under /api/atlas-api to the billing
// vendor with server-side credentials.
package proxy

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	atlasdomain "github.com/smallbiznis/creditgate/internal/atlas/domain"
	obslogger "github.com/smallbiznis/creditgate/internal/observability/logger"
	obstracing "github.com/smallbiznis/creditgate/internal/observability/tracing"
	"go.uber.org/zap"
)

// strippedHeaders are removed before forwarding; the vendor API key replaces
// local credentials.
var strippedHeaders = []string{"Cookie", "Authorization", atlasdomain.UserHeader}

type Proxy struct {
	target *url.URL
	apiKey string
	rp     *httputil.ReverseProxy
	log    *zap.Logger
}

func New(baseURL, apiKey string, log *zap.Logger) (*Proxy, error) {
	target, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	p := &Proxy{target: target, apiKey: apiKey, log: log.Named("atlas.proxy")}
	p.rp = &httputil.ReverseProxy{
		Rewrite:      p.rewrite,
		Transport:    obstracing.WrapVendorTransport(nil),
		ErrorHandler: p.handleError,
	}
	return p, nil
}

type contextKey struct{}

type forward struct {
	slug   string
	userID string
}

// ServeHTTP forwards r to <base>/<slug> with userID in the user header. The
// vendor response is relayed unchanged.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request, slug, userID string) {
	ctx := withForward(r.Context(), forward{slug: cleanSlug(slug), userID: strings.TrimSpace(userID)})
	p.rp.ServeHTTP(w, r.WithContext(ctx))
}

func (p *Proxy) rewrite(pr *httputil.ProxyRequest) {
	fwd := forwardFrom(pr.In.Context())

	out := pr.Out
	out.URL.Scheme = p.target.Scheme
	out.URL.Host = p.target.Host
	out.URL.Path = strings.TrimRight(p.target.Path, "/") + "/" + fwd.slug
	out.URL.RawPath = ""
	out.URL.RawQuery = pr.In.URL.RawQuery
	out.Host = p.target.Host

	for _, header := range strippedHeaders {
		out.Header.Del(header)
	}
	out.Header.Set("Authorization", "Bearer "+p.apiKey)
	if fwd.userID != "" {
		out.Header.Set(atlasdomain.UserHeader, fwd.userID)
	}
	pr.SetXForwarded()
}

func (p *Proxy) handleError(w http.ResponseWriter, r *http.Request, err error) {
	obslogger.WithContext(r.Context(), p.log).Warn("atlas proxy request failed",
		zap.Any("request", obslogger.SafeFieldsFromRequest(r)),
		zap.Error(err),
	)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadGateway)
	_, _ = w.Write([]byte(`{"error":{"type":"upstream_error","message":"billing service unavailable"}}`))
}

// cleanSlug drops empty and dot segments so a slug cannot climb out of the
// vendor base path.
func cleanSlug(slug string) string {
	parts := strings.Split(slug, "/")
	kept := parts[:0]
	for _, part := range parts {
		switch part {
		case "", ".", "..":
			continue
		}
		kept = append(kept, part)
	}
	return strings.Join(kept, "/")
}
