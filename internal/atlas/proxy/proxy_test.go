package proxy

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	atlasdomain "github.com/smallbiznis/creditgate/internal/atlas/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestProxyForwardsWithVendorCredentials(t *testing.T) {
	var seen *http.Request
	var seenBody string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Clone(r.Context())
		raw, _ := io.ReadAll(r.Body)
		seenBody = string(raw)
		w.Header().Set("X-Vendor", "yes")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"created":true}`))
	}))
	defer upstream.Close()

	p, err := New(upstream.URL+"/", "sk_test", zap.NewNop())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/atlas-api/customers/user1/portal?return=%2Fbilling", strings.NewReader(`{"a":1}`))
	req.Header.Set("Authorization", "Bearer mock-token-user1")
	req.Header.Set("Cookie", "mock-auth-token=mock-token-user1")
	req.Header.Set(atlasdomain.UserHeader, "spoofed")
	w := httptest.NewRecorder()

	p.ServeHTTP(w, req, "/customers/user1/portal", "user1")

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "yes", w.Header().Get("X-Vendor"))
	assert.JSONEq(t, `{"created":true}`, w.Body.String())

	require.NotNil(t, seen)
	assert.Equal(t, http.MethodPost, seen.Method)
	assert.Equal(t, "/customers/user1/portal", seen.URL.Path)
	assert.Equal(t, "/billing", seen.URL.Query().Get("return"))
	assert.Equal(t, "Bearer sk_test", seen.Header.Get("Authorization"))
	assert.Equal(t, "user1", seen.Header.Get(atlasdomain.UserHeader))
	assert.Empty(t, seen.Header.Get("Cookie"))
	assert.Equal(t, `{"a":1}`, seenBody)
}

func TestProxyUpstreamDown(t *testing.T) {
	p, err := New("http://127.0.0.1:1", "sk_test", zap.NewNop())
	require.NoError(t, err)

	w := httptest.NewRecorder()
	p.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/atlas-api/status", nil), "status", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestCleanSlug(t *testing.T) {
	assert.Equal(t, "a/b", cleanSlug("/a//b/"))
	assert.Equal(t, "etc", cleanSlug("../../etc"))
	assert.Equal(t, "", cleanSlug(""))
}
