package logger

import (
	"net/http"
	"strings"

	atlasdomain "github.com/smallbiznis/creditgate/internal/atlas/domain"
	authdomain "github.com/smallbiznis/creditgate/internal/auth/domain"
)

const redacted = "****"

// headerMaskers covers every header that carries a credential or identity
// on the way in or on the way to the vendor.
var headerMaskers = map[string]func(string) string{
	"authorization":                         MaskAuthorization,
	"cookie":                                MaskCookie,
	strings.ToLower(atlasdomain.UserHeader): MaskUserID,
	"x-api-key":                             MaskAPIKey,
}

// MaskAuthorization masks the bearer credential, preserving the scheme. Mock
// session tokens keep their prefix so logs still show which kind was sent.
func MaskAuthorization(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	parts := strings.Fields(value)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return "Bearer " + MaskToken(parts[1])
	}
	return MaskToken(value)
}

// MaskToken hides a credential. A mock session token embeds the user id, so
// nothing after its prefix is kept; any other value keeps its last 4
// characters.
func MaskToken(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if strings.HasPrefix(value, authdomain.TokenPrefix) {
		return authdomain.TokenPrefix + redacted
	}
	return maskLast4(value)
}

// MaskCookie masks cookie values while preserving cookie names.
func MaskCookie(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	parts := strings.Split(value, ";")
	masked := make([]string, 0, len(parts))
	for _, part := range parts {
		segment := strings.TrimSpace(part)
		if segment == "" {
			continue
		}
		if name, val, ok := strings.Cut(segment, "="); ok {
			segment = strings.TrimSpace(name) + "=" + MaskToken(val)
		} else {
			segment = MaskToken(segment)
		}
		masked = append(masked, segment)
	}
	return strings.Join(masked, "; ")
}

// MaskAPIKey masks the vendor API key. Keys of 8 characters or fewer are
// hidden entirely.
func MaskAPIKey(value string) string {
	value = strings.TrimSpace(value)
	switch {
	case value == "":
		return ""
	case len(value) <= 8:
		return redacted
	default:
		return maskLast4(value)
	}
}

// MaskUserID keeps the first character of a forwarded user id.
func MaskUserID(value string) string {
	value = strings.TrimSpace(value)
	if len(value) <= 1 {
		return redacted
	}
	return value[:1] + redacted
}

// MaskHeaders returns a copy of headers with credentials masked.
func MaskHeaders(headers http.Header) map[string]string {
	if len(headers) == 0 {
		return map[string]string{}
	}
	masked := make(map[string]string, len(headers))
	for key, values := range headers {
		joined := strings.Join(values, ",")
		if mask, ok := headerMaskers[strings.ToLower(strings.TrimSpace(key))]; ok {
			masked[key] = mask(joined)
			continue
		}
		masked[key] = joined
	}
	return masked
}

// SafeFieldsFromRequest describes a request for logs. The query string is
// dropped since proxied vendor calls may carry customer ids in it.
func SafeFieldsFromRequest(req *http.Request) map[string]any {
	if req == nil {
		return map[string]any{}
	}
	return map[string]any{
		"method":         req.Method,
		"path":           req.URL.Path,
		"has_query":      req.URL.RawQuery != "",
		"content_length": maxInt64(req.ContentLength, 0),
		"headers":        MaskHeaders(req.Header),
	}
}

func maskLast4(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if len(value) <= 4 {
		return redacted + value
	}
	return redacted + value[len(value)-4:]
}

func maxInt64(value, min int64) int64 {
	if value < min {
		return min
	}
	return value
}
