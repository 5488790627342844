package middleware

import (
	"net/http"
	"strings"

	"github.com/trustfreeze/backend/internal/util"
)

const maxLoggedValue = 200

// redactedHeaders carry credentials and are never written to logs.
var redactedHeaders = map[string]bool{
	"authorization":       true,
	"proxy-authorization": true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"x-auth-token":        true,
	"x-issuer-secret":     true,
	"x-forwarded-for":     true,
}

// SanitizeHeaders copies h into a form fit for logging.
func SanitizeHeaders(h http.Header) map[string][]string {
	if h == nil {
		return nil
	}
	out := make(map[string][]string, len(h))
	for name, values := range h {
		if redactedHeaders[strings.ToLower(name)] {
			out[name] = []string{"<redacted>"}
			continue
		}
		clean := make([]string, len(values))
		for i, v := range values {
			clean[i] = clip(util.SanitizeForLog(v))
		}
		out[name] = clean
	}
	return out
}

// SanitizePath drops the query string, since account ids and filters end up
// there, and strips control characters from what is left.
func SanitizePath(p string) string {
	p, _, _ = strings.Cut(p, "?")
	return clip(util.SanitizeForLog(p))
}

func clip(s string) string {
	if len(s) > maxLoggedValue {
		return s[:maxLoggedValue]
	}
	return s
}
