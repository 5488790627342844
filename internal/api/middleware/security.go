package middleware

import (
	"github.com/gin-gonic/gin"
)

// apiCSP forbids every resource type; the service only ever returns JSON and CSV.
const apiCSP = "default-src 'none'; frame-ancestors 'none'; base-uri 'none'; form-action 'none'"

// SecurityHeaders sets response headers for a JSON API that handles signing
// requests. HSTS is skipped in development so plain-HTTP local runs work.
func SecurityHeaders(isDevelopment bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Content-Security-Policy", apiCSP)
		if !isDevelopment {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cross-Origin-Resource-Policy", "same-origin")
		// freeze state and audit rows must not sit in shared caches
		h.Set("Cache-Control", "no-store")
		c.Next()
	}
}
