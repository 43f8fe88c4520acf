package security

import (
	"fmt"
	"net/http"
	"strings"
)

// Script origins the dashboard page loads from.
const (
	HTMXOrigin    = "https://unpkg.com"
	ChartJSOrigin = "https://cdn.jsdelivr.net"
)

// HeadersConfig holds security headers configuration
type HeadersConfig struct {
	CSP string

	// HSTS settings
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool

	XFrameOptions       string
	XContentTypeOptions string
	ReferrerPolicy      string
	PermissionsPolicy   string
	CrossOriginOpener   string
	CrossOriginResource string
}

// DefaultHeadersConfig returns the headers served with every response.
// Currency rates and tips are fetched server side, so connect-src stays 'self'.
func DefaultHeadersConfig() HeadersConfig {
	csp := []string{
		"default-src 'self'",
		"script-src 'self' " + HTMXOrigin + " " + ChartJSOrigin,
		"style-src 'self' 'unsafe-inline'",
		"img-src 'self' data:",
		"connect-src 'self'",
		"object-src 'none'",
		"frame-ancestors 'none'",
		"base-uri 'self'",
		"form-action 'self'",
	}
	return HeadersConfig{
		CSP:                   strings.Join(csp, "; "),
		HSTSMaxAge:            31536000,
		HSTSIncludeSubdomains: true,
		XFrameOptions:         "DENY",
		XContentTypeOptions:   "nosniff",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		PermissionsPolicy:     "geolocation=(), microphone=(), camera=(), payment=()",
		CrossOriginOpener:     "same-origin",
		CrossOriginResource:   "same-origin",
	}
}

// Headers returns middleware applying cfg to every response.
func Headers(cfg HeadersConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			setIf(h, "X-Content-Type-Options", cfg.XContentTypeOptions)
			setIf(h, "X-Frame-Options", cfg.XFrameOptions)
			setIf(h, "Content-Security-Policy", cfg.CSP)
			setIf(h, "Referrer-Policy", cfg.ReferrerPolicy)
			setIf(h, "Permissions-Policy", cfg.PermissionsPolicy)
			setIf(h, "Cross-Origin-Opener-Policy", cfg.CrossOriginOpener)
			setIf(h, "Cross-Origin-Resource-Policy", cfg.CrossOriginResource)

			if r.TLS != nil && cfg.HSTSMaxAge > 0 {
				hsts := fmt.Sprintf("max-age=%d", cfg.HSTSMaxAge)
				if cfg.HSTSIncludeSubdomains {
					hsts += "; includeSubDomains"
				}
				h.Set("Strict-Transport-Security", hsts)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func setIf(h http.Header, key, value string) {
	if value != "" {
		h.Set(key, value)
	}
}

// StaticAssetMiddleware adds caching headers for static assets
func StaticAssetMiddleware(maxAge int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxAge > 0 {
				w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", maxAge))
			}
			next.ServeHTTP(w, r)
		})
	}
}
