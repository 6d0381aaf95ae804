// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"fmt"
	"log"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"time"
)

// ============================================================================
// CORS MIDDLEWARE
// ============================================================================

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	// AllowedOrigins is the list of allowed origins.
	// Supports "*" for all and "*.domain.com" for subdomain wildcards.
	AllowedOrigins []string

	// AllowedMethods is the list of allowed HTTP methods.
	AllowedMethods []string

	// AllowedHeaders is the list of allowed headers.
	AllowedHeaders []string

	// MaxAge is how long preflight results can be cached (seconds).
	MaxAge int
}

// DefaultCORSConfig returns a CORS config that admits the local
// front-ends shipped with the relay.
func DefaultCORSConfig() *CORSConfig {
	return &CORSConfig{
		AllowedOrigins: []string{
			"http://localhost:8501",
			"http://127.0.0.1:8501",
		},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         86400,
	}
}

// NewCORSConfig returns the default CORS config with the origin list
// replaced by origins, when any are given.
func NewCORSConfig(origins []string) *CORSConfig {
	config := DefaultCORSConfig()
	if len(origins) > 0 {
		config.AllowedOrigins = origins
	}
	return config
}

// isOriginAllowed checks if an origin is in the allowed list.
func (c *CORSConfig) isOriginAllowed(origin string) bool {
	if origin == "" {
		return false
	}

	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
		// Subdomain wildcard: "*.example.com" matches "https://api.example.com"
		if strings.HasPrefix(allowed, "*.") {
			domain := allowed[2:]
			if strings.HasSuffix(origin, "."+domain) || strings.HasSuffix(origin, "://"+domain) {
				return true
			}
		}
	}

	return false
}

// CORSMiddleware returns middleware that handles CORS.
func CORSMiddleware(config *CORSConfig) func(http.Handler) http.Handler {
	if config == nil {
		config = DefaultCORSConfig()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if config.isOriginAllowed(origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", strings.Join(config.AllowedMethods, ", "))
				w.Header().Set("Access-Control-Allow-Headers", strings.Join(config.AllowedHeaders, ", "))
				w.Header().Set("Access-Control-Max-Age", fmt.Sprintf("%d", config.MaxAge))
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}

			// Handle preflight
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ============================================================================
// LOGGING MIDDLEWARE
// ============================================================================

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush passes flushes through to the wrapped writer. Embedding the
// interface does not promote Flush, and without it streamed replies
// buffer until the handler returns.
func (rw *responseWriter) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// LoggingMiddleware returns middleware that logs each request.
func LoggingMiddleware(logger *log.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = log.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)
			logger.Printf("%s | %s %s | %d | %.3fs | client=%s",
				start.Format("2006-01-02 15:04:05"),
				r.Method,
				r.URL.Path,
				wrapped.statusCode,
				duration.Seconds(),
				GetClientIP(r),
			)
		})
	}
}

// ============================================================================
// RECOVERY MIDDLEWARE
// ============================================================================

// RecoveryMiddleware returns middleware that recovers from panics.
func RecoveryMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					stack := debug.Stack()
					log.Printf("PANIC_RECOVERED | path=%s error=%v\n%s", r.URL.Path, err, stack)

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					fmt.Fprint(w, `{"error": "Internal server error"}`)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// ============================================================================
// MIDDLEWARE CHAIN
// ============================================================================

// Middleware is a function that wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain combines multiple middleware into one.
// Applied in order: Chain(a, b, c) means a wraps b wraps c wraps handler.
func Chain(middlewares ...Middleware) Middleware {
	return func(final http.Handler) http.Handler {
		handler := final
		for i := len(middlewares) - 1; i >= 0; i-- {
			handler = middlewares[i](handler)
		}
		return handler
	}
}

// ============================================================================
// CLIENT IP
// ============================================================================

// trustedProxies are the CIDR ranges whose forwarding headers we honor.
// Everything here is loopback or RFC 1918; the relay is not meant to be
// exposed past a local reverse proxy.
var trustedProxies = parseTrustedProxies([]string{
	"127.0.0.0/8",
	"::1/128",
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
})

// parseTrustedProxies parses CIDR strings into networks.
func parseTrustedProxies(cidrs []string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			continue
		}
		nets = append(nets, network)
	}
	return nets
}

// isTrustedProxy checks whether an IP belongs to a trusted proxy range.
func isTrustedProxy(ip net.IP) bool {
	if ip == nil {
		return false
	}
	for _, network := range trustedProxies {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// getRemoteIP extracts the IP from RemoteAddr.
func getRemoteIP(r *http.Request) net.IP {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return net.ParseIP(host)
}

// GetClientIP extracts the client IP from a request. Forwarding headers
// are only believed when the direct peer is a trusted proxy; otherwise
// they are trivially spoofable.
func GetClientIP(r *http.Request) string {
	remoteIP := getRemoteIP(r)

	if isTrustedProxy(remoteIP) {
		// X-Forwarded-For may hold a chain; the first entry is the
		// originating client.
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			parts := strings.Split(xff, ",")
			candidate := strings.TrimSpace(parts[0])
			if ip := net.ParseIP(candidate); ip != nil {
				return ip.String()
			}
		}

		if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
			if ip := net.ParseIP(strings.TrimSpace(realIP)); ip != nil {
				return ip.String()
			}
		}
	}

	if remoteIP != nil {
		return remoteIP.String()
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
