package mw

import (
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/duewatch/internal/logger"
	"github.com/MrSnakeDoc/duewatch/internal/utils"
)

// EnforceHost allows requests only if the Host header, without its port,
// matches one of the allowed hosts. Patterns like "*.example.com" match
// any subdomain. An empty list acts as a passthrough.
func EnforceHost(allowedHosts []string, log logger.Logger) func(http.Handler) http.Handler {
	patterns := make([]string, 0, len(allowedHosts))
	for _, h := range allowedHosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			patterns = append(patterns, h)
		}
	}
	if len(patterns) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host := strings.ToLower(utils.ParseHostNoPort(r.Host))
			for _, pattern := range patterns {
				if matchHost(host, pattern) {
					next.ServeHTTP(w, r)
					return
				}
			}

			log.Warn("request rejected by host filter",
				logger.String("host", r.Host),
				logger.String("path", r.URL.Path))
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}

// matchHost checks if host matches pattern (supports wildcard *.example.com)
func matchHost(host, pattern string) bool {
	if host == pattern {
		return true
	}

	// *.example.com matches sub.example.com but not example.com
	if suffix, ok := strings.CutPrefix(pattern, "*"); ok && strings.HasPrefix(suffix, ".") {
		return strings.HasSuffix(host, suffix) && len(host) > len(suffix)
	}

	return false
}
