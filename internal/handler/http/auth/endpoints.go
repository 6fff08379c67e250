// Package auth provides JWT-based authentication for the HTTP API:
// token issuance for the configured service account and a bearer-token
// authorization middleware for protected endpoints.
package auth

import "strings"

// publicPrefixes lists endpoint prefixes accessible without authentication.
// Health probes and metrics must stay public for orchestrators and
// scrapers; token issuance is public by definition.
var publicPrefixes = []string{
	"/health",
	"/metrics",
	"/auth/token",
}

// IsPublicEndpoint reports whether the given path is accessible without a JWT.
func IsPublicEndpoint(path string) bool {
	for _, p := range publicPrefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
