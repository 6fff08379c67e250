// Package pathutil provides URL path helpers shared by the HTTP handlers:
// normalization for metrics labels and path parameter extraction.
package pathutil

import (
	"errors"
	"strings"
)

// ErrEmptyPathParam is returned when a path parameter segment is missing.
var ErrEmptyPathParam = errors.New("path parameter is required")

// NormalizePath rewrites parameterized request paths into their route
// templates so Prometheus labels stay low-cardinality. User identifiers
// would otherwise create one label value per user.
//
//	/recommend/u123      -> /recommend/:user_id
//	/recommend/u456?n=10 -> /recommend/:user_id
//	/health              -> /health
func NormalizePath(path string) string {
	// クエリパラメータを除去
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimSuffix(path, "/")
	if path == "" {
		return "/"
	}

	if strings.HasPrefix(path, "/recommend/") {
		return "/recommend/:user_id"
	}
	return path
}

// ExtractParam returns the path segment following the given prefix.
// It rejects empty segments and segments containing further slashes.
func ExtractParam(path, prefix string) (string, error) {
	raw := strings.TrimPrefix(path, prefix)
	raw = strings.TrimSuffix(raw, "/")
	if raw == "" {
		return "", ErrEmptyPathParam
	}
	if strings.ContainsRune(raw, '/') {
		return "", errors.New("invalid path: unexpected segment")
	}
	return raw, nil
}
