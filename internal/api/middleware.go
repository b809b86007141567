// Package api implements the prdboard JSON API using chi.
package api

import "net/http"

// NoCache marks every response as uncacheable. The document can change on
// disk at any moment; conditional requests go through ETag instead.
func NoCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		next.ServeHTTP(w, r)
	})
}
