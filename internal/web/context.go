package web

import (
	"net/http"

	"github.com/qartha/idfportal/internal/core"
	"github.com/qartha/idfportal/internal/web/middleware"
)

// requestMetadata copies the client IP and User-Agent into the request
// context so service logs can include them.
func requestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := core.ContextWithIPAddress(r.Context(), middleware.ClientIP(r))
		ctx = core.ContextWithUserAgent(ctx, r.UserAgent())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestBase returns the scheme and host the request arrived on.
func requestBase(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p == "https" || p == "http" {
		scheme = p
	}
	return scheme + "://" + r.Host
}
