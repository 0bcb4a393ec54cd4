package httpserver

import (
	"net/http"
	"time"
)

// New builds the HTTP server. WriteTimeout leaves room for the authority's
// round trip plus the audit write that follows it.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      45 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
