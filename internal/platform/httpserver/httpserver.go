package httpserver

import (
	"net/http"

	"smpserver/internal/platform/config"
)

// New builds an HTTP server from the server configuration.
func New(cfg config.Server, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
