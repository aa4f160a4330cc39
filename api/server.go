package api

import (
	"net"
	"net/http"
	"time"

	"github.com/srejanashetty/efarm-backend/pkg/config"
)

// NewServer wraps the router in an http.Server bound to the configured port.
func NewServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              net.JoinHostPort("", cfg.App.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
