package server

import (
	"fmt"
	"net/http"
	"time"

	"chatline/internal/config"
)

func NewHTTPServer(cfg config.Config, handler http.Handler) *http.Server {
	// IdleTimeout only reaps idle keep-alive REST connections; upgraded
	// websocket connections are hijacked and not subject to it.
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

func Run(cfg config.Config, handler http.Handler) error {
	srv := NewHTTPServer(cfg, handler)
	if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
		return srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
	}
	return srv.ListenAndServe()
}
