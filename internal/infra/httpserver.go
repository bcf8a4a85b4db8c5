package infra

import (
	"context"
	"net/http"
	"time"
)

// HTTPServer runs the admin API with the configured timeouts and supports
// graceful shutdown. Result downloads stream whole zip archives, so the write
// timeout comes from config rather than a hardcoded short value.
type HTTPServer struct {
	srv *http.Server
}

func NewHTTPServer(cfg *Config, handler http.Handler) *HTTPServer {
	return &HTTPServer{srv: &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
	}}
}

// Start blocks serving requests until Shutdown is called or the listener
// fails.
func (s *HTTPServer) Start() error {
	if s.srv == nil {
		return nil
	}
	return s.srv.ListenAndServe()
}

// Shutdown drains in-flight requests until ctx expires.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
