package server

import (
	"context"
	"fmt"
	"time"

	"midway/src/internal/app"
	"midway/src/internal/config"
	"midway/src/internal/logger"
	"midway/src/internal/version"

	"github.com/valyala/fasthttp"
)

// Server is the thin fasthttp wrapper feeding inbound requests into the
// runtime. One dispatch pipeline instance runs per accepted request;
// concurrency across requests is fasthttp's worker model.
type Server struct {
	app    *app.App
	cfg    config.ServerConfig
	log    *logger.Logger
	server *fasthttp.Server
}

// New creates a server around the given app.
func New(a *app.App, cfg config.ServerConfig, log *logger.Logger) *Server {
	return &Server{
		app: a,
		cfg: cfg,
		log: log,
	}
}

// Start begins serving. It returns once the listener is up, or with the
// startup error. The server shuts down gracefully when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.server = &fasthttp.Server{
		Name:         fmt.Sprintf("midway/%s", version.Short()),
		Handler:      s.handleRequest,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeoutMS) * time.Millisecond,
		WriteTimeout: time.Duration(s.cfg.WriteTimeoutMS) * time.Millisecond,
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	errChan := make(chan error, 1)
	go func() {
		s.log.Info("server started", map[string]any{
			"host": s.cfg.Host,
			"port": s.cfg.Port,
		})
		if err := s.server.ListenAndServe(addr); err != nil {
			errChan <- err
		}
	}()

	go func() {
		<-ctx.Done()
		s.Shutdown()
	}()

	select {
	case err := <-errChan:
		return err
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// Shutdown stops accepting connections and waits for in-flight requests up
// to the configured grace period.
func (s *Server) Shutdown() {
	if s.server == nil {
		return
	}

	grace := time.Duration(s.cfg.ShutdownGraceMS) * time.Millisecond
	if grace <= 0 {
		grace = 5 * time.Second
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	if err := s.server.ShutdownWithContext(shutdownCtx); err != nil {
		s.log.Error("server shutdown failed", map[string]any{
			"error": err.Error(),
		})
	}
}

func (s *Server) handleRequest(c *fasthttp.RequestCtx) {
	s.app.HandleRequest(&rawRequest{c: c}, &rawResponse{c: c})
}
