// Package server wires the loaded pipelines into an HTTP server.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/Brownie44l1/agri-api/internal/config"
	"github.com/Brownie44l1/agri-api/internal/handlers"
	"github.com/Brownie44l1/agri-api/internal/logger"
)

type Server struct {
	cfg        config.Config
	bundle     *Bundle
	router     *mux.Router
	httpServer *http.Server
}

func New(cfg config.Config, bundle *Bundle) *Server {
	s := &Server{
		cfg:    cfg,
		bundle: bundle,
		router: mux.NewRouter(),
	}
	handlers.NewHandler(bundle.Pipelines, cfg).RegisterRoutes(s.router)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks until the server stops. It returns http.ErrServerClosed after
// a graceful Stop.
func (s *Server) Start() error {
	logger.Infof("server listening on http://localhost:%d", s.cfg.Server.Port)
	return s.httpServer.ListenAndServe()
}

// Stop drains in-flight requests, then releases the predictors.
func (s *Server) Stop(ctx context.Context) error {
	defer s.bundle.Close()
	return s.httpServer.Shutdown(ctx)
}
