package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charlieegan3/metadata-console/pkg/config"
	"github.com/charlieegan3/metadata-console/pkg/server/handlers"
)

// NewServer returns a server for cfg. objects and edits are optional and
// may be nil.
func NewServer(cfg *config.Config, objects handlers.ObjectStore, edits handlers.EditHistory) (Server, error) {
	if cfg.Server.Logger == nil {
		return Server{}, fmt.Errorf("server logger is required")
	}

	return Server{
		cfg:     cfg,
		objects: objects,
		edits:   edits,
	}, nil
}

type Server struct {
	cfg *config.Config

	objects handlers.ObjectStore
	edits   handlers.EditHistory

	httpServer *http.Server
}

// Start begins serving in the background. The server is shut down when ctx
// is done or Stop is called.
func (s *Server) Start(ctx context.Context) error {
	mux, err := newMux(&handlers.Options{
		DevMode:        s.cfg.Server.DevMode,
		MaxUploadBytes: s.cfg.Server.MaxUploadBytes,
		Logger:         s.cfg.Server.Logger,
		Objects:        s.objects,
		History:        s.edits,
	})
	if err != nil {
		return fmt.Errorf("failed to create mux: %w", err)
	}

	httpServer := &http.Server{
		Addr: fmt.Sprintf(
			"%s:%d",
			s.cfg.Server.Address,
			s.cfg.Server.Port,
		),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpServer

	logger := s.cfg.Server.Logger

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := httpServer.Shutdown(shutdownCtx)
		if err != nil {
			logger.WithError(err).Error("failed to shutdown")
		}
	}()

	go func() {
		logger.WithField("addr", httpServer.Addr).Info("listening")

		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("failed to listen and serve")
		}
	}()

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer != nil {
		err := s.httpServer.Shutdown(ctx)
		if err != nil {
			return err
		}
	}

	s.httpServer = nil

	return nil
}
