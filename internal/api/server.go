package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"boardgame/internal"
	"boardgame/internal/config"
	"boardgame/internal/logging"
)

// DatasetProvider hands out the dataset currently being served.
type DatasetProvider interface {
	Current() (*internal.Dataset, error)
}

// RunLister exposes the import ledger.
type RunLister interface {
	ListRuns(limit int) ([]internal.RunRecord, error)
}

type Server struct {
	cfg      config.Config
	provider DatasetProvider
	runs     RunLister
	logger   *log.Logger
	server   *http.Server
}

// NewServer builds the dashboard API. runs may be nil when no database is
// attached.
func NewServer(cfg config.Config, provider DatasetProvider, runs RunLister, logger *log.Logger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Server{cfg: cfg, provider: provider, runs: runs, logger: logger}
}

func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(requestLogger{logger: s.logger}))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/players", s.listPlayers)
		r.Get("/players/{player}", s.playerStats)
		r.Get("/players/{player}/games/{game}", s.playerGame)
		r.Get("/matches", s.listMatches)
		r.Get("/general", s.general)
		r.Get("/head-to-head", s.headToHead)
		r.Get("/games", s.listGames)
		r.Get("/games/{game}", s.exploreGame)
		r.Get("/runs", s.listRuns)
	})

	return r
}

// Run serves on HTTP_ADDR until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dashboard listening", "addr", s.cfg.HTTPAddr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down dashboard")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}
