package refresh

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-co-op/gocron/v2"

	"boardgame/internal"
	"boardgame/internal/config"
	"boardgame/internal/logging"
	"boardgame/internal/pipeline"
	"boardgame/internal/storage"
)

var ErrNotLoaded = errors.New("dataset not loaded yet")

// Status describes what the service currently serves.
type Status struct {
	Loaded   bool      `json:"loaded"`
	Source   string    `json:"source"`
	LoadedAt time.Time `json:"loadedAt"`
	Matches  int       `json:"matches"`
	Players  int       `json:"players"`
	Error    string    `json:"error,omitempty"`
}

// Service keeps the current dataset in memory and re-imports the configured
// source on an interval. A failed refresh keeps the previous dataset.
type Service struct {
	db     *storage.DB
	cfg    config.Config
	loader *pipeline.LoadService
	logger *log.Logger

	mu       sync.RWMutex
	ds       *internal.Dataset
	loadedAt time.Time
	lastErr  error
}

// NewService builds a refresh service. Without db every cycle loads the
// source directly and nothing is persisted.
func NewService(db *storage.DB, cfg config.Config, logger *log.Logger) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{
		db:     db,
		cfg:    cfg,
		loader: pipeline.NewLoadService(db, cfg, logger),
		logger: logger,
	}
}

// Current returns the dataset being served, or the last load error when no
// load has succeeded yet.
func (s *Service) Current() (*internal.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ds != nil {
		return s.ds, nil
	}
	if s.lastErr != nil {
		return nil, s.lastErr
	}
	return nil, ErrNotLoaded
}

func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Status{Source: s.cfg.MatchesSource, LoadedAt: s.loadedAt}
	if s.ds != nil {
		st.Loaded = true
		st.Matches = len(s.ds.Matches)
		st.Players = s.ds.Players.Len()
	}
	if s.lastErr != nil {
		st.Error = s.lastErr.Error()
	}
	return st
}

// Refresh runs one import cycle and swaps the served dataset on success.
func (s *Service) Refresh(ctx context.Context) error {
	ds, err := s.runCycle(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
	if ds != nil {
		s.ds = ds
		s.loadedAt = time.Now().UTC()
	}
	return err
}

func (s *Service) runCycle(ctx context.Context) (*internal.Dataset, error) {
	source := s.cfg.MatchesSource
	if s.db == nil {
		return s.loader.Load(ctx, source)
	}

	res, err := s.loader.Import(ctx, source, false)
	if err != nil {
		if s.has() {
			return nil, err
		}
		return s.stored(source), err
	}
	if res.Status == internal.RunUnchanged && s.has() {
		return nil, nil
	}
	return s.db.LoadDataset()
}

// stored returns the persisted dataset when it was imported from source, so a
// failed first cycle still serves the last good import.
func (s *Service) stored(source string) *internal.Dataset {
	_, last, err := s.db.LastImport()
	if err != nil || last != source {
		return nil
	}
	ds, err := s.db.LoadDataset()
	if err != nil {
		return nil
	}
	s.logger.Warn("serving stored dataset", "source", source)
	return ds
}

func (s *Service) has() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ds != nil
}

// Run loads once, then refreshes every REFRESH_INTERVAL_SEC until ctx is
// done. Cycle errors are logged, not returned.
func (s *Service) Run(ctx context.Context) error {
	if err := s.Refresh(ctx); err != nil {
		s.logger.Error("initial load failed", "source", s.cfg.MatchesSource, "err", err)
	}

	interval := time.Duration(s.cfg.RefreshIntervalSec) * time.Second
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if err := s.Refresh(ctx); err != nil {
				s.logger.Error("refresh cycle error", "err", err)
				return
			}
			st := s.Status()
			s.logger.Info("refresh cycle done", "matches", st.Matches, "players", st.Players)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return err
	}

	sched.Start()
	<-ctx.Done()
	return sched.Shutdown()
}
