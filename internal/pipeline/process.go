package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"boardgame/internal"
	"boardgame/internal/config"
	"boardgame/internal/logging"
	"boardgame/internal/remote"
	"boardgame/internal/storage"
)

// LoadService turns a source (local path or http(s) URL) into a Dataset and,
// for imports, into the stored dataset plus a run record.
type LoadService struct {
	db     *storage.DB
	cfg    config.Config
	client *remote.Client
	logger *log.Logger
}

// NewLoadService builds a service. db may be nil when only Load is used.
func NewLoadService(db *storage.DB, cfg config.Config, logger *log.Logger) *LoadService {
	if logger == nil {
		logger = logging.Discard()
	}
	return &LoadService{db: db, cfg: cfg, client: remote.NewClient(cfg, logger), logger: logger}
}

type ImportResult struct {
	TraceID   string             `json:"traceId"`
	Source    string             `json:"source"`
	Hash      string             `json:"hash"`
	Status    internal.RunStatus `json:"status"`
	Matches   int                `json:"matches"`
	Players   int                `json:"players"`
	Archive   string             `json:"archive,omitempty"`
	ElapsedMs int64              `json:"elapsedMs"`
}

// Fetch reads the raw bytes of source.
func (s *LoadService) Fetch(ctx context.Context, source string) ([]byte, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, errors.New("empty source")
	}
	if remote.IsURL(source) {
		return s.client.Download(ctx, source)
	}
	return os.ReadFile(source)
}

// Load fetches and normalizes source. Every failure is a *LoadError.
func (s *LoadService) Load(ctx context.Context, source string) (*internal.Dataset, error) {
	return s.LoadAs(ctx, source, "")
}

// LoadAs is Load with an explicit input type. An empty inputType is detected
// from the source name and content.
func (s *LoadService) LoadAs(ctx context.Context, source string, inputType InputType) (*internal.Dataset, error) {
	blob, err := s.Fetch(ctx, source)
	if err != nil {
		return nil, &LoadError{Source: source, Err: err}
	}
	if inputType == "" {
		inputType = DetectInputType(source, blob)
	}
	return s.prepareBlob(source, inputType, blob)
}

func (s *LoadService) prepareBlob(source string, inputType InputType, blob []byte) (*internal.Dataset, error) {
	t, err := ExtractTable(inputType, blob, s.cfg.MatchesSheet)
	if err != nil {
		return nil, &LoadError{Source: source, Err: err}
	}
	t.Source = source
	ds, err := Prepare(t)
	if err != nil {
		return nil, &LoadError{Source: source, Err: err}
	}
	return ds, nil
}

// Import loads source and replaces the stored dataset. An unchanged source
// is skipped unless force is set. Failed loads are recorded as failed runs.
func (s *LoadService) Import(ctx context.Context, source string, force bool) (ImportResult, error) {
	if s.db == nil {
		return ImportResult{}, errors.New("import needs a database")
	}
	start := time.Now()
	res := ImportResult{TraceID: uuid.NewString(), Source: source}

	fail := func(err error) (ImportResult, error) {
		res.Status = internal.RunFailed
		res.ElapsedMs = time.Since(start).Milliseconds()
		if _, runErr := s.db.InsertRun(s.runRecord(res, err)); runErr != nil {
			s.logger.Error("record failed run", "trace", res.TraceID, "err", runErr)
		}
		s.logger.Warn("import failed", "trace", res.TraceID, "source", source, "err", err)
		return res, err
	}

	blob, err := s.Fetch(ctx, source)
	if err != nil {
		return fail(&LoadError{Source: source, Err: err})
	}
	res.Hash = contentHash(blob)

	if !force {
		last, err := s.db.LastHash(source)
		if err != nil {
			return fail(err)
		}
		if last == res.Hash {
			res.Status = internal.RunUnchanged
			res.ElapsedMs = time.Since(start).Milliseconds()
			if _, err := s.db.InsertRun(s.runRecord(res, nil)); err != nil {
				return res, err
			}
			s.logger.Info("import skipped, source unchanged", "trace", res.TraceID, "source", source)
			return res, nil
		}
	}

	inputType := DetectInputType(source, blob)
	ds, err := s.prepareBlob(source, inputType, blob)
	if err != nil {
		return fail(err)
	}
	res.Matches = len(ds.Matches)
	res.Players = ds.Players.Len()
	if s.cfg.OutputDir != "" {
		dir := filepath.Join(s.cfg.OutputDir, "sources")
		if res.Archive, err = archiveSource(dir, res.Hash, inputType, blob); err != nil {
			return fail(err)
		}
	}

	if err := s.db.SaveDataset(res.TraceID, ds); err != nil {
		return fail(err)
	}
	if err := s.db.MarkImported(source, res.Hash, res.TraceID); err != nil {
		return fail(err)
	}

	res.Status = internal.RunImported
	res.ElapsedMs = time.Since(start).Milliseconds()
	if _, err := s.db.InsertRun(s.runRecord(res, nil)); err != nil {
		return res, err
	}
	s.logger.Info("import done", "trace", res.TraceID, "source", source, "matches", res.Matches, "players", res.Players, "ms", res.ElapsedMs)
	return res, nil
}

func (s *LoadService) runRecord(res ImportResult, err error) internal.RunRecord {
	run := internal.RunRecord{
		TraceID: res.TraceID,
		Source:  res.Source,
		Hash:    res.Hash,
		Matches: res.Matches,
		Players: res.Players,
		Status:  res.Status,
	}
	if err != nil {
		run.Error = err.Error()
	}
	return run
}

func contentHash(blob []byte) string {
	sum := sha256.Sum256(blob)
	return hex.EncodeToString(sum[:])
}
