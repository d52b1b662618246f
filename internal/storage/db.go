package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"boardgame/internal"
	"boardgame/internal/util"
)

// ErrNoDataset is returned by LoadDataset before the first import.
var ErrNoDataset = errors.New("no dataset imported yet")

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS players (
  position INTEGER PRIMARY KEY,
  name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS matches (
  id INTEGER PRIMARY KEY,
  rowNo INTEGER NOT NULL,
  date TEXT NOT NULL,
  players TEXT NOT NULL,
  game TEXT NOT NULL,
  version TEXT NOT NULL,
  scores TEXT NOT NULL,
  winner TEXT NOT NULL,
  hasScore INTEGER NOT NULL,
  hasWinner INTEGER NOT NULL,
  nrPlayers INTEGER NOT NULL,
  runId TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_matches_game ON matches(game);

CREATE TABLE IF NOT EXISTS match_results (
  matchId INTEGER NOT NULL,
  position INTEGER NOT NULL,
  player TEXT NOT NULL,
  score INTEGER NOT NULL,
  winner INTEGER NOT NULL,
  played INTEGER NOT NULL,
  PRIMARY KEY(matchId, position),
  FOREIGN KEY(matchId) REFERENCES matches(id)
);

CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  source TEXT NOT NULL,
  hash TEXT NOT NULL,
  matches INTEGER NOT NULL DEFAULT 0,
  players INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL,
  error TEXT NOT NULL DEFAULT '',
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// SaveDataset replaces the stored dataset with ds. Matches keep their
// position in ds.Matches as id so LoadDataset returns them in input order.
func (d *DB) SaveDataset(traceID string, ds *internal.Dataset) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"match_results", "matches", "players"} {
		if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
			return err
		}
	}

	playerStmt, err := tx.Prepare(`INSERT INTO players (position, name) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer playerStmt.Close()

	names := ds.Players.Names()
	for i, name := range names {
		if _, err := playerStmt.Exec(i, name); err != nil {
			return err
		}
	}

	matchStmt, err := tx.Prepare(`
INSERT INTO matches (id, rowNo, date, players, game, version, scores, winner, hasScore, hasWinner, nrPlayers, runId)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer matchStmt.Close()

	resultStmt, err := tx.Prepare(`
INSERT INTO match_results (matchId, position, player, score, winner, played)
VALUES (?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer resultStmt.Close()

	for id, m := range ds.Matches {
		if _, err := matchStmt.Exec(
			id, m.RowNo, util.FormatDate(m.Date), m.Players, m.Game, m.Version, m.Scores, m.Winner,
			m.HasScore, m.HasWinner, m.NrPlayers, traceID,
		); err != nil {
			return err
		}
		for pos, r := range m.Results {
			if _, err := resultStmt.Exec(id, pos, names[pos], r.Score, r.Winner, r.Played); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// LoadDataset rebuilds the last saved dataset. It returns ErrNoDataset when
// nothing was saved yet.
func (d *DB) LoadDataset() (*internal.Dataset, error) {
	var count int
	if err := d.conn.QueryRow(`SELECT COUNT(*) FROM matches`).Scan(&count); err != nil {
		return nil, err
	}
	if count == 0 {
		if v, err := d.GetMetadata(metaLastImport); err != nil {
			return nil, err
		} else if v == nil {
			return nil, ErrNoDataset
		}
	}

	names, err := d.listPlayers()
	if err != nil {
		return nil, err
	}
	universe := internal.NewPlayerUniverse(names)

	rows, err := d.conn.Query(`
SELECT id, rowNo, date, players, game, version, scores, winner, hasScore, hasWinner, nrPlayers
FROM matches ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []internal.Match
	ids := map[int]int{}
	for rows.Next() {
		var m internal.Match
		var id int
		var date string
		if err := rows.Scan(
			&id, &m.RowNo, &date, &m.Players, &m.Game, &m.Version, &m.Scores, &m.Winner,
			&m.HasScore, &m.HasWinner, &m.NrPlayers,
		); err != nil {
			return nil, err
		}
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			return nil, fmt.Errorf("match %d: %w", id, err)
		}
		m.Date = parsed
		m.Results = make([]internal.PlayerResult, universe.Len())
		ids[id] = len(matches)
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	results, err := d.conn.Query(`SELECT matchId, position, score, winner, played FROM match_results`)
	if err != nil {
		return nil, err
	}
	defer results.Close()

	for results.Next() {
		var id, pos int
		var r internal.PlayerResult
		if err := results.Scan(&id, &pos, &r.Score, &r.Winner, &r.Played); err != nil {
			return nil, err
		}
		i, ok := ids[id]
		if !ok || pos < 0 || pos >= universe.Len() {
			return nil, fmt.Errorf("dangling result match=%d position=%d", id, pos)
		}
		matches[i].Results[pos] = r
	}
	if err := results.Err(); err != nil {
		return nil, err
	}

	if matches == nil {
		matches = []internal.Match{}
	}
	return &internal.Dataset{Players: universe, Matches: matches}, nil
}

func (d *DB) listPlayers() ([]string, error) {
	rows, err := d.conn.Query(`SELECT name FROM players ORDER BY position ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func (d *DB) InsertRun(run internal.RunRecord) (int64, error) {
	result, err := d.conn.Exec(`
INSERT INTO runs (traceId, source, hash, matches, players, status, error)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, run.TraceID, run.Source, run.Hash, run.Matches, run.Players, string(run.Status), run.Error)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// ListRuns returns the most recent runs first.
func (d *DB) ListRuns(limit int) ([]internal.RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.conn.Query(`
SELECT id, traceId, source, hash, matches, players, status, error, createdAt
FROM runs ORDER BY id DESC LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []internal.RunRecord{}
	for rows.Next() {
		var run internal.RunRecord
		var status string
		if err := rows.Scan(&run.ID, &run.TraceID, &run.Source, &run.Hash, &run.Matches, &run.Players, &status, &run.Error, &run.CreatedAt); err != nil {
			return nil, err
		}
		run.Status = internal.RunStatus(status)
		out = append(out, run)
	}
	return out, rows.Err()
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}

const (
	metaLastImport  = "import.last_at"
	metaLastSource  = "import.last_source"
	metaHashPrefix  = "import.hash."
	metaTracePrefix = "import.trace."
)

// LastHash returns the content hash of the stored dataset when it was
// imported from source. It is empty when another source was imported since.
func (d *DB) LastHash(source string) (string, error) {
	last, err := d.GetMetadata(metaLastSource)
	if err != nil || last == nil || *last != source {
		return "", err
	}
	v, err := d.GetMetadata(metaHashPrefix + source)
	if err != nil || v == nil {
		return "", err
	}
	return *v, nil
}

// MarkImported records a successful import of source.
func (d *DB) MarkImported(source, hash, traceID string) error {
	if err := d.SetMetadata(metaHashPrefix+source, hash); err != nil {
		return err
	}
	if err := d.SetMetadata(metaTracePrefix+source, traceID); err != nil {
		return err
	}
	if err := d.SetMetadata(metaLastSource, source); err != nil {
		return err
	}
	return d.SetMetadata(metaLastImport, time.Now().UTC().Format(time.RFC3339))
}

// LastImport returns when and from where the stored dataset was imported.
// Both are empty before the first import.
func (d *DB) LastImport() (at string, source string, err error) {
	atPtr, err := d.GetMetadata(metaLastImport)
	if err != nil {
		return "", "", err
	}
	srcPtr, err := d.GetMetadata(metaLastSource)
	if err != nil {
		return "", "", err
	}
	if atPtr != nil {
		at = *atPtr
	}
	if srcPtr != nil {
		source = *srcPtr
	}
	return at, source, nil
}
