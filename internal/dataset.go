package internal

import (
	"sort"
	"time"
)

// Table is a loaded spreadsheet before any interpretation: a header row and
// text cells.
type Table struct {
	Source  string
	Sheet   string
	Columns []string
	Rows    [][]string
}

// RawMatch is one row of the match log as authored by hand.
type RawMatch struct {
	RowNo   int
	Date    time.Time
	Players string
	Game    string
	Version string
	Scores  string
	Winner  string
}

// PlayerResult holds the derived values of one player in one match.
type PlayerResult struct {
	Score  int  `json:"score"`
	Winner bool `json:"winner"`
	Played bool `json:"played"`
}

// Match is a RawMatch enriched with per-player results and row aggregates.
// Results is indexed by the player's position in the PlayerUniverse.
type Match struct {
	RawMatch
	Results   []PlayerResult
	HasScore  bool
	HasWinner bool
	NrPlayers int
}

// PlayerUniverse is the sorted set of every player seen in the log.
type PlayerUniverse struct {
	names    []string
	position map[string]int
}

func NewPlayerUniverse(sorted []string) PlayerUniverse {
	u := PlayerUniverse{
		names:    append([]string(nil), sorted...),
		position: make(map[string]int, len(sorted)),
	}
	for i, name := range u.names {
		u.position[name] = i
	}
	return u
}

func (u PlayerUniverse) Names() []string {
	return append([]string(nil), u.names...)
}

func (u PlayerUniverse) Len() int {
	return len(u.names)
}

func (u PlayerUniverse) Name(i int) string {
	return u.names[i]
}

func (u PlayerUniverse) Index(name string) (int, bool) {
	i, ok := u.position[name]
	return i, ok
}

func (u PlayerUniverse) Contains(name string) bool {
	_, ok := u.position[name]
	return ok
}

// Dataset is the output of a load: the player universe and the enriched
// matches in input order. It is not modified after construction.
type Dataset struct {
	Players PlayerUniverse
	Matches []Match
}

// Result returns the derived values of player in match m. ok is false when
// the player is not part of the universe.
func (d *Dataset) Result(m Match, player string) (PlayerResult, bool) {
	i, ok := d.Players.Index(player)
	if !ok || i >= len(m.Results) {
		return PlayerResult{}, false
	}
	return m.Results[i], true
}

// Filter returns the matches for which keep returns true, in order.
func (d *Dataset) Filter(keep func(Match) bool) []Match {
	out := make([]Match, 0)
	for _, m := range d.Matches {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}

func (d *Dataset) Games() []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, m := range d.Matches {
		if _, ok := seen[m.Game]; ok {
			continue
		}
		seen[m.Game] = struct{}{}
		out = append(out, m.Game)
	}
	sort.Strings(out)
	return out
}

func (d *Dataset) Versions(game string) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, m := range d.Matches {
		if m.Game != game {
			continue
		}
		if _, ok := seen[m.Version]; ok {
			continue
		}
		seen[m.Version] = struct{}{}
		out = append(out, m.Version)
	}
	sort.Strings(out)
	return out
}

type RunStatus string

const (
	RunImported  RunStatus = "imported"
	RunUnchanged RunStatus = "unchanged"
	RunFailed    RunStatus = "failed"
)

// RunRecord is one entry of the import ledger.
type RunRecord struct {
	ID        int       `json:"id"`
	TraceID   string    `json:"traceId"`
	Source    string    `json:"source"`
	Hash      string    `json:"hash"`
	Matches   int       `json:"matches"`
	Players   int       `json:"players"`
	Status    RunStatus `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt string    `json:"createdAt"`
}
