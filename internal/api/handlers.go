package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"boardgame/internal"
	"boardgame/internal/pipeline"
	"boardgame/internal/stats"
	"boardgame/internal/util"
)

type matchView struct {
	Row       int                              `json:"row"`
	Date      string                           `json:"date"`
	Players   string                           `json:"players"`
	Game      string                           `json:"game"`
	Version   string                           `json:"version"`
	Scores    string                           `json:"scores"`
	Winner    string                           `json:"winner"`
	HasScore  bool                             `json:"hasScore"`
	HasWinner bool                             `json:"hasWinner"`
	NrPlayers int                              `json:"nrPlayers"`
	Results   map[string]internal.PlayerResult `json:"results"`
}

type gameView struct {
	Game     string   `json:"game"`
	Matches  int      `json:"matches"`
	Versions []string `json:"versions"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	ds, err := s.provider.Current()
	if err != nil {
		writeJSONResponse(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"error":  err.Error(),
			"tips":   pipeline.FormatTips,
		})
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"matches": len(ds.Matches),
		"players": ds.Players.Len(),
	})
}

func (s *Server) listPlayers(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.dataset(w)
	if !ok {
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"players": ds.Players.Names()})
}

func (s *Server) listMatches(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.dataset(w)
	if !ok {
		return
	}

	game := strings.TrimSpace(r.URL.Query().Get("game"))
	player := strings.TrimSpace(r.URL.Query().Get("player"))
	if game != "" && !slices.Contains(ds.Games(), game) {
		writeErrorResponse(w, http.StatusNotFound, "unknown game: "+game)
		return
	}
	pos := -1
	if player != "" {
		i, known := ds.Players.Index(player)
		if !known {
			writeErrorResponse(w, http.StatusNotFound, "unknown player: "+player)
			return
		}
		pos = i
	}

	names := ds.Players.Names()
	out := []matchView{}
	for _, m := range ds.Matches {
		if game != "" && m.Game != game {
			continue
		}
		if pos >= 0 && !m.Results[pos].Played {
			continue
		}
		v := matchView{
			Row:       m.RowNo,
			Date:      util.FormatDate(m.Date),
			Players:   m.Players,
			Game:      m.Game,
			Version:   m.Version,
			Scores:    m.Scores,
			Winner:    m.Winner,
			HasScore:  m.HasScore,
			HasWinner: m.HasWinner,
			NrPlayers: m.NrPlayers,
			Results:   make(map[string]internal.PlayerResult, len(names)),
		}
		for i, name := range names {
			v.Results[name] = m.Results[i]
		}
		out = append(out, v)
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"matches": out})
}

func (s *Server) general(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.dataset(w)
	if !ok {
		return
	}
	g := stats.GeneralStats(ds, s.cfg.BreaksTopN, s.cfg.ActivityBucketDays)
	if order := r.URL.Query().Get("order"); order != "" {
		games, err := stats.GamesPlayed(ds, order)
		if err != nil {
			writeStatsError(w, err)
			return
		}
		g.GamesPlayed = games
	}
	writeJSONResponse(w, http.StatusOK, g)
}

func (s *Server) playerStats(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.dataset(w)
	if !ok {
		return
	}
	report, err := stats.PlayerStats(ds, pathParam(r, "player"))
	if err != nil {
		writeStatsError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, report)
}

func (s *Server) playerGame(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.dataset(w)
	if !ok {
		return
	}
	report, err := stats.PlayerGame(ds, pathParam(r, "player"), pathParam(r, "game"), s.cfg.SignificanceMinMatches, s.cfg.SignificanceAlpha)
	if err != nil {
		writeStatsError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, report)
}

func (s *Server) headToHead(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.dataset(w)
	if !ok {
		return
	}
	q := r.URL.Query()
	p1, p2 := strings.TrimSpace(q.Get("p1")), strings.TrimSpace(q.Get("p2"))
	if p1 == "" || p2 == "" {
		writeErrorResponse(w, http.StatusBadRequest, "p1 and p2 are required")
		return
	}

	if game := strings.TrimSpace(q.Get("game")); game != "" {
		res, err := stats.HeadToHeadGame(ds, p1, p2, game)
		if err != nil {
			writeStatsError(w, err)
			return
		}
		writeJSONResponse(w, http.StatusOK, res)
		return
	}

	res, err := stats.HeadToHead(ds, p1, p2)
	if err != nil {
		writeStatsError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, res)
}

func (s *Server) listGames(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.dataset(w)
	if !ok {
		return
	}
	counts, _ := stats.GamesPlayed(ds, "name")
	out := make([]gameView, 0, len(counts))
	for _, c := range counts {
		out = append(out, gameView{Game: c.Game, Matches: c.Count, Versions: ds.Versions(c.Game)})
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"games": out})
}

func (s *Server) exploreGame(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.dataset(w)
	if !ok {
		return
	}
	version := strings.TrimSpace(r.URL.Query().Get("version"))
	res, err := stats.ExploreGame(ds, pathParam(r, "game"), version, s.cfg.ActivityBucketDays)
	if err != nil {
		writeStatsError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, res)
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeErrorResponse(w, http.StatusNotFound, "no run ledger attached")
		return
	}
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 50
	}
	runs, err := s.runs.ListRuns(limit)
	if err != nil {
		s.logger.Error("list runs", "err", err)
		writeErrorResponse(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) dataset(w http.ResponseWriter) (*internal.Dataset, bool) {
	ds, err := s.provider.Current()
	if err != nil {
		writeErrorResponse(w, http.StatusServiceUnavailable, err.Error())
		return nil, false
	}
	return ds, true
}

func pathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

func writeStatsError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, stats.ErrUnknownPlayer),
		errors.Is(err, stats.ErrUnknownGame),
		errors.Is(err, stats.ErrUnknownVersion),
		errors.Is(err, stats.ErrNoHeadToHead):
		writeErrorResponse(w, http.StatusNotFound, err.Error())
	case errors.Is(err, stats.ErrSamePlayer), errors.Is(err, stats.ErrInvalidOrder):
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
	default:
		writeErrorResponse(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	writeJSONResponse(w, statusCode, map[string]string{"error": message})
}
