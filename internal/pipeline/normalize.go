package pipeline

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"boardgame/internal"
	"boardgame/internal/util"
)

var (
	reLetters = regexp.MustCompile(`\p{L}+`)
	reDigits  = regexp.MustCompile(`\d+`)
)

// DiscoverPlayers returns the sorted, de-duplicated identifiers found in the
// given players cells.
func DiscoverPlayers(players []string) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, cell := range players {
		for _, p := range util.SplitTokens(cell) {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// Normalize expands the raw match log into a Dataset. Any malformed row
// aborts the whole call; no partial dataset is returned.
func Normalize(rows []internal.RawMatch) (*internal.Dataset, error) {
	cells := make([]string, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, r.Players)
	}
	universe := internal.NewPlayerUniverse(DiscoverPlayers(cells))

	matches := make([]internal.Match, 0, len(rows))
	for i, raw := range rows {
		if raw.RowNo == 0 {
			raw.RowNo = i + 1
		}
		m, err := expandRow(raw, universe)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}

	return &internal.Dataset{Players: universe, Matches: matches}, nil
}

// Prepare turns a loaded table into a Dataset.
func Prepare(t internal.Table) (*internal.Dataset, error) {
	rows, err := ParseTable(t)
	if err != nil {
		return nil, err
	}
	return Normalize(rows)
}

func expandRow(raw internal.RawMatch, universe internal.PlayerUniverse) (internal.Match, error) {
	m := internal.Match{
		RawMatch: raw,
		Results:  make([]internal.PlayerResult, universe.Len()),
	}

	scores, err := extractScores(raw, universe)
	if err != nil {
		return internal.Match{}, err
	}
	for i, score := range scores {
		m.Results[i].Score = score
	}

	for _, w := range util.SplitTokens(raw.Winner) {
		if i, ok := universe.Index(w); ok {
			m.Results[i].Winner = true
		}
	}

	for _, p := range util.SplitTokens(raw.Players) {
		if i, ok := universe.Index(p); ok {
			m.Results[i].Played = true
		}
	}

	total := 0
	for _, r := range m.Results {
		total += r.Score
		if r.Winner {
			m.HasWinner = true
		}
	}
	m.HasScore = total > 0
	m.NrPlayers = partySize(raw.Players)

	return m, nil
}

// partySize counts every delimited token of a players cell, recognized or
// not. A blank cell is a party of 0.
func partySize(cell string) int {
	if strings.TrimSpace(cell) == "" {
		return 0
	}
	return len(strings.Split(cell, util.Delimiter))
}

// extractScores maps universe positions to the score recorded in the row.
// Cells without the delimiter or without any digit carry no scores.
func extractScores(raw internal.RawMatch, universe internal.PlayerUniverse) (map[int]int, error) {
	cell := raw.Scores
	if !strings.Contains(cell, util.Delimiter) || !reDigits.MatchString(cell) {
		return nil, nil
	}

	out := map[int]int{}
	for _, token := range strings.Split(cell, util.Delimiter) {
		token = strings.TrimSpace(token)
		name := reLetters.FindString(token)
		digits := reDigits.FindString(token)
		if name == "" || digits == "" {
			return nil, &ParseError{
				Row:    raw.RowNo,
				Field:  "scores",
				Value:  token,
				Reason: "expected <player><score>",
			}
		}

		i, ok := universe.Index(name)
		if !ok {
			perr := &ParseError{
				Row:    raw.RowNo,
				Field:  "scores",
				Value:  token,
				Reason: fmt.Sprintf("unknown player %q", name),
			}
			if guess := util.ClosestMatch(name, universe.Names(), 0.5); guess != "" {
				perr.Hint = fmt.Sprintf("did you mean %q?", guess)
			}
			return nil, perr
		}

		score, err := strconv.Atoi(digits)
		if err != nil {
			return nil, &ParseError{Row: raw.RowNo, Field: "scores", Value: token, Reason: err.Error()}
		}
		out[i] = score
	}
	return out, nil
}
