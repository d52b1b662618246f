package stats

import (
	"sort"
	"strings"
	"time"

	"boardgame/internal"
	"boardgame/internal/util"
)

type GameCount struct {
	Game  string `json:"game"`
	Count int    `json:"count"`
}

type Break struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Days  int       `json:"days"`
}

type Chain struct {
	Days  int       `json:"days"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type BusiestDay struct {
	Date    time.Time `json:"date"`
	Matches int       `json:"matches"`
	Players []string  `json:"players"`
}

type ActivityBucket struct {
	Start   time.Time `json:"start"`
	Matches int       `json:"matches"`
}

type General struct {
	Matches            int              `json:"matches"`
	Players            int              `json:"players"`
	GamesPlayed        []GameCount      `json:"gamesPlayed"`
	AverageGamesPerDay float64          `json:"averageGamesPerDay"`
	LongestBreaks      []Break          `json:"longestBreaks"`
	LongestChain       Chain            `json:"longestChain"`
	MostGamesOnOneDay  *BusiestDay      `json:"mostGamesOnOneDay,omitempty"`
	Activity           []ActivityBucket `json:"activity"`
}

// GeneralStats collects the overview page in one call.
func GeneralStats(ds *internal.Dataset, breaksTopN, bucketDays int) General {
	games, _ := GamesPlayed(ds, "amount")
	g := General{
		Matches:            len(ds.Matches),
		Players:            ds.Players.Len(),
		GamesPlayed:        games,
		AverageGamesPerDay: AverageGamesPerDay(ds),
		LongestBreaks:      LongestBreaks(ds, breaksTopN),
		LongestChain:       LongestChain(ds),
		Activity:           Activity(ds, bucketDays),
	}
	if day, ok := MostGamesOnOneDay(ds); ok {
		g.MostGamesOnOneDay = &day
	}
	return g
}

// GamesPlayed counts matches per game. orderBy is "amount" (most played
// first, ties by name) or "name".
func GamesPlayed(ds *internal.Dataset, orderBy string) ([]GameCount, error) {
	idx := BuildIndex(ds)
	out := make([]GameCount, 0, len(idx.ByGame))
	for game, positions := range idx.ByGame {
		out = append(out, GameCount{Game: game, Count: len(positions)})
	}

	switch strings.ToLower(strings.TrimSpace(orderBy)) {
	case "", "amount":
		sort.Slice(out, func(i, j int) bool {
			if out[i].Count != out[j].Count {
				return out[i].Count > out[j].Count
			}
			return out[i].Game < out[j].Game
		})
	case "name":
		sort.Slice(out, func(i, j int) bool { return out[i].Game < out[j].Game })
	default:
		return nil, ErrInvalidOrder
	}
	return out, nil
}

// AverageGamesPerDay is the mean number of matches on days with at least one
// match.
func AverageGamesPerDay(ds *internal.Dataset) float64 {
	idx := BuildIndex(ds)
	if len(idx.Days) == 0 {
		return 0
	}
	return round(float64(len(ds.Matches))/float64(len(idx.Days)), 2)
}

// LongestBreaks returns the n largest gaps between consecutive match days.
func LongestBreaks(ds *internal.Dataset, n int) []Break {
	days := BuildIndex(ds).Days
	out := []Break{}
	for i := 0; i+1 < len(days); i++ {
		out = append(out, Break{Start: days[i], End: days[i+1], Days: util.DaysBetween(days[i], days[i+1])})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Days > out[j].Days })
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// LongestChain finds the longest run of consecutive calendar days with at
// least one match. The earliest run wins ties.
func LongestChain(ds *internal.Dataset) Chain {
	days := BuildIndex(ds).Days
	if len(days) == 0 {
		return Chain{}
	}

	best := Chain{Days: 1, Start: days[0], End: days[0]}
	cur := best
	for i := 1; i < len(days); i++ {
		if util.DaysBetween(days[i-1], days[i]) == 1 {
			cur.Days++
			cur.End = days[i]
		} else {
			cur = Chain{Days: 1, Start: days[i], End: days[i]}
		}
		if cur.Days > best.Days {
			best = cur
		}
	}
	return best
}

// MostGamesOnOneDay returns the day with the most matches, the earliest on
// ties, with everyone who played that day in universe order.
func MostGamesOnOneDay(ds *internal.Dataset) (BusiestDay, bool) {
	idx := BuildIndex(ds)
	var best BusiestDay
	found := false
	for _, day := range idx.Days {
		n := len(idx.ByDay[util.FormatDate(day)])
		if !found || n > best.Matches {
			best = BusiestDay{Date: day, Matches: n}
			found = true
		}
	}
	if !found {
		return BusiestDay{}, false
	}

	played := make([]bool, ds.Players.Len())
	for _, m := range idx.OnDay(best.Date) {
		for pos, r := range m.Results {
			if r.Played {
				played[pos] = true
			}
		}
	}
	best.Players = []string{}
	for pos, ok := range played {
		if ok {
			best.Players = append(best.Players, ds.Players.Name(pos))
		}
	}
	return best, true
}

// Activity counts matches in fixed windows of bucketDays starting at the
// first match day. Empty windows are kept.
func Activity(ds *internal.Dataset, bucketDays int) []ActivityBucket {
	return activity(ds.Matches, bucketDays)
}

func activity(matches []internal.Match, bucketDays int) []ActivityBucket {
	if len(matches) == 0 {
		return []ActivityBucket{}
	}
	if bucketDays <= 0 {
		bucketDays = 1
	}

	first, last := matches[0].Date, matches[0].Date
	for _, m := range matches {
		if m.Date.Before(first) {
			first = m.Date
		}
		if m.Date.After(last) {
			last = m.Date
		}
	}

	n := util.DaysBetween(first, last)/bucketDays + 1
	out := make([]ActivityBucket, n)
	for i := range out {
		out[i].Start = first.AddDate(0, 0, i*bucketDays)
	}
	for _, m := range matches {
		out[util.DaysBetween(first, m.Date)/bucketDays].Matches++
	}
	return out
}
