package stats

import (
	"math"
	"sort"

	"boardgame/internal"
)

type HeadToHeadResult struct {
	PlayerOne  string   `json:"playerOne"`
	PlayerTwo  string   `json:"playerTwo"`
	Matches    int      `json:"matches"`
	WinsOne    int      `json:"winsOne"`
	WinsTwo    int      `json:"winsTwo"`
	Winners    []string `json:"winners"`
	Tie        bool     `json:"tie"`
	Percentage float64  `json:"percentage"`
	Games      []string `json:"games"`
}

type HeadToHeadLine struct {
	Player  string `json:"player"`
	Average int    `json:"average"`
	Min     int    `json:"min"`
	Max     int    `json:"max"`
	Number  int    `json:"number"`
}

type ScorePair struct {
	Index    int `json:"index"`
	ScoreOne int `json:"scoreOne"`
	ScoreTwo int `json:"scoreTwo"`
}

type HeadToHeadGameResult struct {
	Game        string           `json:"game"`
	Lines       []HeadToHeadLine `json:"lines"`
	Progression []ScorePair      `json:"progression"`
}

// duel returns the two-player matches in which p1 and p2 both played.
func duel(ds *internal.Dataset, p1, p2 string) ([]internal.Match, int, int, error) {
	if err := requirePlayer(ds, p1); err != nil {
		return nil, 0, 0, err
	}
	if err := requirePlayer(ds, p2); err != nil {
		return nil, 0, 0, err
	}
	if p1 == p2 {
		return nil, 0, 0, ErrSamePlayer
	}
	i1, _ := ds.Players.Index(p1)
	i2, _ := ds.Players.Index(p2)
	matches := ds.Filter(func(m internal.Match) bool {
		return m.NrPlayers == 2 && m.Results[i1].Played && m.Results[i2].Played
	})
	if len(matches) == 0 {
		return nil, 0, 0, ErrNoHeadToHead
	}
	return matches, i1, i2, nil
}

// HeadToHead counts wins of p1 and p2 against each other. The player with
// more wins is the winner; equal counts are a tie with both as winners.
func HeadToHead(ds *internal.Dataset, p1, p2 string) (HeadToHeadResult, error) {
	matches, i1, i2, err := duel(ds, p1, p2)
	if err != nil {
		return HeadToHeadResult{}, err
	}

	out := HeadToHeadResult{PlayerOne: p1, PlayerTwo: p2, Matches: len(matches)}
	games := map[string]struct{}{}
	for _, m := range matches {
		if m.Results[i1].Winner {
			out.WinsOne++
		}
		if m.Results[i2].Winner {
			out.WinsTwo++
		}
		games[m.Game] = struct{}{}
	}
	for g := range games {
		out.Games = append(out.Games, g)
	}
	sort.Strings(out.Games)

	best := out.WinsOne
	switch {
	case out.WinsOne > out.WinsTwo:
		out.Winners = []string{p1}
	case out.WinsTwo > out.WinsOne:
		out.Winners = []string{p2}
		best = out.WinsTwo
	default:
		out.Winners = []string{p1, p2}
		out.Tie = true
	}
	out.Percentage = round(float64(best)/float64(out.Matches)*100, 2)
	return out, nil
}

// HeadToHeadGame compares the scores of p1 and p2 in their two-player
// matches of game.
func HeadToHeadGame(ds *internal.Dataset, p1, p2, game string) (HeadToHeadGameResult, error) {
	if err := requireGame(BuildIndex(ds), game); err != nil {
		return HeadToHeadGameResult{}, err
	}
	matches, i1, i2, err := duel(ds, p1, p2)
	if err != nil {
		return HeadToHeadGameResult{}, err
	}

	out := HeadToHeadGameResult{Game: game, Progression: []ScorePair{}}
	var one, two []int
	for _, m := range matches {
		if m.Game != game {
			continue
		}
		one = append(one, m.Results[i1].Score)
		two = append(two, m.Results[i2].Score)
		out.Progression = append(out.Progression, ScorePair{
			Index:    len(out.Progression),
			ScoreOne: m.Results[i1].Score,
			ScoreTwo: m.Results[i2].Score,
		})
	}
	if len(one) == 0 {
		return HeadToHeadGameResult{}, ErrNoHeadToHead
	}
	out.Lines = []HeadToHeadLine{line(p1, one), line(p2, two)}
	return out, nil
}

func line(player string, scores []int) HeadToHeadLine {
	l := HeadToHeadLine{Player: player, Number: len(scores), Min: scores[0], Max: scores[0]}
	sum := 0
	for _, s := range scores {
		sum += s
		l.Min = min(l.Min, s)
		l.Max = max(l.Max, s)
	}
	l.Average = int(math.RoundToEven(float64(sum) / float64(len(scores))))
	return l
}
