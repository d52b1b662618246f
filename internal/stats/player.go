package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"boardgame/internal"
)

type GameAverage struct {
	Game    string  `json:"game"`
	Average float64 `json:"average"`
}

type ScoreSummary struct {
	Player      string  `json:"player"`
	Game        string  `json:"game"`
	Min         int     `json:"min"`
	Max         int     `json:"max"`
	Mean        float64 `json:"mean"`
	Median      float64 `json:"median"`
	TimesPlayed int     `json:"timesPlayed"`
	Scores      []int   `json:"scores"`
}

type Significance struct {
	Player        string  `json:"player"`
	Game          string  `json:"game"`
	N             int     `json:"n"`
	PlayerMean    float64 `json:"playerMean"`
	ReferenceMean float64 `json:"referenceMean"`
	Statistic     float64 `json:"statistic"`
	PValue        float64 `json:"pValue"`
	Significant   bool    `json:"significant"`
	Insufficient  bool    `json:"insufficient"`
	MinMatches    int     `json:"minMatches"`
}

type Performance struct {
	Player     string  `json:"player"`
	Won        int     `json:"won"`
	Played     int     `json:"played"`
	Percentage float64 `json:"percentage"`
}

type PlayerReport struct {
	Player      string        `json:"player"`
	Games       []string      `json:"games"`
	Averages    []GameAverage `json:"averages"`
	Performance Performance   `json:"performance"`
}

type PlayerGameReport struct {
	Summary      ScoreSummary `json:"summary"`
	Significance Significance `json:"significance"`
}

// playerSelection keeps the scored matches with a winner in which player
// took part.
func playerSelection(ds *internal.Dataset, player string) ([]internal.Match, int) {
	pos, _ := ds.Players.Index(player)
	return ds.Filter(func(m internal.Match) bool {
		return m.HasScore && m.HasWinner && m.Results[pos].Played
	}), pos
}

func PlayerStats(ds *internal.Dataset, player string) (PlayerReport, error) {
	averages, err := AverageScorePerGame(ds, player)
	if err != nil {
		return PlayerReport{}, err
	}
	perf, err := PlayerPerformance(ds, player)
	if err != nil {
		return PlayerReport{}, err
	}
	games := make([]string, 0, len(averages))
	for _, a := range averages {
		games = append(games, a.Game)
	}
	return PlayerReport{Player: player, Games: games, Averages: averages, Performance: perf}, nil
}

// AverageScorePerGame averages the player's scores per game, ordered by game.
func AverageScorePerGame(ds *internal.Dataset, player string) ([]GameAverage, error) {
	if err := requirePlayer(ds, player); err != nil {
		return nil, err
	}
	selection, pos := playerSelection(ds, player)

	byGame := map[string][]float64{}
	for _, m := range selection {
		byGame[m.Game] = append(byGame[m.Game], float64(m.Results[pos].Score))
	}
	out := make([]GameAverage, 0, len(byGame))
	for game, scores := range byGame {
		out = append(out, GameAverage{Game: game, Average: round(stat.Mean(scores, nil), 2)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Game < out[j].Game })
	return out, nil
}

func PlayerGame(ds *internal.Dataset, player, game string, minMatches int, alpha float64) (PlayerGameReport, error) {
	summary, err := GameSummary(ds, player, game)
	if err != nil {
		return PlayerGameReport{}, err
	}
	sig, err := SignificanceTest(ds, player, game, minMatches, alpha)
	if err != nil {
		return PlayerGameReport{}, err
	}
	return PlayerGameReport{Summary: summary, Significance: sig}, nil
}

// GameSummary describes the player's scores for one game in match order.
func GameSummary(ds *internal.Dataset, player, game string) (ScoreSummary, error) {
	if err := requirePlayer(ds, player); err != nil {
		return ScoreSummary{}, err
	}
	if err := requireGame(BuildIndex(ds), game); err != nil {
		return ScoreSummary{}, err
	}

	selection, pos := playerSelection(ds, player)
	out := ScoreSummary{Player: player, Game: game, Scores: []int{}}
	values := []float64{}
	for _, m := range selection {
		if m.Game != game {
			continue
		}
		score := m.Results[pos].Score
		if len(out.Scores) == 0 || score < out.Min {
			out.Min = score
		}
		if len(out.Scores) == 0 || score > out.Max {
			out.Max = score
		}
		out.Scores = append(out.Scores, score)
		values = append(values, float64(score))
	}
	out.TimesPlayed = len(out.Scores)
	if out.TimesPlayed == 0 {
		return out, nil
	}
	out.Mean = round(stat.Mean(values, nil), 2)
	out.Median = median(values)
	return out, nil
}

// SignificanceTest compares the player's scores for game with the mean of
// every other player's non-zero score in the same matches, using a
// one-sample Wilcoxon signed-rank test. At most minMatches matches are
// reported as insufficient.
func SignificanceTest(ds *internal.Dataset, player, game string, minMatches int, alpha float64) (Significance, error) {
	if err := requirePlayer(ds, player); err != nil {
		return Significance{}, err
	}
	if err := requireGame(BuildIndex(ds), game); err != nil {
		return Significance{}, err
	}

	selection, pos := playerSelection(ds, player)
	scores := []float64{}
	others := []float64{}
	for _, m := range selection {
		if m.Game != game {
			continue
		}
		scores = append(scores, float64(m.Results[pos].Score))
		for p, r := range m.Results {
			if p != pos && r.Score != 0 {
				others = append(others, float64(r.Score))
			}
		}
	}

	out := Significance{Player: player, Game: game, N: len(scores), MinMatches: minMatches, PValue: 1}
	if len(scores) > 0 {
		out.PlayerMean = round(stat.Mean(scores, nil), 2)
	}
	if len(scores) <= minMatches || len(others) == 0 {
		out.Insufficient = true
		if len(others) > 0 {
			out.ReferenceMean = round(stat.Mean(others, nil), 2)
		}
		return out, nil
	}

	reference := stat.Mean(others, nil)
	out.ReferenceMean = round(reference, 2)
	diffs := make([]float64, len(scores))
	for i, s := range scores {
		diffs[i] = s - reference
	}

	w, err := WilcoxonSignedRank(diffs)
	if err != nil {
		// every score equals the reference
		out.Insufficient = true
		return out, nil
	}
	out.Statistic = w.Statistic
	out.PValue = w.PValue
	out.Significant = w.PValue < alpha
	return out, nil
}

// PlayerPerformance is the share of selected matches the player won.
func PlayerPerformance(ds *internal.Dataset, player string) (Performance, error) {
	if err := requirePlayer(ds, player); err != nil {
		return Performance{}, err
	}
	selection, pos := playerSelection(ds, player)
	out := Performance{Player: player, Played: len(selection)}
	for _, m := range selection {
		if m.Results[pos].Winner {
			out.Won++
		}
	}
	if out.Played > 0 {
		out.Percentage = round(float64(out.Won)/float64(out.Played)*100, 1)
	}
	return out, nil
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
