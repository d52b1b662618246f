package stats

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"boardgame/internal"
)

type ScoreCount struct {
	Score int `json:"score"`
	Count int `json:"count"`
}

type PlayerCount struct {
	Player  string `json:"player"`
	Matches int    `json:"matches"`
}

type PlayerScore struct {
	Player string  `json:"player"`
	Score  float64 `json:"score"`
}

type Extremes struct {
	HighestScore   PlayerScore `json:"highestScore"`
	HighestAverage PlayerScore `json:"highestAverage"`
	LowestScore    PlayerScore `json:"lowestScore"`
	LowestAverage  PlayerScore `json:"lowestAverage"`
}

type GameExploration struct {
	Game         string           `json:"game"`
	Version      string           `json:"version,omitempty"`
	Versions     []string         `json:"versions"`
	Matches      int              `json:"matches"`
	Distribution []ScoreCount     `json:"distribution"`
	Frequency    []PlayerCount    `json:"frequency"`
	Extremes     *Extremes        `json:"extremes,omitempty"`
	Activity     []ActivityBucket `json:"activity"`
}

func Games(ds *internal.Dataset) []string {
	return ds.Games()
}

func Versions(ds *internal.Dataset, game string) ([]string, error) {
	if err := requireGame(BuildIndex(ds), game); err != nil {
		return nil, err
	}
	return ds.Versions(game), nil
}

// ExploreGame describes the matches of game, narrowed to version when it is
// not empty.
func ExploreGame(ds *internal.Dataset, game, version string, bucketDays int) (GameExploration, error) {
	idx := BuildIndex(ds)
	if err := requireGame(idx, game); err != nil {
		return GameExploration{}, err
	}
	versions := ds.Versions(game)
	if version != "" {
		i := sort.SearchStrings(versions, version)
		if i == len(versions) || versions[i] != version {
			return GameExploration{}, fmt.Errorf("%w: %s %s", ErrUnknownVersion, game, version)
		}
	}

	matches := []internal.Match{}
	for _, m := range idx.Matches(idx.ByGame[game]) {
		if version == "" || m.Version == version {
			matches = append(matches, m)
		}
	}

	out := GameExploration{
		Game:     game,
		Version:  version,
		Versions: versions,
		Matches:  len(matches),
		Activity: activity(matches, bucketDays),
	}
	out.Distribution = distribution(matches)
	out.Frequency = make([]PlayerCount, ds.Players.Len())
	for pos, name := range ds.Players.Names() {
		out.Frequency[pos].Player = name
	}
	for _, m := range matches {
		for pos, r := range m.Results {
			if r.Played {
				out.Frequency[pos].Matches++
			}
		}
	}
	if ext, ok := extremes(ds, matches); ok {
		out.Extremes = &ext
	}
	return out, nil
}

func distribution(matches []internal.Match) []ScoreCount {
	counts := map[int]int{}
	for _, m := range matches {
		for _, r := range m.Results {
			if r.Score != 0 {
				counts[r.Score]++
			}
		}
	}
	out := make([]ScoreCount, 0, len(counts))
	for score, n := range counts {
		out = append(out, ScoreCount{Score: score, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score < out[j].Score })
	return out
}

// extremes scans the score matrix (matches by players) row by row, so the
// first occurrence wins ties. Averages only count non-zero scores.
func extremes(ds *internal.Dataset, matches []internal.Match) (Extremes, bool) {
	n := ds.Players.Len()
	nonzero := make([][]float64, n)

	var ext Extremes
	maxSeen, minSeen := false, false
	for _, m := range matches {
		for pos, r := range m.Results {
			score := float64(r.Score)
			if !maxSeen || score > ext.HighestScore.Score {
				ext.HighestScore = PlayerScore{Player: ds.Players.Name(pos), Score: score}
				maxSeen = true
			}
			if r.Score == 0 {
				continue
			}
			nonzero[pos] = append(nonzero[pos], score)
			if !minSeen || score < ext.LowestScore.Score {
				ext.LowestScore = PlayerScore{Player: ds.Players.Name(pos), Score: score}
				minSeen = true
			}
		}
	}
	if !minSeen {
		return Extremes{}, false
	}

	hi, lo := math.Inf(-1), math.Inf(1)
	for pos, scores := range nonzero {
		if len(scores) == 0 {
			continue
		}
		avg := stat.Mean(scores, nil)
		if avg > hi {
			hi = avg
			ext.HighestAverage = PlayerScore{Player: ds.Players.Name(pos), Score: round(avg, 2)}
		}
		if avg < lo {
			lo = avg
			ext.LowestAverage = PlayerScore{Player: ds.Players.Name(pos), Score: round(avg, 2)}
		}
	}
	return ext, true
}
