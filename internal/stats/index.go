package stats

import (
	"sort"
	"time"

	"boardgame/internal"
	"boardgame/internal/util"
)

// Index groups match positions of a dataset by game, day and player so the
// statistics below do not rescan the whole log for every question.
type Index struct {
	ds       *internal.Dataset
	ByGame   map[string][]int
	ByDay    map[string][]int
	ByPlayer map[string][]int
	Days     []time.Time
}

func BuildIndex(ds *internal.Dataset) *Index {
	idx := &Index{
		ds:       ds,
		ByGame:   map[string][]int{},
		ByDay:    map[string][]int{},
		ByPlayer: map[string][]int{},
	}

	for i, m := range ds.Matches {
		idx.ByGame[m.Game] = append(idx.ByGame[m.Game], i)

		day := util.FormatDate(m.Date)
		if _, ok := idx.ByDay[day]; !ok {
			idx.Days = append(idx.Days, m.Date)
		}
		idx.ByDay[day] = append(idx.ByDay[day], i)

		for pos, r := range m.Results {
			if r.Played {
				name := ds.Players.Name(pos)
				idx.ByPlayer[name] = append(idx.ByPlayer[name], i)
			}
		}
	}

	sort.Slice(idx.Days, func(a, b int) bool { return idx.Days[a].Before(idx.Days[b]) })
	return idx
}

func (idx *Index) Matches(positions []int) []internal.Match {
	out := make([]internal.Match, 0, len(positions))
	for _, i := range positions {
		out = append(out, idx.ds.Matches[i])
	}
	return out
}

func (idx *Index) OnDay(day time.Time) []internal.Match {
	return idx.Matches(idx.ByDay[util.FormatDate(day)])
}
