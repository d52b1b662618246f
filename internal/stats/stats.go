// Package stats answers the questions of the match dashboard: activity over
// time, per-player results, head-to-head records and per-game extremes. All
// functions are pure over a *internal.Dataset.
package stats

import (
	"errors"
	"fmt"
	"math"

	"boardgame/internal"
)

var (
	ErrUnknownPlayer  = errors.New("unknown player")
	ErrUnknownGame    = errors.New("unknown game")
	ErrUnknownVersion = errors.New("unknown version")
	ErrSamePlayer     = errors.New("head to head needs two different players")
	ErrNoHeadToHead   = errors.New("no two-player matches between these players")
	ErrInvalidOrder   = errors.New("order must be amount or name")
)

func requirePlayer(ds *internal.Dataset, player string) error {
	if !ds.Players.Contains(player) {
		return fmt.Errorf("%w: %s", ErrUnknownPlayer, player)
	}
	return nil
}

func requireGame(idx *Index, game string) error {
	if _, ok := idx.ByGame[game]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownGame, game)
	}
	return nil
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
