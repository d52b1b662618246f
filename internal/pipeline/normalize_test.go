package pipeline

import (
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boardgame/internal"
)

var sampleDay = time.Date(2018, 11, 18, 0, 0, 0, 0, time.UTC)

func raw(players, game, scores, winner string) internal.RawMatch {
	return internal.RawMatch{Date: sampleDay, Players: players, Game: game, Version: "Normal", Scores: scores, Winner: winner}
}

func result(t *testing.T, ds *internal.Dataset, row int, player string) internal.PlayerResult {
	t.Helper()
	r, ok := ds.Result(ds.Matches[row], player)
	require.True(t, ok, "player %s not in universe", player)
	return r
}

func TestDiscoverPlayers(t *testing.T) {
	cells := []string{"Peter+Mike", " Chris + Mike ", "Mike+", "", "Anna"}
	got := DiscoverPlayers(cells)
	assert.Equal(t, []string{"Anna", "Chris", "Mike", "Peter"}, got)
	assert.Equal(t, got, DiscoverPlayers(cells))
	assert.Equal(t, got, DiscoverPlayers(got))
}

func TestScenarioTwoWinners(t *testing.T) {
	ds, err := Normalize([]internal.RawMatch{raw("Peter+Mike", "Qwixx", "Peter77+Mike77", "Peter+Mike")})
	require.NoError(t, err)

	assert.Equal(t, internal.PlayerResult{Score: 77, Winner: true, Played: true}, result(t, ds, 0, "Peter"))
	assert.Equal(t, internal.PlayerResult{Score: 77, Winner: true, Played: true}, result(t, ds, 0, "Mike"))
	m := ds.Matches[0]
	assert.True(t, m.HasScore)
	assert.True(t, m.HasWinner)
	assert.Equal(t, 2, m.NrPlayers)
}

func TestScenarioSingleWinner(t *testing.T) {
	ds, err := Normalize([]internal.RawMatch{
		raw("Peter+Mike", "Qwixx", "Peter77+Mike77", "Peter+Mike"),
		raw("Chris+Mike", "Qwixx", "Chris42+Mike99", "Mike"),
	})
	require.NoError(t, err)

	assert.Equal(t, internal.PlayerResult{Score: 42, Winner: false, Played: true}, result(t, ds, 1, "Chris"))
	assert.Equal(t, internal.PlayerResult{Score: 99, Winner: true, Played: true}, result(t, ds, 1, "Mike"))
	assert.Equal(t, internal.PlayerResult{}, result(t, ds, 1, "Peter"))
	assert.True(t, ds.Matches[1].HasWinner)
	assert.Equal(t, 2, ds.Matches[1].NrPlayers)
}

func TestScenarioNoScores(t *testing.T) {
	// none of these is a score cell: no delimiter or no digit
	for _, scores := range []string{"", "n/a", "Peter77", "Peter+Mike"} {
		ds, err := Normalize([]internal.RawMatch{raw("Peter+Mike", "Codenames", scores, "Mike")})
		require.NoError(t, err, scores)
		for _, p := range ds.Players.Names() {
			assert.Equal(t, 0, result(t, ds, 0, p).Score, scores)
		}
		assert.False(t, ds.Matches[0].HasScore, scores)
	}
}

func TestScenarioWinnerWithoutScores(t *testing.T) {
	ds, err := Normalize([]internal.RawMatch{raw("Peter+Chris+Mike", "Codenames", "", "Chris")})
	require.NoError(t, err)

	m := ds.Matches[0]
	assert.Equal(t, 3, m.NrPlayers)
	assert.True(t, result(t, ds, 0, "Chris").Winner)
	assert.False(t, m.HasScore)
	assert.True(t, m.HasWinner)
}

func TestMalformedScoreTokenFailsLoad(t *testing.T) {
	for _, scores := range []string{"77+Mike77", "Peter+Mike77", "Peter77+ +Mike3"} {
		ds, err := Normalize([]internal.RawMatch{
			raw("Peter+Mike", "Qwixx", "Peter1+Mike2", "Mike"),
			raw("Peter+Mike", "Qwixx", scores, "Mike"),
		})
		assert.Nil(t, ds, scores)
		require.Error(t, err, scores)
		assert.True(t, errors.Is(err, ErrParse), scores)

		var perr *ParseError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, 2, perr.Row)
		assert.Equal(t, "scores", perr.Field)
	}
}

func TestUnknownScoreIdentifierIsRejected(t *testing.T) {
	_, err := Normalize([]internal.RawMatch{raw("Peter+Mike", "Qwixx", "Petr77+Mike70", "Peter")})
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "Petr77", perr.Value)
	assert.Contains(t, perr.Reason, `unknown player "Petr"`)
	assert.Equal(t, `did you mean "Peter"?`, perr.Hint)
}

func TestUnknownWinnerIsIgnored(t *testing.T) {
	ds, err := Normalize([]internal.RawMatch{raw("Peter+Mike", "Qwixx", "Peter7+Mike9", "Nobody")})
	require.NoError(t, err)
	assert.False(t, ds.Matches[0].HasWinner)
}

func TestDuplicateScoreTokenLastWins(t *testing.T) {
	ds, err := Normalize([]internal.RawMatch{raw("Peter+Mike", "Qwixx", "Peter7+Mike9+Peter12", "Peter")})
	require.NoError(t, err)
	assert.Equal(t, 12, result(t, ds, 0, "Peter").Score)
}

func TestNormalizeProperties(t *testing.T) {
	rows := []internal.RawMatch{
		raw("Peter+Mike", "Qwixx", "Peter77+Mike77", "Peter+Mike"),
		raw("Chris+Mike", "Qwixx", "Chris42+Mike99", "Mike"),
		raw("Mike+Chris", "Jaipur", "Mike84+Chris91", "Chris"),
		raw("Peter+Chris+Mike", "Kingdomino", "Chris43+Mike37+Peter35", "Chris"),
		raw("Peter+Chris+Mike", "Codenames", "", "Chris"),
		raw("Anna+Peter", "Azul", "Anna0+Peter0", ""),
		raw("Peter++Mike", "Qwixx", "", "Mike"),
		raw("Peter+Mike+", "Qwixx", "", ""),
		raw(" Chris + Anna ", "Azul", "Chris12+Anna9", "Anna"),
	}
	ds, err := Normalize(rows)
	require.NoError(t, err)
	require.Len(t, ds.Matches, len(rows))

	for i, m := range ds.Matches {
		assert.Equal(t, rows[i].Game, m.Game, "order preserved")
		assert.Equal(t, i+1, m.RowNo)
		require.Len(t, m.Results, ds.Players.Len())

		tokens := map[string]bool{}
		for _, p := range DiscoverPlayers([]string{m.Players}) {
			tokens[p] = true
		}
		sum, anyWinner := 0, false
		for _, p := range ds.Players.Names() {
			r := result(t, ds, i, p)
			assert.GreaterOrEqual(t, r.Score, 0)
			assert.Equal(t, tokens[p], r.Played, "row %d player %s", i, p)
			sum += r.Score
			anyWinner = anyWinner || r.Winner
		}
		assert.Equal(t, sum > 0, m.HasScore, "row %d", i)
		assert.Equal(t, anyWinner, m.HasWinner, "row %d", i)
		assert.Equal(t, len(strings.Split(m.Players, "+")), m.NrPlayers, "row %d", i)
	}
	assert.True(t, slices.IsSorted(ds.Players.Names()))
	assert.False(t, ds.Matches[5].HasScore)
	assert.Equal(t, 3, ds.Matches[6].NrPlayers)
	assert.Equal(t, 3, ds.Matches[7].NrPlayers)
}

func TestBlankPlayersIsPartyOfZero(t *testing.T) {
	ds, err := Normalize([]internal.RawMatch{
		raw("Peter+Mike", "Qwixx", "", ""),
		raw("  ", "Qwixx", "", ""),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Matches[0].NrPlayers)
	assert.Equal(t, 0, ds.Matches[1].NrPlayers)
}

func TestPrepareSchemaError(t *testing.T) {
	_, err := Prepare(internal.Table{
		Columns: []string{"Date", "Players", "Game"},
		Rows:    [][]string{{"2018-11-18", "Peter+Mike", "Qwixx"}},
	})
	require.ErrorIs(t, err, ErrSchema)
	var serr *SchemaError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, []string{"version", "scores", "winner"}, serr.Missing)
}

func TestPrepareBadDate(t *testing.T) {
	_, err := Prepare(internal.Table{
		Columns: []string{"Date", "Players", "Game", "Version", "Scores", "Winner"},
		Rows:    [][]string{{"someday", "Peter+Mike", "Qwixx", "", "", ""}},
	})
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "date", perr.Field)
	assert.Equal(t, 1, perr.Row)
}
