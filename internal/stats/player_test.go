package stats

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boardgame/internal"
	"boardgame/internal/pipeline"
)

func TestAverageScorePerGame(t *testing.T) {
	averages, err := AverageScorePerGame(sampleDataset(t), "Mike")
	require.NoError(t, err)
	assert.Equal(t, []GameAverage{{"Jaipur", 84}, {"Kingdomino", 37}, {"Qwixx", 88}}, averages)

	_, err = AverageScorePerGame(sampleDataset(t), "Nobody")
	assert.ErrorIs(t, err, ErrUnknownPlayer)
}

func TestPlayerPerformance(t *testing.T) {
	perf, err := PlayerPerformance(sampleDataset(t), "Mike")
	require.NoError(t, err)
	assert.Equal(t, Performance{Player: "Mike", Won: 2, Played: 4, Percentage: 50}, perf)

	perf, err = PlayerPerformance(sampleDataset(t), "Chris")
	require.NoError(t, err)
	assert.Equal(t, 66.7, perf.Percentage)
}

func TestGameSummary(t *testing.T) {
	s, err := GameSummary(sampleDataset(t), "Mike", "Qwixx")
	require.NoError(t, err)
	assert.Equal(t, 77, s.Min)
	assert.Equal(t, 99, s.Max)
	assert.Equal(t, 88.0, s.Mean)
	assert.Equal(t, 88.0, s.Median)
	assert.Equal(t, 2, s.TimesPlayed)
	assert.Equal(t, []int{77, 99}, s.Scores)

	s, err = GameSummary(sampleDataset(t), "Peter", "Jaipur")
	require.NoError(t, err)
	assert.Equal(t, 0, s.TimesPlayed)

	_, err = GameSummary(sampleDataset(t), "Mike", "Chess")
	assert.ErrorIs(t, err, ErrUnknownGame)
}

func TestPlayerStats(t *testing.T) {
	report, err := PlayerStats(sampleDataset(t), "Peter")
	require.NoError(t, err)
	assert.Equal(t, []string{"Kingdomino", "Qwixx"}, report.Games)
	assert.Equal(t, 2, report.Performance.Played)
	assert.Equal(t, 1, report.Performance.Won)
}

func TestSignificanceTestInsufficient(t *testing.T) {
	sig, err := SignificanceTest(sampleDataset(t), "Mike", "Qwixx", 15, 0.05)
	require.NoError(t, err)
	assert.True(t, sig.Insufficient)
	assert.False(t, sig.Significant)
	assert.Equal(t, 2, sig.N)
	assert.Equal(t, 59.5, sig.ReferenceMean)
}

func TestSignificanceTestDetectsDifference(t *testing.T) {
	rows := []internal.RawMatch{}
	for i := 0; i < 20; i++ {
		rows = append(rows, internal.RawMatch{
			Date:    day("2021-03-01").AddDate(0, 0, i),
			Players: "Ann+Bob",
			Game:    "Azul",
			Scores:  fmt.Sprintf("Ann%d+Bob10", 100+i),
			Winner:  "Ann",
		})
	}
	ds, err := pipeline.Normalize(rows)
	require.NoError(t, err)

	sig, err := SignificanceTest(ds, "Ann", "Azul", 15, 0.05)
	require.NoError(t, err)
	assert.False(t, sig.Insufficient)
	assert.Equal(t, 20, sig.N)
	assert.Equal(t, 10.0, sig.ReferenceMean)
	assert.Equal(t, 0.0, sig.Statistic)
	assert.Less(t, sig.PValue, 0.001)
	assert.True(t, sig.Significant)
}
