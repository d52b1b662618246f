package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"boardgame/internal"
	"boardgame/internal/pipeline"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// sampleDataset is the four-row log used across the stats tests.
func sampleDataset(t *testing.T) *internal.Dataset {
	t.Helper()
	ds, err := pipeline.Normalize([]internal.RawMatch{
		{Date: day("2018-11-18"), Players: "Peter+Mike", Game: "Qwixx", Version: "Normal", Scores: "Peter77+Mike77", Winner: "Peter+Mike"},
		{Date: day("2018-11-18"), Players: "Chris+Mike", Game: "Qwixx", Version: "Big Points", Scores: "Chris42+Mike99", Winner: "Mike"},
		{Date: day("2018-11-22"), Players: "Mike+Chris", Game: "Jaipur", Version: "Normal", Scores: "Mike84+Chris91", Winner: "Chris"},
		{Date: day("2018-11-30"), Players: "Peter+Chris+Mike", Game: "Kingdomino", Version: "5x5", Scores: "Chris43+Mike37+Peter35", Winner: "Chris"},
	})
	require.NoError(t, err)
	return ds
}
