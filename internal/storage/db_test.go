package storage

import (
	"path/filepath"
	"testing"
	"time"

	"boardgame/internal"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testDataset() *internal.Dataset {
	day := time.Date(2018, 11, 18, 0, 0, 0, 0, time.UTC)
	return &internal.Dataset{
		Players: internal.NewPlayerUniverse([]string{"Chris", "Mike"}),
		Matches: []internal.Match{
			{
				RawMatch:  internal.RawMatch{RowNo: 1, Date: day, Players: "Chris+Mike", Game: "Qwixx", Version: "Normal", Scores: "Chris42+Mike99", Winner: "Mike"},
				Results:   []internal.PlayerResult{{Score: 42, Played: true}, {Score: 99, Winner: true, Played: true}},
				HasScore:  true,
				HasWinner: true,
				NrPlayers: 2,
			},
			{
				RawMatch:  internal.RawMatch{RowNo: 3, Date: day.AddDate(0, 0, 4), Players: "Mike", Game: "Solo", Version: "", Scores: "", Winner: ""},
				Results:   []internal.PlayerResult{{}, {Played: true}},
				NrPlayers: 1,
			},
		},
	}
}

func TestSaveAndLoadDataset(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.LoadDataset(); err != ErrNoDataset {
		t.Fatalf("err=%v", err)
	}

	ds := testDataset()
	if err := db.SaveDataset("trace-1", ds); err != nil {
		t.Fatal(err)
	}
	got, err := db.LoadDataset()
	if err != nil {
		t.Fatal(err)
	}
	if names := got.Players.Names(); len(names) != 2 || names[0] != "Chris" || names[1] != "Mike" {
		t.Fatalf("players=%v", names)
	}
	if len(got.Matches) != 2 {
		t.Fatalf("len=%d", len(got.Matches))
	}
	for i := range ds.Matches {
		want, have := ds.Matches[i], got.Matches[i]
		if !want.Date.Equal(have.Date) || want.RowNo != have.RowNo || want.Game != have.Game || want.NrPlayers != have.NrPlayers {
			t.Fatalf("match %d: got %+v want %+v", i, have, want)
		}
		if want.HasScore != have.HasScore || want.HasWinner != have.HasWinner {
			t.Fatalf("match %d flags differ", i)
		}
		for p := range want.Results {
			if want.Results[p] != have.Results[p] {
				t.Fatalf("match %d player %d: got %+v want %+v", i, p, have.Results[p], want.Results[p])
			}
		}
	}

	// a second save replaces everything
	smaller := testDataset()
	smaller.Matches = smaller.Matches[:1]
	if err := db.SaveDataset("trace-2", smaller); err != nil {
		t.Fatal(err)
	}
	got, err = db.LoadDataset()
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Matches) != 1 {
		t.Fatalf("len=%d", len(got.Matches))
	}
}

func TestRunsAndMetadata(t *testing.T) {
	db := openTestDB(t)

	for i, status := range []internal.RunStatus{internal.RunImported, internal.RunUnchanged, internal.RunFailed} {
		run := internal.RunRecord{TraceID: string(rune('a' + i)), Source: "matches.xlsx", Hash: "h", Status: status}
		if status == internal.RunFailed {
			run.Error = "boom"
		}
		if _, err := db.InsertRun(run); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := db.ListRuns(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 || runs[0].Status != internal.RunFailed || runs[0].Error != "boom" || runs[1].TraceID != "b" {
		t.Fatalf("runs=%+v", runs)
	}
	if runs[0].CreatedAt == "" {
		t.Fatal("createdAt not set")
	}

	if h, err := db.LastHash("matches.xlsx"); err != nil || h != "" {
		t.Fatalf("hash=%q err=%v", h, err)
	}
	if err := db.MarkImported("matches.xlsx", "abc", "trace"); err != nil {
		t.Fatal(err)
	}
	if h, _ := db.LastHash("matches.xlsx"); h != "abc" {
		t.Fatalf("hash=%q", h)
	}
	at, source, err := db.LastImport()
	if err != nil || at == "" || source != "matches.xlsx" {
		t.Fatalf("at=%q source=%q err=%v", at, source, err)
	}

	if err := db.MarkImported("other.csv", "def", "trace2"); err != nil {
		t.Fatal(err)
	}
	if h, _ := db.LastHash("matches.xlsx"); h != "" {
		t.Fatalf("hash of replaced source=%q", h)
	}
	if h, _ := db.LastHash("other.csv"); h != "def" {
		t.Fatalf("hash=%q", h)
	}

	if v, err := db.GetMetadata("missing"); err != nil || v != nil {
		t.Fatalf("v=%v err=%v", v, err)
	}
}
