package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boardgame/internal"
	"boardgame/internal/config"
	"boardgame/internal/storage"
)

func TestSmokeXLSXToStoreAndExport(t *testing.T) {
	tmp := t.TempDir()
	db, err := storage.Open(filepath.Join(tmp, "app.db"))
	require.NoError(t, err)
	defer db.Close()

	source := filepath.Join(tmp, "matches.xlsx")
	require.NoError(t, os.WriteFile(source, mkXLSX(sampleRows), 0o644))

	svc := NewLoadService(db, config.Config{}, nil)
	ctx := context.Background()

	res, err := svc.Import(ctx, source, false)
	require.NoError(t, err)
	assert.Equal(t, internal.RunImported, res.Status)
	assert.Equal(t, 4, res.Matches)
	assert.Equal(t, 3, res.Players)
	assert.Len(t, res.TraceID, 36)

	loaded, err := svc.Load(ctx, source)
	require.NoError(t, err)
	stored, err := db.LoadDataset()
	require.NoError(t, err)
	assert.Equal(t, loaded.Players.Names(), stored.Players.Names())
	assert.Equal(t, loaded.Matches, stored.Matches)

	again, err := svc.Import(ctx, source, false)
	require.NoError(t, err)
	assert.Equal(t, internal.RunUnchanged, again.Status)

	forced, err := svc.Import(ctx, source, true)
	require.NoError(t, err)
	assert.Equal(t, internal.RunImported, forced.Status)

	out := filepath.Join(tmp, "out", "wide.xlsx")
	require.NoError(t, ExportDatasetToXLSX(stored, out))
	_, err = os.Stat(out)
	require.NoError(t, err)

	runs, err := db.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, forced.TraceID, runs[0].TraceID)
	assert.Equal(t, res.Hash, runs[2].Hash)
}

func TestImportRecordsFailedRun(t *testing.T) {
	tmp := t.TempDir()
	db, err := storage.Open(filepath.Join(tmp, "app.db"))
	require.NoError(t, err)
	defer db.Close()

	source := filepath.Join(tmp, "matches.csv")
	require.NoError(t, os.WriteFile(source, []byte("Date,Players,Game\n2018-11-18,Peter+Mike,Qwixx\n"), 0o644))

	_, err = NewLoadService(db, config.Config{}, nil).Import(context.Background(), source, false)
	require.Error(t, err)
	var lerr *LoadError
	require.True(t, errors.As(err, &lerr))
	assert.Equal(t, source, lerr.Source)
	assert.ErrorIs(t, err, ErrSchema)

	runs, err := db.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, internal.RunFailed, runs[0].Status)
	assert.Contains(t, runs[0].Error, "missing column")

	_, err = db.LoadDataset()
	assert.ErrorIs(t, err, storage.ErrNoDataset)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewLoadService(nil, config.Config{}, nil).Load(context.Background(), filepath.Join(t.TempDir(), "nope.xlsx"))
	var lerr *LoadError
	require.ErrorAs(t, err, &lerr)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadAsExplicitType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))
	svc := NewLoadService(nil, config.Config{}, nil)

	ds, err := svc.LoadAs(context.Background(), path, InputCSV)
	require.NoError(t, err)
	assert.Len(t, ds.Matches, 2)

	_, err = svc.LoadAs(context.Background(), path, InputXLSX)
	var lerr *LoadError
	assert.ErrorAs(t, err, &lerr)
}

func TestLoadAsFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	ds, err := NewLoadService(nil, config.Config{}, nil).LoadAs(context.Background(), srv.URL+"/download", InputCSV)
	require.NoError(t, err)
	assert.Len(t, ds.Matches, 2)
}

func TestImportArchivesSource(t *testing.T) {
	tmp := t.TempDir()
	db, err := storage.Open(filepath.Join(tmp, "app.db"))
	require.NoError(t, err)
	defer db.Close()

	blob := mkXLSX(sampleRows)
	source := filepath.Join(tmp, "matches.xlsx")
	require.NoError(t, os.WriteFile(source, blob, 0o644))

	svc := NewLoadService(db, config.Config{OutputDir: filepath.Join(tmp, "out")}, nil)
	res, err := svc.Import(context.Background(), source, false)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(tmp, "out", "sources", res.Hash+".xlsx"), res.Archive)
	stored, err := os.ReadFile(res.Archive)
	require.NoError(t, err)
	assert.Equal(t, blob, stored)
}

func TestImportSwitchingSourcesReloadsPrevious(t *testing.T) {
	tmp := t.TempDir()
	db, err := storage.Open(filepath.Join(tmp, "app.db"))
	require.NoError(t, err)
	defer db.Close()

	a := filepath.Join(tmp, "a.csv")
	b := filepath.Join(tmp, "b.csv")
	require.NoError(t, os.WriteFile(a, []byte("Date,Players,Game,Version,Scores,Winner\n2018-11-18,Peter+Mike,Qwixx,Normal,Peter7+Mike9,Mike\n"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("Date,Players,Game,Version,Scores,Winner\n2018-11-19,Anna+Bob,Azul,Normal,Anna30+Bob25,Anna\n2018-11-20,Anna+Bob,Azul,Normal,Anna20+Bob35,Bob\n"), 0o644))

	svc := NewLoadService(db, config.Config{}, nil)
	ctx := context.Background()

	for _, source := range []string{a, b} {
		res, err := svc.Import(ctx, source, false)
		require.NoError(t, err)
		require.Equal(t, internal.RunImported, res.Status)
	}

	res, err := svc.Import(ctx, a, false)
	require.NoError(t, err)
	assert.Equal(t, internal.RunImported, res.Status)

	stored, err := db.LoadDataset()
	require.NoError(t, err)
	assert.Equal(t, []string{"Mike", "Peter"}, stored.Players.Names())
	assert.Len(t, stored.Matches, 1)
}
