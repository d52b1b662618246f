package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"boardgame/internal"
	"boardgame/internal/config"
	"boardgame/internal/logging"
	"boardgame/internal/pipeline"
	"boardgame/internal/stats"
	"boardgame/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)
	ctx := context.Background()

	cmd := os.Args[1]
	switch cmd {
	case "load":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		source := fs.String("source", cfg.MatchesSource, "path or http(s) url of the match log")
		inType := fs.String("type", "", "xlsx|csv|html|eml (detected when empty)")
		_ = fs.Parse(os.Args[2:])
		ds := loadSource(ctx, cfg, logger, *source, *inType)
		fmt.Printf("load done source=%s matches=%d players=%d\n", *source, len(ds.Matches), ds.Players.Len())
	case "import":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		source := fs.String("source", cfg.MatchesSource, "path or http(s) url of the match log")
		force := fs.Bool("force", false, "import even when the source is unchanged")
		_ = fs.Parse(os.Args[2:])
		db, err := storage.Open(cfg.DBPath)
		must(err)
		defer db.Close()
		res, err := pipeline.NewLoadService(db, cfg, logger).Import(ctx, *source, *force)
		must(err)
		fmt.Printf("import done status=%s trace=%s matches=%d players=%d\n", res.Status, res.TraceID, res.Matches, res.Players)
	case "players":
		fs, opts := datasetFlags(cmd, cfg)
		_ = fs.Parse(os.Args[2:])
		ds := opts.dataset(ctx, cfg, logger)
		printJSON(map[string]any{"players": ds.Players.Names()})
	case "export:xlsx":
		fs, opts := datasetFlags(cmd, cfg)
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*out) == "" {
			*out = filepath.Join(cfg.OutputDir, "matches-wide.xlsx")
		}
		ds := opts.dataset(ctx, cfg, logger)
		must(pipeline.ExportDatasetToXLSX(ds, *out))
		fmt.Printf("exported %d matches to %s\n", len(ds.Matches), *out)
	case "stats:general":
		fs, opts := datasetFlags(cmd, cfg)
		order := fs.String("order", "amount", "amount|name")
		_ = fs.Parse(os.Args[2:])
		ds := opts.dataset(ctx, cfg, logger)
		g := stats.GeneralStats(ds, cfg.BreaksTopN, cfg.ActivityBucketDays)
		games, err := stats.GamesPlayed(ds, *order)
		must(err)
		g.GamesPlayed = games
		printJSON(g)
	case "stats:player":
		fs, opts := datasetFlags(cmd, cfg)
		player := fs.String("player", "", "player name")
		game := fs.String("game", "", "game to explore (optional)")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*player) == "" {
			must(fmt.Errorf("--player is required"))
		}
		ds := opts.dataset(ctx, cfg, logger)
		if *game != "" {
			report, err := stats.PlayerGame(ds, *player, *game, cfg.SignificanceMinMatches, cfg.SignificanceAlpha)
			must(err)
			printJSON(report)
			return
		}
		report, err := stats.PlayerStats(ds, *player)
		must(err)
		printJSON(report)
	case "stats:h2h":
		fs, opts := datasetFlags(cmd, cfg)
		p1 := fs.String("p1", "", "first player")
		p2 := fs.String("p2", "", "second player")
		game := fs.String("game", "", "game (optional)")
		_ = fs.Parse(os.Args[2:])
		if *p1 == "" || *p2 == "" {
			must(fmt.Errorf("--p1 and --p2 are required"))
		}
		ds := opts.dataset(ctx, cfg, logger)
		if *game != "" {
			res, err := stats.HeadToHeadGame(ds, *p1, *p2, *game)
			must(err)
			printJSON(res)
			return
		}
		res, err := stats.HeadToHead(ds, *p1, *p2)
		must(err)
		printJSON(res)
	case "stats:game":
		fs, opts := datasetFlags(cmd, cfg)
		game := fs.String("game", "", "game name (lists games when empty)")
		version := fs.String("version", "", "game version (optional)")
		_ = fs.Parse(os.Args[2:])
		ds := opts.dataset(ctx, cfg, logger)
		if *game == "" {
			printJSON(map[string]any{"games": stats.Games(ds)})
			return
		}
		res, err := stats.ExploreGame(ds, *game, *version, cfg.ActivityBucketDays)
		must(err)
		printJSON(res)
	case "runs":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		limit := fs.Int("limit", 20, "max runs")
		_ = fs.Parse(os.Args[2:])
		db, err := storage.Open(cfg.DBPath)
		must(err)
		defer db.Close()
		runs, err := db.ListRuns(*limit)
		must(err)
		printJSON(map[string]any{"runs": runs})
	default:
		usage()
		os.Exit(1)
	}
}

type datasetOptions struct {
	source *string
	inType *string
	fromDB *bool
}

func datasetFlags(cmd string, cfg config.Config) (*flag.FlagSet, datasetOptions) {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	return fs, datasetOptions{
		source: fs.String("source", cfg.MatchesSource, "path or http(s) url of the match log"),
		inType: fs.String("type", "", "xlsx|csv|html|eml (detected when empty)"),
		fromDB: fs.Bool("db", false, "use the last imported dataset instead of --source"),
	}
}

func (o datasetOptions) dataset(ctx context.Context, cfg config.Config, logger *log.Logger) *internal.Dataset {
	if *o.fromDB {
		db, err := storage.Open(cfg.DBPath)
		must(err)
		defer db.Close()
		ds, err := db.LoadDataset()
		must(err)
		return ds
	}
	return loadSource(ctx, cfg, logger, *o.source, *o.inType)
}

func loadSource(ctx context.Context, cfg config.Config, logger *log.Logger, source, inType string) *internal.Dataset {
	var t pipeline.InputType
	if inType != "" {
		var err error
		t, err = pipeline.ParseInputType(inType)
		must(err)
	}
	ds, err := pipeline.NewLoadService(nil, cfg, logger).LoadAs(ctx, source, t)
	must(err)
	return ds
}

func printJSON(v any) {
	blob, err := json.MarshalIndent(v, "", "  ")
	must(err)
	fmt.Println(string(blob))
}

func usage() {
	fmt.Println("usage: boardgame <command>")
	fmt.Println("commands:")
	fmt.Println("  load --source=./matches.xlsx [--type=xlsx|csv|html|eml]")
	fmt.Println("  import --source=... [--force]")
	fmt.Println("  players [--source=... | --db]")
	fmt.Println("  export:xlsx [--source=... | --db] --out=./out/matches-wide.xlsx")
	fmt.Println("  stats:general [--source=... | --db] [--order=amount|name]")
	fmt.Println("  stats:player --player=Mike [--game=Qwixx] [--source=... | --db]")
	fmt.Println("  stats:h2h --p1=Mike --p2=Chris [--game=Jaipur] [--source=... | --db]")
	fmt.Println("  stats:game [--game=Qwixx] [--version=Normal] [--source=... | --db]")
	fmt.Println("  runs [--limit=20]")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
