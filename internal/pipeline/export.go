package pipeline

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"boardgame/internal"
	"boardgame/internal/util"
)

// DatasetHeaders lists the wide-table columns: raw fields, one score/winner/
// played triple per player in universe order, then the row aggregates.
func DatasetHeaders(ds *internal.Dataset) []string {
	headers := []string{"Date", "Players", "Game", "Version", "Scores", "Winner"}
	for _, p := range ds.Players.Names() {
		headers = append(headers, p+"_score", p+"_winner", p+"_played")
	}
	return append(headers, "has_score", "has_winner", "nr_players")
}

func ExportDatasetToXLSX(ds *internal.Dataset, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	for i, h := range DatasetHeaders(ds) {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, m := range ds.Matches {
		r := i + 2
		col := 0
		set := func(value any) {
			col++
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		set(util.FormatDate(m.Date))
		set(m.Players)
		set(m.Game)
		set(m.Version)
		set(m.Scores)
		set(m.Winner)
		for _, res := range m.Results {
			set(res.Score)
			set(flag(res.Winner))
			set(flag(res.Played))
		}
		set(flag(m.HasScore))
		set(flag(m.HasWinner))
		set(m.NrPlayers)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func flag(v bool) int {
	if v {
		return 1
	}
	return 0
}
