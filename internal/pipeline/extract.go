package pipeline

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jhillyerd/enmime"
	"github.com/xuri/excelize/v2"

	"boardgame/internal"
	"boardgame/internal/util"
)

const (
	ColDate    = "date"
	ColPlayers = "players"
	ColGame    = "game"
	ColVersion = "version"
	ColScores  = "scores"
	ColWinner  = "winner"
)

var RequiredColumns = []string{ColDate, ColPlayers, ColGame, ColVersion, ColScores, ColWinner}

// ParseTable checks the table shape and reads every data row into a
// RawMatch. Fully empty rows are skipped.
func ParseTable(t internal.Table) ([]internal.RawMatch, error) {
	idx := map[string]int{}
	for i, c := range t.Columns {
		name := util.NormalizeHeader(c)
		if _, dup := idx[name]; !dup {
			idx[name] = i
		}
	}

	missing := []string{}
	for _, col := range RequiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}

	out := make([]internal.RawMatch, 0, len(t.Rows))
	for i, row := range t.Rows {
		if isEmptyRow(row) {
			continue
		}
		rowNo := i + 1
		cell := func(col string) string {
			return pickCell(row, idx[col])
		}

		rawDate := cell(ColDate)
		date, err := util.ParseMatchDate(rawDate)
		if err != nil {
			return nil, &ParseError{Row: rowNo, Field: ColDate, Value: rawDate, Reason: err.Error()}
		}

		out = append(out, internal.RawMatch{
			RowNo:   rowNo,
			Date:    date,
			Players: cell(ColPlayers),
			Game:    cell(ColGame),
			Version: cell(ColVersion),
			Scores:  cell(ColScores),
			Winner:  cell(ColWinner),
		})
	}
	return out, nil
}

func parseXLSX(content []byte, sheet string) (internal.Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return internal.Table{}, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return internal.Table{}, errors.New("workbook has no sheets")
	}
	if sheet == "" {
		sheet = sheets[0]
	} else if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		return internal.Table{}, fmt.Errorf("sheet %q not found", sheet)
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return internal.Table{}, err
	}
	t := tableFromRows(rows)
	t.Sheet = sheet
	return t, nil
}

func parseCSV(content []byte) (internal.Table, error) {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	if firstLine, _, _ := bytes.Cut(content, []byte("\n")); bytes.Count(firstLine, []byte(";")) > bytes.Count(firstLine, []byte(",")) {
		r.Comma = ';'
	}

	rows := [][]string{}
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return internal.Table{}, err
		}
		rows = append(rows, record)
	}
	return tableFromRows(rows), nil
}

// parseHTMLTable reads the first table whose header row names the required
// columns, falling back to the first table of the document.
func parseHTMLTable(html string) (internal.Table, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return internal.Table{}, err
	}

	var tables []internal.Table
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		rows := [][]string{}
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			cells := []string{}
			row.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, util.NormalizeSpaces(cell.Text()))
			})
			rows = append(rows, cells)
		})
		tables = append(tables, tableFromRows(rows))
	})

	if len(tables) == 0 {
		return internal.Table{}, errors.New("no table found in html")
	}
	for _, t := range tables {
		if hasColumns(t.Columns, RequiredColumns) {
			return t, nil
		}
	}
	return tables[0], nil
}

// parseEML reads the first spreadsheet attached to an e-mail, or a table in
// its HTML body when nothing is attached.
func parseEML(raw []byte, sheet string) (internal.Table, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return internal.Table{}, err
	}

	for _, att := range env.Attachments {
		name := strings.ToLower(strings.TrimSpace(att.FileName))
		switch {
		case strings.HasSuffix(name, ".xlsx") || strings.HasSuffix(name, ".xlsm"):
			t, err := parseXLSX(att.Content, sheet)
			if err != nil {
				return internal.Table{}, fmt.Errorf("attachment %s: %w", att.FileName, err)
			}
			return t, nil
		case strings.HasSuffix(name, ".csv"):
			t, err := parseCSV(att.Content)
			if err != nil {
				return internal.Table{}, fmt.Errorf("attachment %s: %w", att.FileName, err)
			}
			return t, nil
		}
	}

	if strings.Contains(strings.ToLower(env.HTML), "<table") {
		return parseHTMLTable(env.HTML)
	}
	return internal.Table{}, errors.New("no spreadsheet attachment in e-mail")
}

// tableFromRows uses the first non-empty row as header.
func tableFromRows(rows [][]string) internal.Table {
	t := internal.Table{}
	for i, row := range rows {
		if isEmptyRow(row) {
			continue
		}
		t.Columns = normalizeCells(row)
		t.Rows = rows[i+1:]
		break
	}
	return t
}

func hasColumns(headers []string, required []string) bool {
	have := map[string]struct{}{}
	for _, h := range headers {
		have[util.NormalizeHeader(h)] = struct{}{}
	}
	for _, col := range required {
		if _, ok := have[col]; !ok {
			return false
		}
	}
	return true
}

func pickCell(cells []string, idx int) string {
	if idx >= 0 && idx < len(cells) {
		return strings.TrimSpace(cells[idx])
	}
	return ""
}

func isEmptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func normalizeCells(row []string) []string {
	out := make([]string, 0, len(row))
	for _, c := range row {
		out = append(out, util.NormalizeSpaces(c))
	}
	return out
}
