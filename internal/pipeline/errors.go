package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSchema = errors.New("schema error")
	ErrParse  = errors.New("parse error")

	ErrLegacyXLS = errors.New("legacy .xls workbooks are not supported, save the file as .xlsx")
)

// SchemaError reports required columns missing from the input table.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error: missing column(s) %s", strings.Join(e.Missing, ", "))
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// ParseError reports a cell that could not be decomposed. Row is the 1-based
// data row (the header is not counted).
type ParseError struct {
	Row    int
	Field  string
	Value  string
	Reason string
	Hint   string
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("parse error: row %d %s %q: %s", e.Row, e.Field, e.Value, e.Reason)
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

func (e *ParseError) Unwrap() error { return ErrParse }

// LoadError wraps every failure of a load with the source it came from.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// FormatTips describes the expected input, shown next to a failed load.
const FormatTips = `Expected a spreadsheet (xlsx, csv or html table) with the columns
Date, Players, Game, Scores, Winner, Version, for example:

  Date        Players           Game        Scores                  Winner      Version
  2018-11-18  Peter+Mike        Qwixx       Peter77+Mike77          Peter+Mike  Normal
  2018-11-18  Chris+Mike        Qwixx       Chris42+Mike99          Mike        Big Points
  2018-11-22  Mike+Chris        Jaipur      Mike84+Chris91          Chris       Normal
  2018-11-30  Peter+Chris+Mike  Kingdomino  Chris43+Mike37+Peter35  Chris       5x5`
