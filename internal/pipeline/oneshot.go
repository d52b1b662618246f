package pipeline

import (
	"fmt"

	"boardgame/internal"
)

// ExtractTable reads blob as the given input type. sheet selects the xlsx
// worksheet; empty means the first one.
func ExtractTable(inputType InputType, blob []byte, sheet string) (internal.Table, error) {
	switch inputType {
	case InputXLSX:
		return parseXLSX(blob, sheet)
	case InputCSV:
		return parseCSV(blob)
	case InputHTML:
		return parseHTMLTable(string(blob))
	case InputEML:
		return parseEML(blob, sheet)
	case InputXLS:
		return internal.Table{}, ErrLegacyXLS
	default:
		return internal.Table{}, fmt.Errorf("unsupported input type: %s", inputType)
	}
}
