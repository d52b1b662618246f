package pipeline

import (
	"bytes"
	"fmt"
	"net/url"
	"path"
	"strings"
)

type InputType string

const (
	InputXLSX InputType = "xlsx"
	InputCSV  InputType = "csv"
	InputHTML InputType = "html"
	InputEML  InputType = "eml"
	InputXLS  InputType = "xls"
)

// BIFF workbooks are OLE2 compound files.
var oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

var mailHeaderProbes = []string{"mime-version:", "subject:", "from:", "message-id:", "content-type: multipart"}

func ParseInputType(value string) (InputType, error) {
	switch t := InputType(strings.ToLower(strings.TrimSpace(value))); t {
	case InputXLSX, InputCSV, InputHTML, InputEML, InputXLS:
		return t, nil
	case "xlsm":
		return InputXLSX, nil
	case "htm":
		return InputHTML, nil
	default:
		return "", fmt.Errorf("unsupported input type: %s", value)
	}
}

// DetectInputType guesses the format from the source name, then from the
// content itself. CSV is the fallback.
func DetectInputType(name string, blob []byte) InputType {
	switch strings.ToLower(path.Ext(sourcePath(name))) {
	case ".xlsx", ".xlsm":
		return InputXLSX
	case ".xls":
		return InputXLS
	case ".csv":
		return InputCSV
	case ".html", ".htm":
		return InputHTML
	case ".eml":
		return InputEML
	}

	if bytes.HasPrefix(blob, []byte("PK\x03\x04")) {
		return InputXLSX
	}
	if bytes.HasPrefix(blob, oleMagic) {
		return InputXLS
	}

	head := blob
	if len(head) > 4096 {
		head = head[:4096]
	}
	lower := strings.ToLower(string(head))

	// Mail headers come first: an e-mail with an HTML body is still an e-mail.
	headers := strings.ReplaceAll(lower, "\r\n", "\n")
	if i := strings.Index(headers, "\n\n"); i >= 0 {
		headers = headers[:i]
	}
	hits := 0
	for _, probe := range mailHeaderProbes {
		if strings.Contains(headers, probe) {
			hits++
		}
	}
	if hits >= 2 {
		return InputEML
	}

	trimmed := strings.TrimSpace(lower)
	if strings.HasPrefix(trimmed, "<!doctype html") || strings.Contains(lower, "<html") || strings.Contains(lower, "<table") {
		return InputHTML
	}
	return InputCSV
}

// sourcePath drops the query of URLs so "matches.xlsx?raw=true" keeps its
// extension.
func sourcePath(name string) string {
	if u, err := url.Parse(name); err == nil && u.Scheme != "" && u.Host != "" {
		return u.Path
	}
	return name
}
