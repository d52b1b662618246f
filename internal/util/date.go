package util

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

var (
	serialPattern = regexp.MustCompile(`^\d+(?:\.\d+)?$`)

	dateLayouts = []string{
		"2006-01-02",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		time.RFC3339,
		"02-01-2006",
		"02.01.2006",
		"1/2/2006",
		"1/2/06",
		"01-02-06",
	}
)

// ParseMatchDate reads a calendar date from a spreadsheet cell. Raw xlsx
// cells carry dates as Excel serial numbers; text sources carry formatted
// dates. The time of day is dropped.
func ParseMatchDate(input string) (time.Time, error) {
	value := strings.TrimSpace(strings.ReplaceAll(input, "\u00A0", " "))
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	if serialPattern.MatchString(value) {
		serial, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return time.Time{}, err
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, err
		}
		return truncateDay(t), nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return truncateDay(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}

// DaysBetween counts whole calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(truncateDay(b).Sub(truncateDay(a)).Hours() / 24)
}

func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
