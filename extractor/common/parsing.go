package common

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// StrictDate matches a whole DD/MM/YYYY cell.
	StrictDate = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)
	// AmountPattern matches a decimal amount with exactly two fractional digits and
	// optional thousands separators (western or Indian grouping).
	AmountPattern = regexp.MustCompile(`\d[\d,]*\.\d{2}`)
)

var ErrEmptyAmount = errors.New("empty amount")

// ParseAmount strips thousands separators and surrounding space, then parses text.
func ParseAmount(text string) (decimal.Decimal, error) {
	clean := strings.TrimSpace(strings.ReplaceAll(text, ",", ""))
	if clean == "" {
		return decimal.Zero, ErrEmptyAmount
	}
	return decimal.NewFromString(clean)
}

// ParseDayFirst parses DD/MM/YYYY or DD/MM/YY.
func ParseDayFirst(value string) (time.Time, error) {
	layout := "02/01/2006"
	if len(value) == len("02/01/06") {
		layout = "02/01/06"
	}
	return time.ParseInLocation(layout, value, time.Local)
}

// Cell returns the raw text of cell i, or "" when the row is short or the
// cell is absent.
func Cell(row Row, i int) string {
	if i < 0 || i >= len(row) || row[i] == nil {
		return ""
	}
	return *row[i]
}

// TextRow builds a row where every cell is present.
func TextRow(cells ...string) Row {
	row := make(Row, len(cells))
	for i := range cells {
		row[i] = &cells[i]
	}
	return row
}
