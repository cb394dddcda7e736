package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"
)

type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"

	SheetName = "Ledger"
)

var ErrUnknownFormat = errors.New("unknown output format")

// Columns is the header shared by the spreadsheet and CSV outputs.
var Columns = []string{
	"Date", "Month", "Year", "Card", "Card Type", "Transaction",
	"Amount", "Credit/Debit", "Sub-Category", "Category",
}

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatXLSX, FormatCSV, FormatJSON:
		return f, nil
	case "xls", "excel":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatCSV:
		return "text/csv"
	}
	return "application/json"
}

func (f Format) Extension() string {
	return "." + string(f)
}

// Write renders entries to w in the given format.
func Write(w io.Writer, entries []Entry, format Format) error {
	switch format {
	case FormatXLSX:
		return WriteXLSX(w, entries)
	case FormatCSV:
		return WriteCSV(w, entries)
	case FormatJSON:
		return WriteJSON(w, entries)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

func row(e Entry) []interface{} {
	return []interface{}{
		e.DateDisplay, e.Month, e.Year, e.Card, e.CardType, e.Transaction,
		e.AmountDisplay, e.Direction, e.SubCategory, e.Category,
	}
}

// WriteXLSX writes a workbook with a single "Ledger" sheet.
func WriteXLSX(w io.Writer, entries []Entry) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, e := range entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row(e)
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func WriteCSV(w io.Writer, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	if err := gocsv.Marshal(&entries, w); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

func WriteJSON(w io.Writer, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(entries)
}
