// Package pdflayout decodes statement PDFs into the page model the extractors read:
// tables come from unipdf's table detection and text lines from dslipak/pdf rows.
package pdflayout

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/dslipak/pdf"
	"github.com/kwgn/pdfledger/extractor/common"
	"github.com/rs/zerolog"
	"github.com/unidoc/unipdf/v3/common/license"
	unitext "github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
)

var licenseOnce sync.Once

// Reader decodes PDF bytes. LicenseKey is the unidoc metered key; without a valid
// one table detection fails and pages carry the failure in Page.TableErr.
type Reader struct {
	LicenseKey string
	Logger     zerolog.Logger
}

func (r *Reader) applyLicense() {
	if r.LicenseKey == "" {
		return
	}
	licenseOnce.Do(func() {
		if err := license.SetMeteredKey(r.LicenseKey); err != nil {
			r.Logger.Warn().Err(err).Msg("unidoc license rejected")
		}
	})
}

// Decode returns one page per PDF page, in order. A document with no pages is
// common.ErrNoPages.
func (r *Reader) Decode(data []byte) ([]common.Page, error) {
	lines, err := textPages(data)
	if err != nil {
		return nil, fmt.Errorf("read pdf text: %w", err)
	}
	if len(lines) == 0 {
		return nil, common.ErrNoPages
	}

	r.applyLicense()
	tables, err := tablePages(data)
	if err != nil {
		r.Logger.Warn().Err(err).Msg("table detection failed")
	}
	return assemble(lines, tables, err), nil
}

// assemble pairs text lines with tables. Pages past the last detected one carry
// tableErr wrapped in common.ErrNoTables.
func assemble(lines [][]string, tables [][]common.Table, tableErr error) []common.Page {
	pages := make([]common.Page, len(lines))
	for i := range lines {
		pages[i].Text = strings.Join(lines[i], "\n")
		switch {
		case i < len(tables):
			pages[i].Tables = tables[i]
		case tableErr != nil:
			pages[i].TableErr = fmt.Errorf("%w: %v", common.ErrNoTables, tableErr)
		}
	}
	return pages
}

// textPages follows the row grouping of pdf.Page.GetTextByRow, one string per row.
func textPages(data []byte) ([][]string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	pages := make([][]string, 0, reader.NumPage())
	for no := 1; no <= reader.NumPage(); no++ {
		page := reader.Page(no)
		if page.V.IsNull() {
			pages = append(pages, nil)
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", no, err)
		}

		lines := make([]string, 0, len(rows))
		for _, row := range rows {
			parts := make([]string, 0, len(row.Content))
			for _, text := range row.Content {
				parts = append(parts, text.S)
			}
			if line := joinRow(parts); line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, lines)
	}
	return pages, nil
}

func joinRow(parts []string) string {
	var builder strings.Builder
	for i, s := range parts {
		builder.WriteString(s)
		if i < len(parts)-1 {
			builder.WriteByte(' ')
		}
	}
	return builder.String()
}

func tablePages(data []byte) ([][]common.Table, error) {
	reader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	numPages, err := reader.GetNumPages()
	if err != nil {
		return nil, err
	}

	pages := make([][]common.Table, 0, numPages)
	for no := 1; no <= numPages; no++ {
		page, err := reader.GetPage(no)
		if err != nil {
			return pages, fmt.Errorf("page %d: %w", no, err)
		}
		ex, err := unitext.New(page)
		if err != nil {
			return pages, fmt.Errorf("page %d: %w", no, err)
		}
		pageText, _, _, err := ex.ExtractPageText()
		if err != nil {
			return pages, fmt.Errorf("page %d: %w", no, err)
		}

		var tables []common.Table
		for _, tt := range pageText.Tables() {
			tables = append(tables, convertCells(cellTexts(tt)))
		}
		pages = append(pages, tables)
	}
	return pages, nil
}

func cellTexts(tt unitext.TextTable) [][]string {
	grid := make([][]string, len(tt.Cells))
	for y, row := range tt.Cells {
		grid[y] = make([]string, len(row))
		for x, cell := range row {
			grid[y][x] = cell.Text
		}
	}
	return grid
}

// convertCells turns a text grid into a table; empty cells become absent cells.
func convertCells(grid [][]string) common.Table {
	table := make(common.Table, 0, len(grid))
	for _, cells := range grid {
		row := make(common.Row, len(cells))
		for x := range cells {
			if text := cells[x]; text != "" {
				row[x] = &text
			}
		}
		table = append(table, row)
	}
	return table
}
