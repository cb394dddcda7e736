// Package ledger turns extracted statement records into the final, display-ready
// ledger and writes it out.
package ledger

import (
	"slices"
	"time"

	"github.com/kwgn/pdfledger/extractor/common"
	"github.com/shopspring/decimal"
)

const (
	DefaultNarrationWidth = 60
	ellipsis              = "..."
	dateLayout            = "02/01/2006"
)

type Options struct {
	Currency       string
	NarrationWidth int
}

func DefaultOptions() Options {
	return Options{Currency: DefaultCurrency, NarrationWidth: DefaultNarrationWidth}
}

// Entry is one ledger line. Date and Amount keep the typed values; the other fields
// are what gets written out.
type Entry struct {
	Date          time.Time           `json:"-" csv:"-"`
	DateDisplay   string              `json:"date" csv:"Date"`
	Month         string              `json:"month" csv:"Month"`
	Year          int                 `json:"year" csv:"Year"`
	Card          string              `json:"card" csv:"Card"`
	CardType      string              `json:"card_type" csv:"Card Type"`
	Transaction   string              `json:"transaction" csv:"Transaction"`
	Amount        decimal.NullDecimal `json:"amount_value" csv:"-"`
	AmountDisplay string              `json:"amount" csv:"Amount"`
	Direction     string              `json:"direction" csv:"Credit/Debit"`
	SubCategory   string              `json:"sub_category" csv:"Sub-Category"`
	Category      string              `json:"category" csv:"Category"`
}

// Truncate cuts s to width characters and appends "..." when it is longer than
// width. Shorter or equal strings are returned unchanged.
func Truncate(s string, width int) string {
	if width <= 0 {
		width = DefaultNarrationWidth
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width]) + ellipsis
}

// NewEntry builds the display form of a single record.
func NewEntry(t common.Transaction, opts Options) Entry {
	return Entry{
		Date:          t.Date,
		DateDisplay:   t.Date.Format(dateLayout),
		Month:         t.Month(),
		Year:          t.Year(),
		Card:          t.Card,
		CardType:      string(t.CardType),
		Transaction:   Truncate(t.Transaction, opts.NarrationWidth),
		Amount:        t.Amount,
		AmountDisplay: FormatAmount(t.Amount, opts.Currency),
		Direction:     t.Direction.String(),
		SubCategory:   t.SubCategory,
		Category:      t.Category,
	}
}

// Consolidate formats records in the order given and stable-sorts them by date, so
// records sharing a date keep their relative order. The input is not modified.
func Consolidate(records []common.Transaction, opts Options) []Entry {
	entries := make([]Entry, 0, len(records))
	for _, record := range records {
		entries = append(entries, NewEntry(record, opts))
	}
	slices.SortStableFunc(entries, func(a, b Entry) int {
		return a.Date.Compare(b.Date)
	})
	return entries
}
