package common

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrNoPages is returned for a document whose layout produced no pages at all.
	ErrNoPages = errors.New("document has no pages")
	// ErrNoTables marks a page whose table structure could not be recovered.
	ErrNoTables = errors.New("table structure unavailable")
)

// Row is one table row. A nil cell means the layout reader found no text there.
type Row []*string

type Table []Row

// Page is one decoded statement page: the tables found on it plus its plain text.
// TableErr is set when table detection failed for the page, wrapping ErrNoTables.
type Page struct {
	Tables   []Table
	Text     string
	TableErr error
}

// Lines splits the page text into trimmed lines, keeping blank ones. Non-breaking
// spaces become plain spaces.
func (p Page) Lines() []string {
	if p.Text == "" {
		return nil
	}
	raw := strings.Split(p.Text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		lines = append(lines, strings.TrimSpace(strings.ReplaceAll(l, "\u00a0", " ")))
	}
	return lines
}

// Document is a decoded statement. Name is usually the file or object name and is
// what the router classifies; Card optionally overrides the route's card label.
type Document struct {
	Name  string
	Card  string
	Pages []Page
}

// TableFailure returns the first page's table detection error, if any.
func (d Document) TableFailure() error {
	for i, page := range d.Pages {
		if page.TableErr != nil {
			return fmt.Errorf("page %d: %w", i+1, page.TableErr)
		}
	}
	return nil
}

type CardType string

const (
	CardTypeCredit  CardType = "Credit"
	CardTypeSavings CardType = "Savings"
)

type Direction int

const (
	DirectionUnknown Direction = iota
	DirectionCredit
	DirectionDebit
)

func (d Direction) String() string {
	switch d {
	case DirectionCredit:
		return "Credit"
	case DirectionDebit:
		return "Debit"
	}
	return ""
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Transaction is a single statement line item. Month and Year are always derived
// from Date.
type Transaction struct {
	Date        time.Time           `json:"date"`
	Card        string              `json:"card"`
	CardType    CardType            `json:"card_type"`
	Transaction string              `json:"transaction"`
	Amount      decimal.NullDecimal `json:"amount"`
	Direction   Direction           `json:"direction"`
	SubCategory string              `json:"sub_category"`
	Category    string              `json:"category"`
}

func (t Transaction) Month() string {
	return t.Date.Month().String()
}

func (t Transaction) Year() int {
	return t.Date.Year()
}

// SkipReason explains why a row or line did not produce a record.
type SkipReason string

const (
	SkipNone           SkipReason = ""
	SkipTooFewColumns  SkipReason = "too few columns"
	SkipNoDate         SkipReason = "first cell is not a date"
	SkipBadDate        SkipReason = "date does not parse"
	SkipBadAmount      SkipReason = "amount or balance does not parse"
	SkipNoiseRow       SkipReason = "statement summary row"
	SkipNoHeader       SkipReason = "table header has no description column"
	SkipEmptyTable     SkipReason = "table has no rows"
	SkipNoRecord       SkipReason = "no transaction in progress"
	SkipEmptyNarration SkipReason = "transaction in progress has no narration"
	SkipBlank          SkipReason = "blank line"
)

// Outcome is the classification of one row or line: either an emitted record or
// the reason nothing was emitted.
type Outcome struct {
	Record *Transaction
	Skip   SkipReason
}

func Accepted(t Transaction) Outcome {
	return Outcome{Record: &t}
}

func Skipped(reason SkipReason) Outcome {
	return Outcome{Skip: reason}
}

func (o Outcome) Accepted() bool {
	return o.Record != nil
}
