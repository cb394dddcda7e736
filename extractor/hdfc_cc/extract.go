package hdfc_cc

import (
	"strings"

	"github.com/kwgn/pdfledger/extractor/common"
)

const (
	colDate      = 0
	colNarration = 1
	minColumns   = 2

	headerMarker = "Desc"
	creditMarker = "Cr"
)

// noiseKeywords mark statement summary rows that happen to start with a date.
var noiseKeywords = []string{
	"TOTAL DUES",
	"REWARDS",
	"PAYMENT DUE DATE",
	"STATEMENT DATE",
	"MINIMUM AMOUNT",
	"CREDIT LIMIT",
	"CARD ENDING",
	"AVAILABLE CREDIT",
	"DUE DATE",
}

// IsTransactionTable reports whether the header row has a cell mentioning "Desc".
// Summary boxes on the same page do not.
func IsTransactionTable(table common.Table) bool {
	if len(table) == 0 {
		return false
	}
	for _, cell := range table[0] {
		if cell != nil && *cell != "" && strings.Contains(*cell, headerMarker) {
			return true
		}
	}
	return false
}

func isNoise(narration string) bool {
	upper := strings.ToUpper(narration)
	for _, keyword := range noiseKeywords {
		if strings.Contains(upper, keyword) {
			return true
		}
	}
	return false
}

// ParseRow classifies one body row of a transaction table.
func ParseRow(row common.Row, card string) common.Outcome {
	if len(row) < minColumns {
		return common.Skipped(common.SkipTooFewColumns)
	}

	dateText := strings.TrimSpace(common.Cell(row, colDate))
	if !common.StrictDate.MatchString(dateText) {
		return common.Skipped(common.SkipNoDate)
	}
	if isNoise(common.Cell(row, colNarration)) {
		return common.Skipped(common.SkipNoiseRow)
	}
	date, err := common.ParseDayFirst(dateText)
	if err != nil {
		return common.Skipped(common.SkipBadDate)
	}

	txn := common.Transaction{
		Date:        date,
		Card:        card,
		CardType:    common.CardTypeCredit,
		Transaction: strings.TrimSpace(common.Cell(row, colNarration)),
	}

	tail := common.Cell(row, len(row)-2) + " " + common.Cell(row, len(row)-1)
	if match := common.AmountPattern.FindString(tail); match != "" {
		if amount, err := common.ParseAmount(match); err == nil {
			txn.Amount.Decimal, txn.Amount.Valid = amount, true
			txn.Direction = common.DirectionDebit
			if strings.Contains(tail, creditMarker) {
				txn.Direction = common.DirectionCredit
			}
		}
	}

	return common.Accepted(txn)
}

// Classify reports one outcome per row. Tables without a description header yield a
// single SkipNoHeader outcome.
func Classify(table common.Table, card string) []common.Outcome {
	if len(table) == 0 {
		return []common.Outcome{common.Skipped(common.SkipEmptyTable)}
	}
	if !IsTransactionTable(table) {
		return []common.Outcome{common.Skipped(common.SkipNoHeader)}
	}
	outcomes := make([]common.Outcome, 0, len(table)-1)
	for _, row := range table[1:] {
		outcomes = append(outcomes, ParseRow(row, card))
	}
	return outcomes
}

func Extract(doc common.Document, card string) []common.Transaction {
	transactions := []common.Transaction{}
	for _, page := range doc.Pages {
		for _, table := range page.Tables {
			for _, outcome := range Classify(table, card) {
				if outcome.Accepted() {
					transactions = append(transactions, *outcome.Record)
				}
			}
		}
	}
	return transactions
}
