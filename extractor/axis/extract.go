package axis

import (
	"strings"

	"github.com/kwgn/pdfledger/extractor/common"
)

const (
	colDate             = 0
	colNarration        = 1
	colMerchantCategory = 4
	colAmount           = 7
	minColumns          = 9

	debitSuffix  = "Dr"
	creditSuffix = "Cr"
)

// Row is a parsed Axis statement row. MerchantCategory is read but is not part of
// the ledger record.
type Row struct {
	Transaction      common.Transaction
	MerchantCategory string
}

// ParseRow classifies a single table row.
func ParseRow(row common.Row, card string) (Row, common.SkipReason) {
	if len(row) < minColumns {
		return Row{}, common.SkipTooFewColumns
	}

	dateText := strings.TrimSpace(common.Cell(row, colDate))
	if !common.StrictDate.MatchString(dateText) {
		return Row{}, common.SkipNoDate
	}
	date, err := common.ParseDayFirst(dateText)
	if err != nil {
		return Row{}, common.SkipBadDate
	}

	txn := common.Transaction{
		Date:        date,
		Card:        card,
		CardType:    common.CardTypeCredit,
		Transaction: strings.TrimSpace(common.Cell(row, colNarration)),
	}

	amountText := strings.ReplaceAll(common.Cell(row, colAmount), ",", "")
	switch {
	case strings.Contains(amountText, debitSuffix):
		if amount, err := common.ParseAmount(strings.ReplaceAll(amountText, debitSuffix, "")); err == nil {
			txn.Amount.Decimal, txn.Amount.Valid = amount, true
			txn.Direction = common.DirectionDebit
		}
	case strings.Contains(amountText, creditSuffix):
		if amount, err := common.ParseAmount(strings.ReplaceAll(amountText, creditSuffix, "")); err == nil {
			txn.Amount.Decimal, txn.Amount.Valid = amount, true
			txn.Direction = common.DirectionCredit
		}
	}

	return Row{
		Transaction:      txn,
		MerchantCategory: strings.TrimSpace(common.Cell(row, colMerchantCategory)),
	}, common.SkipNone
}

// Classify reports the outcome for every row of the table, in order.
func Classify(table common.Table, card string) []common.Outcome {
	outcomes := make([]common.Outcome, 0, len(table))
	for _, row := range table {
		parsed, skip := ParseRow(row, card)
		if skip != common.SkipNone {
			outcomes = append(outcomes, common.Skipped(skip))
			continue
		}
		outcomes = append(outcomes, common.Accepted(parsed.Transaction))
	}
	return outcomes
}

// Extract walks every table of every page and returns one record per qualifying row.
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
