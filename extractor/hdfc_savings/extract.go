package hdfc_savings

import (
	"regexp"
	"strings"

	"github.com/kwgn/pdfledger/extractor/common"
	"github.com/shopspring/decimal"
)

// Card is the label given to every savings-account record.
const Card = "HDFC Savings"

// transactionLine is anchored to the whole trimmed line:
// DD/MM/YY(YY) <narration> <amount> <balance>
var transactionLine = regexp.MustCompile(`^(\d{2}/\d{2}/(?:\d{4}|\d{2}))\s+(.+?)\s+(\d[\d,]*\.\d{2})\s+(\d[\d,]*\.\d{2})$`)

type LineKind int

const (
	LineSkipped LineKind = iota
	LineStart
	LineContinuation
)

// LineResult says what one text line did to the scan.
type LineResult struct {
	Kind LineKind
	Skip common.SkipReason
}

// SkipResult is the result for a line that neither started nor continued a record.
func SkipResult(reason common.SkipReason) LineResult {
	return LineResult{Kind: LineSkipped, Skip: reason}
}

// scanState is everything the line scan carries between lines. current is the
// transaction still collecting narration and is dropped at every page end;
// previous is the last balance seen and lives for the whole document.
type scanState struct {
	current  *common.Transaction
	previous decimal.NullDecimal
}

// direction compares a new balance against the previous one. Equal balances count
// as a debit.
func direction(previous decimal.NullDecimal, balance decimal.Decimal) common.Direction {
	if !previous.Valid {
		return common.DirectionUnknown
	}
	if balance.GreaterThan(previous.Decimal) {
		return common.DirectionCredit
	}
	return common.DirectionDebit
}

// scanLine feeds one line through the scan. The returned transaction, when not nil,
// is the previous in-progress record that this line completed.
func scanLine(st scanState, line string) (scanState, *common.Transaction, LineResult) {
	line = strings.TrimSpace(line)

	match := transactionLine.FindStringSubmatch(line)
	if match == nil {
		if line == "" {
			return st, nil, SkipResult(common.SkipBlank)
		}
		if st.current == nil {
			return st, nil, SkipResult(common.SkipNoRecord)
		}
		if st.current.Transaction == "" {
			return st, nil, SkipResult(common.SkipEmptyNarration)
		}
		next := *st.current
		next.Transaction = next.Transaction + " " + line
		st.current = &next
		return st, nil, LineResult{Kind: LineContinuation}
	}

	flushed := st.current
	st.current = nil

	date, err := common.ParseDayFirst(match[1])
	if err != nil {
		return st, flushed, SkipResult(common.SkipBadDate)
	}
	amount, err := common.ParseAmount(match[3])
	if err != nil {
		return st, flushed, SkipResult(common.SkipBadAmount)
	}
	balance, err := common.ParseAmount(match[4])
	if err != nil {
		return st, flushed, SkipResult(common.SkipBadAmount)
	}

	dir := direction(st.previous, balance)
	st.previous = decimal.NewNullDecimal(balance)
	st.current = &common.Transaction{
		Date:        date,
		Card:        Card,
		CardType:    common.CardTypeSavings,
		Transaction: strings.TrimSpace(match[2]),
		Amount:      decimal.NewNullDecimal(amount),
		Direction:   dir,
	}
	return st, flushed, LineResult{Kind: LineStart}
}

// scanPage runs every line of one page and flushes whatever is still in progress
// at the end. A narration that wraps onto the next page loses its continuation:
// the next page starts with no record in progress.
func scanPage(st scanState, lines []string) (scanState, []common.Transaction, []LineResult) {
	transactions := []common.Transaction{}
	results := make([]LineResult, 0, len(lines))

	for _, line := range lines {
		var flushed *common.Transaction
		var result LineResult
		st, flushed, result = scanLine(st, line)
		if flushed != nil {
			transactions = append(transactions, *flushed)
		}
		results = append(results, result)
	}

	if st.current != nil {
		transactions = append(transactions, *st.current)
		st.current = nil
	}
	return st, transactions, results
}

// Extract scans every page's text lines in order. The running balance carries
// across pages of the same document and starts empty for each document.
func Extract(doc common.Document) []common.Transaction {
	transactions := []common.Transaction{}
	st := scanState{}
	for _, page := range doc.Pages {
		var pageTransactions []common.Transaction
		st, pageTransactions, _ = scanPage(st, page.Lines())
		transactions = append(transactions, pageTransactions...)
	}
	return transactions
}

// Classify returns the per-line results for a whole document, page after page.
func Classify(doc common.Document) [][]LineResult {
	results := make([][]LineResult, 0, len(doc.Pages))
	st := scanState{}
	for _, page := range doc.Pages {
		var pageResults []LineResult
		st, _, pageResults = scanPage(st, page.Lines())
		results = append(results, pageResults)
	}
	return results
}
