package hdfc_savings

import (
	"strings"
	"testing"

	"github.com/kwgn/pdfledger/extractor/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func page(lines ...string) common.Page {
	return common.Page{Text: strings.Join(lines, "\n")}
}

// Synthetic statement: opening salary, a wrapped UPI debit, an ATM debit, a
// refund and a zero-amount charge that leaves the balance unchanged.
func getTestPage() common.Page {
	return page(
		"HDFC BANK LIMITED",
		"Statement of account",
		"Date Narration Chq./Ref.No. Value Dt Withdrawal Amt. Deposit Amt. Closing Balance",
		"01/04/2024 SALARY CREDIT 50,000.00 1,50,000.00",
		"REF NO 12345",
		"03/04/24 UPI-SWIGGY-SWIGGY@ICICI 612.50 1,49,387.50",
		"   UPI REF 4099   ",
		"",
		"05/04/2024 ATM WDL 500 MG ROAD 2,000.00 1,47,387.50",
		"06/04/2024 REFUND AMAZON 387.50 1,47,775.00",
		"07/04/2024 SMS CHARGES 0.00 1,47,775.00",
		"Page 1 of 2",
	)
}

func TestExtract_MultiLineNarration(t *testing.T) {
	doc := common.Document{Pages: []common.Page{page(
		"01/04/2024 SALARY CREDIT 50,000.00 1,50,000.00",
		"REF NO 12345",
	)}}

	transactions := Extract(doc)

	require.Len(t, transactions, 1)
	txn := transactions[0]
	assert.Equal(t, "SALARY CREDIT REF NO 12345", txn.Transaction)
	assert.True(t, txn.Amount.Valid)
	assert.True(t, txn.Amount.Decimal.Equal(decimal.NewFromInt(50000)))
	assert.Equal(t, common.DirectionUnknown, txn.Direction)
	assert.Equal(t, Card, txn.Card)
	assert.Equal(t, common.CardTypeSavings, txn.CardType)
	assert.Equal(t, "April", txn.Month())
	assert.Equal(t, 2024, txn.Year())
}

func TestExtract_NonBreakingSpacesBetweenFields(t *testing.T) {
	doc := common.Document{Pages: []common.Page{page(
		"01/04/2024\u00a0SALARY CREDIT\u00a050,000.00\u00a01,50,000.00",
	)}}

	transactions := Extract(doc)

	require.Len(t, transactions, 1)
	assert.Equal(t, "SALARY CREDIT", transactions[0].Transaction)
	assert.True(t, transactions[0].Amount.Decimal.Equal(decimal.NewFromInt(50000)))
}

func TestExtract_DirectionFromBalance(t *testing.T) {
	transactions := Extract(common.Document{Pages: []common.Page{getTestPage()}})

	require.Len(t, transactions, 5)

	assert.Equal(t, "SALARY CREDIT REF NO 12345", transactions[0].Transaction)
	assert.Equal(t, common.DirectionUnknown, transactions[0].Direction)

	assert.Equal(t, "UPI-SWIGGY-SWIGGY@ICICI UPI REF 4099", transactions[1].Transaction)
	assert.Equal(t, common.DirectionDebit, transactions[1].Direction)
	assert.Equal(t, 2024, transactions[1].Year())

	assert.Equal(t, "ATM WDL 500 MG ROAD", transactions[2].Transaction)
	assert.True(t, transactions[2].Amount.Decimal.Equal(decimal.NewFromInt(2000)))
	assert.Equal(t, common.DirectionDebit, transactions[2].Direction)

	assert.Equal(t, "REFUND AMAZON", transactions[3].Transaction)
	assert.Equal(t, common.DirectionCredit, transactions[3].Direction)

	// unchanged balance counts as a debit; trailing footer joins the narration
	assert.Equal(t, "SMS CHARGES Page 1 of 2", transactions[4].Transaction)
	assert.Equal(t, common.DirectionDebit, transactions[4].Direction)
}

func TestExtract_BalanceCarriesAcrossPages(t *testing.T) {
	doc := common.Document{Pages: []common.Page{
		page("01/04/2024 OPENING DEPOSIT 1,000.00 1,000.00"),
		page("02/04/2024 INTEREST 10.00 1,010.00"),
	}}

	transactions := Extract(doc)

	require.Len(t, transactions, 2)
	assert.Equal(t, common.DirectionUnknown, transactions[0].Direction)
	assert.Equal(t, common.DirectionCredit, transactions[1].Direction)
}

func TestExtract_BalanceResetsPerDocument(t *testing.T) {
	doc := common.Document{Pages: []common.Page{page("02/04/2024 INTEREST 10.00 1,010.00")}}

	first := Extract(doc)
	second := Extract(doc)

	assert.Equal(t, common.DirectionUnknown, first[0].Direction)
	assert.Equal(t, common.DirectionUnknown, second[0].Direction)
}

func TestExtract_PageBoundaryDropsContinuation(t *testing.T) {
	doc := common.Document{Pages: []common.Page{
		page("01/04/2024 NEFT CR-HDFC0000001-ACME PAYROLL 25,000.00 25,000.00"),
		page("SERVICES PVT LTD", "02/04/2024 POS DEBIT 100.00 24,900.00"),
	}}

	transactions := Extract(doc)

	require.Len(t, transactions, 2)
	assert.Equal(t, "NEFT CR-HDFC0000001-ACME PAYROLL", transactions[0].Transaction)
	assert.Equal(t, "POS DEBIT", transactions[1].Transaction)

	results := Classify(doc)
	require.Len(t, results, 2)
	assert.Equal(t, SkipResult(common.SkipNoRecord), results[1][0])
}

func TestExtract_LinesBeforeFirstTransactionDiscarded(t *testing.T) {
	doc := common.Document{Pages: []common.Page{page(
		"Account Branch : MG ROAD",
		"Opening Balance 0.00",
		"01/04/2024 CASH DEPOSIT 500.00 500.00",
	)}}

	transactions := Extract(doc)

	require.Len(t, transactions, 1)
	assert.Equal(t, "CASH DEPOSIT", transactions[0].Transaction)
}

func TestExtract_NotAnchoredLinesAreContinuations(t *testing.T) {
	doc := common.Document{Pages: []common.Page{page(
		"01/04/2024 CASH DEPOSIT 500.00 500.00",
		"Ref 01/04/2024 CASH 1.00 2.00",
		"02/04/2024 CASH DEPOSIT 500.00",
	)}}

	transactions := Extract(doc)

	require.Len(t, transactions, 1)
	assert.Equal(t, "CASH DEPOSIT Ref 01/04/2024 CASH 1.00 2.00 02/04/2024 CASH DEPOSIT 500.00", transactions[0].Transaction)
}

func TestScanLine_BadDateFlushesAndStartsNothing(t *testing.T) {
	st := scanState{}
	st, flushed, result := scanLine(st, "01/04/2024 CASH DEPOSIT 500.00 500.00")
	require.Nil(t, flushed)
	require.Equal(t, LineStart, result.Kind)

	st, flushed, result = scanLine(st, "31/04/2024 BOGUS 1.00 501.00")
	require.NotNil(t, flushed)
	assert.Equal(t, "CASH DEPOSIT", flushed.Transaction)
	assert.Equal(t, SkipResult(common.SkipBadDate), result)
	assert.Nil(t, st.current)

	// balance was not updated by the rejected line
	assert.True(t, st.previous.Decimal.Equal(decimal.NewFromInt(500)))

	_, flushed, result = scanLine(st, "orphan continuation")
	assert.Nil(t, flushed)
	assert.Equal(t, SkipResult(common.SkipNoRecord), result)
}

func TestScanLine_UpdatesBalanceOnUnknownDirection(t *testing.T) {
	st, _, _ := scanLine(scanState{}, "01/04/2024 OPENING 100.00 100.00")

	assert.Equal(t, common.DirectionUnknown, st.current.Direction)
	assert.True(t, st.previous.Valid)
	assert.True(t, st.previous.Decimal.Equal(decimal.NewFromInt(100)))
}

func TestScanLine_ContinuationDoesNotMutateFlushedRecord(t *testing.T) {
	st, _, _ := scanLine(scanState{}, "01/04/2024 OPENING 100.00 100.00")
	before := st.current

	st, _, result := scanLine(st, "MORE TEXT")

	assert.Equal(t, LineContinuation, result.Kind)
	assert.Equal(t, "OPENING", before.Transaction)
	assert.Equal(t, "OPENING MORE TEXT", st.current.Transaction)
}

func TestScanLine_Blank(t *testing.T) {
	st, _, _ := scanLine(scanState{}, "01/04/2024 OPENING 100.00 100.00")

	st, _, result := scanLine(st, "   ")

	assert.Equal(t, SkipResult(common.SkipBlank), result)
	assert.Equal(t, "OPENING", st.current.Transaction)
}

func TestDirection(t *testing.T) {
	prev := decimal.NewNullDecimal(decimal.NewFromInt(100))

	assert.Equal(t, common.DirectionUnknown, direction(decimal.NullDecimal{}, decimal.NewFromInt(5)))
	assert.Equal(t, common.DirectionCredit, direction(prev, decimal.NewFromInt(101)))
	assert.Equal(t, common.DirectionDebit, direction(prev, decimal.NewFromInt(100)))
	assert.Equal(t, common.DirectionDebit, direction(prev, decimal.NewFromInt(99)))
}
