package extractor

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kwgn/pdfledger/extractor/common"
	"github.com/kwgn/pdfledger/ledger"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDecoder ignores the bytes and hands back canned pages.
type fakeDecoder struct {
	pages []common.Page
	err   error
	calls int
}

func (f *fakeDecoder) Decode(data []byte) ([]common.Page, error) {
	f.calls++
	return f.pages, f.err
}

func axisPage() common.Page {
	return common.Page{Tables: []common.Table{{
		common.TextRow("Date", "Transaction Details", "", "", "Merchant Category", "", "", "Amount (INR)", ""),
		common.TextRow("15/03/2024", "AMAZON PAY", "", "", "Shopping", "", "", "1,234.56 Dr", ""),
	}}}
}

func hdfcCreditPage() common.Page {
	return common.Page{Tables: []common.Table{{
		common.TextRow("Date", "Transaction Description", "Amount (in Rs.)"),
		common.TextRow("02/03/2024", "SWIGGY BANGALORE", "612.50"),
	}}}
}

func savingsPage() common.Page {
	return common.Page{Text: "01/04/2024 SALARY CREDIT 50,000.00 1,50,000.00\nREF NO 12345"}
}

func newEngine(decoder PageDecoder) *Engine {
	return &Engine{Routes: DefaultRoutes(), Decoder: decoder, Logger: zerolog.Nop()}
}

func TestClassify(t *testing.T) {
	routes := DefaultRoutes()

	tests := []struct {
		name    string
		dialect Dialect
		card    string
		ok      bool
	}{
		{"Axis_March.pdf", DialectAxis, "Axis Credit Card", true},
		{"hdfc_cc_2024_03.pdf", DialectHDFCCredit, "HDFC Credit Card", true},
		{"REGALIA-statement.PDF", DialectHDFCCredit, "HDFC Regalia", true},
		{"Millennia.pdf", DialectHDFCCredit, "HDFC Millennia", true},
		{"moneyback_feb.pdf", DialectHDFCCredit, "HDFC MoneyBack", true},
		{"hdfc_savings_apr.pdf", DialectHDFCSavings, "HDFC Savings", true},
		{"Acct_Statement_XX1234.pdf", DialectHDFCSavings, "HDFC Savings", true},
		{"random.pdf", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			route, ok := Classify(tt.name, routes)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.dialect, route.Dialect)
			assert.Equal(t, tt.card, route.Card)
		})
	}
}

func TestClassify_FirstMatchWins(t *testing.T) {
	route, ok := Classify("axis_savings.pdf", DefaultRoutes())

	require.True(t, ok)
	assert.Equal(t, DialectAxis, route.Dialect)
}

func TestStrategyFor(t *testing.T) {
	for _, d := range []Dialect{DialectAxis, DialectHDFCCredit, DialectHDFCSavings} {
		s, err := StrategyFor(d)
		require.NoError(t, err)
		assert.Equal(t, d, s.Dialect())
		assert.Equal(t, d != DialectHDFCSavings, s.Tabular())
	}

	_, err := StrategyFor("icici")
	assert.ErrorIs(t, err, ErrUnknownDialect)
}

func TestLoadRoutes(t *testing.T) {
	t.Cleanup(viper.Reset)

	viper.Reset()
	routes, err := LoadRoutes()
	require.NoError(t, err)
	assert.Equal(t, DefaultRoutes(), routes)

	viper.Set("routes", []map[string]any{
		{"token": "sapphire", "dialect": "hdfc_credit", "card": "HDFC Sapphire"},
	})
	routes, err = LoadRoutes()
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, Route{Token: "sapphire", Dialect: DialectHDFCCredit, Card: "HDFC Sapphire"}, routes[0])

	viper.Set("routes", []map[string]any{{"token": "x", "dialect": "icici"}})
	_, err = LoadRoutes()
	assert.ErrorIs(t, err, ErrUnknownDialect)
}

func TestRun_DispatchesEachDialect(t *testing.T) {
	engine := newEngine(nil)
	docs := []common.Document{
		{Name: "axis_mar.pdf", Pages: []common.Page{axisPage()}},
		{Name: "unknown.pdf", Pages: []common.Page{axisPage()}},
		{Name: "regalia_mar.pdf", Pages: []common.Page{hdfcCreditPage()}},
		{Name: "savings_apr.pdf", Card: "ignored", Pages: []common.Page{savingsPage()}},
	}

	transactions, err := engine.Run(docs)

	require.NoError(t, err)
	require.Len(t, transactions, 3)
	assert.Equal(t, "AMAZON PAY", transactions[0].Transaction)
	assert.Equal(t, "Axis Credit Card", transactions[0].Card)
	assert.Equal(t, "SWIGGY BANGALORE", transactions[1].Transaction)
	assert.Equal(t, "HDFC Regalia", transactions[1].Card)
	assert.Equal(t, "SALARY CREDIT REF NO 12345", transactions[2].Transaction)
	assert.Equal(t, "HDFC Savings", transactions[2].Card)
}

func TestRun_DocumentCardOverridesRoute(t *testing.T) {
	engine := newEngine(nil)

	transactions, err := engine.Run([]common.Document{
		{Name: "axis_mar.pdf", Card: "Axis Flipkart", Pages: []common.Page{axisPage()}},
	})

	require.NoError(t, err)
	require.Len(t, transactions, 1)
	assert.Equal(t, "Axis Flipkart", transactions[0].Card)
}

func TestRun_NoPagesIsAnError(t *testing.T) {
	engine := newEngine(nil)

	transactions, err := engine.Run([]common.Document{
		{Name: "axis_mar.pdf", Pages: []common.Page{axisPage()}},
		{Name: "axis_apr.pdf"},
	})

	assert.ErrorIs(t, err, ErrNoPages)
	assert.Nil(t, transactions)
}

func TestRun_EmptyInput(t *testing.T) {
	transactions, err := newEngine(nil).Run(nil)

	require.NoError(t, err)
	assert.Empty(t, transactions)
}

func TestProcessReader_UnmatchedNameIsNotDecoded(t *testing.T) {
	decoder := &fakeDecoder{pages: []common.Page{axisPage()}}

	transactions, err := newEngine(decoder).ProcessReader(strings.NewReader("%PDF"), "bank.pdf", "")

	require.NoError(t, err)
	assert.Empty(t, transactions)
	assert.Zero(t, decoder.calls)
}

func TestProcessReader_DecodeError(t *testing.T) {
	decoder := &fakeDecoder{err: errors.New("broken xref")}

	_, err := newEngine(decoder).ProcessReader(strings.NewReader("junk"), "axis.pdf", "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "axis.pdf")
	assert.Contains(t, err.Error(), "broken xref")
}

func TestProcessReader_NoDecoder(t *testing.T) {
	_, err := newEngine(nil).ProcessReader(bytes.NewReader(nil), "axis.pdf", "")

	assert.Error(t, err)
}

func TestExtractPath_Directory(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b_axis.pdf", "a_axis.PDF", "axis_notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("%PDF-1.4"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "axis_sub.pdf"), 0o755))

	decoder := &fakeDecoder{pages: []common.Page{axisPage()}}
	transactions, err := newEngine(decoder).ExtractPath(dir)

	require.NoError(t, err)
	assert.Len(t, transactions, 2)
	assert.Equal(t, 2, decoder.calls)
}

func TestExtractPath_Missing(t *testing.T) {
	_, err := newEngine(&fakeDecoder{}).ExtractPath(filepath.Join(t.TempDir(), "nope.pdf"))

	assert.Error(t, err)
}

func TestExecuteAgainstPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "axis_mar.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))

	var buf bytes.Buffer
	err := newEngine(&fakeDecoder{pages: []common.Page{axisPage()}}).
		ExecuteAgainstPath(path, &buf, ledger.FormatCSV, ledger.DefaultOptions())

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "15/03/2024,March,2024,Axis Credit Card,Credit,AMAZON PAY,\"₹1,234.56\",Debit,,")
}

func TestRun_TableFailureFailsTableDialects(t *testing.T) {
	failed := common.Page{
		Text:     "01/03/2024 Coffee 1,234.56 Dr",
		TableErr: fmt.Errorf("%w: unipdf license code required", common.ErrNoTables),
	}

	for _, name := range []string{"axis_mar.pdf", "regalia_mar.pdf"} {
		t.Run(name, func(t *testing.T) {
			transactions, err := newEngine(nil).Run([]common.Document{
				{Name: name, Pages: []common.Page{failed}},
			})

			assert.ErrorIs(t, err, ErrNoTables)
			assert.Contains(t, err.Error(), name)
			assert.Nil(t, transactions)
		})
	}
}

func TestRun_TableFailureDoesNotAffectSavings(t *testing.T) {
	page := savingsPage()
	page.TableErr = fmt.Errorf("%w: unipdf license code required", common.ErrNoTables)

	transactions, err := newEngine(nil).Run([]common.Document{
		{Name: "savings_apr.pdf", Pages: []common.Page{page}},
	})

	require.NoError(t, err)
	assert.Len(t, transactions, 1)
}

func TestProcessReader_DecoderNoPagesMatchesEngineSentinel(t *testing.T) {
	decoder := &fakeDecoder{err: common.ErrNoPages}

	_, err := newEngine(decoder).ProcessReader(strings.NewReader("%PDF"), "axis.pdf", "")

	assert.ErrorIs(t, err, ErrNoPages)
}

func TestExecuteAgainstPath_SameInputSameBytes(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"axis_mar.pdf", "regalia_mar.pdf"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("%PDF-1.4"), 0o644))
	}
	engine := newEngine(&fakeDecoder{pages: []common.Page{axisPage(), hdfcCreditPage()}})

	for _, format := range []ledger.Format{ledger.FormatCSV, ledger.FormatJSON} {
		t.Run(string(format), func(t *testing.T) {
			var first, second bytes.Buffer
			require.NoError(t, engine.ExecuteAgainstPath(dir, &first, format, ledger.DefaultOptions()))
			require.NoError(t, engine.ExecuteAgainstPath(dir, &second, format, ledger.DefaultOptions()))

			assert.NotEmpty(t, first.Bytes())
			assert.Equal(t, first.Bytes(), second.Bytes())
		})
	}
}
