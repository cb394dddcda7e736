package extractor

import (
	"fmt"
	"strings"

	"github.com/kwgn/pdfledger/extractor/axis"
	"github.com/kwgn/pdfledger/extractor/common"
	"github.com/kwgn/pdfledger/extractor/hdfc_cc"
	"github.com/kwgn/pdfledger/extractor/hdfc_savings"
	"github.com/spf13/viper"
)

type Dialect string

const (
	DialectAxis        Dialect = "axis"
	DialectHDFCCredit  Dialect = "hdfc_credit"
	DialectHDFCSavings Dialect = "hdfc_savings"
)

// Route maps a document-name token to a dialect and the card label its records get.
type Route struct {
	Token   string  `mapstructure:"token"`
	Dialect Dialect `mapstructure:"dialect"`
	Card    string  `mapstructure:"card"`
}

// DefaultRoutes lists card-specific tokens before the generic account tokens.
func DefaultRoutes() []Route {
	return []Route{
		{Token: "axis", Dialect: DialectAxis, Card: "Axis Credit Card"},
		{Token: "hdfc_cc", Dialect: DialectHDFCCredit, Card: "HDFC Credit Card"},
		{Token: "regalia", Dialect: DialectHDFCCredit, Card: "HDFC Regalia"},
		{Token: "millennia", Dialect: DialectHDFCCredit, Card: "HDFC Millennia"},
		{Token: "moneyback", Dialect: DialectHDFCCredit, Card: "HDFC MoneyBack"},
		{Token: "savings", Dialect: DialectHDFCSavings, Card: hdfc_savings.Card},
		{Token: "acct", Dialect: DialectHDFCSavings, Card: hdfc_savings.Card},
	}
}

// LoadRoutes reads the "routes" list from configuration, keeping DefaultRoutes when
// none is configured.
func LoadRoutes() ([]Route, error) {
	if !viper.IsSet("routes") {
		return DefaultRoutes(), nil
	}
	var routes []Route
	if err := viper.UnmarshalKey("routes", &routes); err != nil {
		return nil, fmt.Errorf("failed to read routes: %w", err)
	}
	for _, route := range routes {
		if route.Token == "" {
			return nil, fmt.Errorf("route for %q has an empty token", route.Dialect)
		}
		if _, err := StrategyFor(route.Dialect); err != nil {
			return nil, fmt.Errorf("route %q: %w", route.Token, err)
		}
	}
	return routes, nil
}

// Classify picks the first route whose token occurs in name, ignoring case.
func Classify(name string, routes []Route) (Route, bool) {
	lower := strings.ToLower(name)
	for _, route := range routes {
		if route.Token != "" && strings.Contains(lower, strings.ToLower(route.Token)) {
			return route, true
		}
	}
	return Route{}, false
}

// Strategy extracts the records of one dialect from a decoded document. Tabular
// strategies read page tables and cannot run on text alone.
type Strategy interface {
	Dialect() Dialect
	Tabular() bool
	Extract(doc common.Document, card string) []common.Transaction
}

type axisStrategy struct{}

func (axisStrategy) Dialect() Dialect { return DialectAxis }

func (axisStrategy) Tabular() bool { return true }

func (axisStrategy) Extract(doc common.Document, card string) []common.Transaction {
	return axis.Extract(doc, card)
}

type hdfcCreditStrategy struct{}

func (hdfcCreditStrategy) Dialect() Dialect { return DialectHDFCCredit }

func (hdfcCreditStrategy) Tabular() bool { return true }

func (hdfcCreditStrategy) Extract(doc common.Document, card string) []common.Transaction {
	return hdfc_cc.Extract(doc, card)
}

// hdfcSavingsStrategy always labels records hdfc_savings.Card.
type hdfcSavingsStrategy struct{}

func (hdfcSavingsStrategy) Dialect() Dialect { return DialectHDFCSavings }

func (hdfcSavingsStrategy) Tabular() bool { return false }

func (hdfcSavingsStrategy) Extract(doc common.Document, _ string) []common.Transaction {
	return hdfc_savings.Extract(doc)
}

func StrategyFor(d Dialect) (Strategy, error) {
	switch d {
	case DialectAxis:
		return axisStrategy{}, nil
	case DialectHDFCCredit:
		return hdfcCreditStrategy{}, nil
	case DialectHDFCSavings:
		return hdfcSavingsStrategy{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, d)
}
