package ledger

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when no currency is configured or the code is unknown.
const DefaultCurrency = money.INR

// FormatAmount renders an amount with its currency symbol, thousands separators and
// two decimals, e.g. ₹1,234.56. An absent amount renders as "".
func FormatAmount(amount decimal.NullDecimal, currencyCode string) string {
	if !amount.Valid {
		return ""
	}
	currency := money.GetCurrency(currencyCode)
	if currency == nil {
		currency = money.GetCurrency(DefaultCurrency)
	}

	// go-money works in minor units
	multiplier := decimal.New(1, int32(currency.Fraction))
	minor := amount.Decimal.Mul(multiplier).Round(0).IntPart()
	return money.New(minor, currency.Code).Display()
}
