package integration

import "github.com/shopspring/decimal"

var percentBase = decimal.NewFromInt(100)

// ApplyMarkup returns quotes with NetCharge set to
// BaseCharge * (1 + markupPercent/100) and CommissionPercent attached for the
// billing collaborator. Zero markup or commission means 0%, never "use
// provider default". The input slice is not mutated and provider ordering is
// preserved.
func ApplyMarkup(quotes []RateQuote, markupPercent, commissionPercent decimal.Decimal) []RateQuote {
	factor := decimal.NewFromInt(1).Add(markupPercent.Div(percentBase))
	out := make([]RateQuote, len(quotes))
	for i, q := range quotes {
		q.NetCharge = q.BaseCharge.Mul(factor)
		q.CommissionPercent = commissionPercent
		out[i] = q
	}
	return out
}
