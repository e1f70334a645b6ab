// strategy/select.go
package strategy

import (
	"sort"

	"github.com/rustyeddy/notebuyer/market"
	"github.com/shopspring/decimal"
)

// Capacity is how many notes of amount the cash can pay for.
func Capacity(cash, amount decimal.Decimal) int {
	if !amount.IsPositive() || !cash.IsPositive() {
		return 0
	}
	return int(cash.Div(amount).Floor().IntPart())
}

// Select ranks eligible loans by interest rate, highest first, and keeps at
// most n of them. Equal rates keep their listing order. The input slice is
// not modified.
func Select(eligible []market.Loan, n int) []market.Loan {
	if n <= 0 || len(eligible) == 0 {
		return []market.Loan{}
	}

	ranked := append([]market.Loan(nil), eligible...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].InterestRate > ranked[j].InterestRate
	})

	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}
