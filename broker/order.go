package broker

import (
	"github.com/rustyeddy/notebuyer/market"
	"github.com/shopspring/decimal"
)

// BuildOrder turns selected loans into one order that puts exactly amount
// into every loan.
func BuildOrder(accountID int64, portfolioID *int64, loans []market.Loan, amount decimal.Decimal) Order {
	o := Order{
		AccountID: accountID,
		Lines:     make([]OrderLine, 0, len(loans)),
	}
	for _, l := range loans {
		o.Lines = append(o.Lines, OrderLine{
			LoanID:          l.ID,
			RequestedAmount: amount,
			PortfolioID:     portfolioID,
		})
	}
	return o
}
