package broker

import (
	"context"

	"github.com/rustyeddy/notebuyer/market"
	"github.com/shopspring/decimal"
)

// Broker is everything the buying loop needs from the lending platform.
type Broker interface {
	AccountSummary(ctx context.Context, accountID int64) (AccountSummary, error)
	OwnedNotes(ctx context.Context, accountID int64) ([]market.Note, error)

	// ListLoans returns the full listing when showAll is true and only loans
	// added in the most recent listing otherwise.
	ListLoans(ctx context.Context, showAll bool) ([]market.Loan, error)

	SubmitOrder(ctx context.Context, order Order) ([]Confirmation, error)
}

type AccountSummary struct {
	InvestorID           int64           `json:"investorId"`
	AvailableCash        decimal.Decimal `json:"availableCash"`
	AccountTotal         decimal.Decimal `json:"accountTotal"`
	OutstandingPrincipal decimal.Decimal `json:"outstandingPrincipal"`
}

type OrderLine struct {
	LoanID          int64           `json:"loanId"`
	RequestedAmount decimal.Decimal `json:"requestedAmount"`
	PortfolioID     *int64          `json:"portfolioId,omitempty"`
}

type Order struct {
	AccountID int64       `json:"aid"`
	Lines     []OrderLine `json:"orders"`
}

// Confirmation is the platform's verdict on one order line. A nil or negative
// InvestedAmount means the loan was not bought.
type Confirmation struct {
	LoanID          int64            `json:"loanId"`
	RequestedAmount decimal.Decimal  `json:"requestedAmount"`
	InvestedAmount  *decimal.Decimal `json:"investedAmount"`
	ExecutionStatus []string         `json:"executionStatus"`
}

// Filled reports whether the platform invested in the loan.
func (c Confirmation) Filled() bool {
	return c.InvestedAmount != nil && !c.InvestedAmount.IsNegative()
}
