package buyer

import (
	"github.com/rustyeddy/notebuyer/broker"
	"github.com/shopspring/decimal"
)

// AccountState is the mutable side of one account during a run. It belongs
// to a single loop and is never shared.
type AccountState struct {
	Cash   decimal.Decimal
	Total  decimal.Decimal
	Ledger *Ledger

	Purchased []int64
	Invested  decimal.Decimal
}

func NewAccountState(summary broker.AccountSummary, ledger *Ledger) *AccountState {
	if ledger == nil {
		ledger = NewLedger()
	}
	return &AccountState{
		Cash:     summary.AvailableCash,
		Total:    summary.AccountTotal,
		Ledger:   ledger,
		Invested: decimal.Zero,
	}
}

// CanAfford reports whether at least one more note of amount fits in cash.
func (s *AccountState) CanAfford(amount decimal.Decimal) bool {
	return amount.IsPositive() && s.Cash.GreaterThanOrEqual(amount)
}

// Reconcile applies order confirmations. Every filled confirmation enters
// the ledger and costs amount; the filled ones are returned.
func (s *AccountState) Reconcile(confs []broker.Confirmation, amount decimal.Decimal) []broker.Confirmation {
	filled := make([]broker.Confirmation, 0, len(confs))
	for _, c := range confs {
		if !c.Filled() {
			continue
		}
		s.Ledger.Add(c.LoanID)
		s.Purchased = append(s.Purchased, c.LoanID)
		filled = append(filled, c)
	}

	spent := amount.Mul(decimal.NewFromInt(int64(len(filled))))
	s.Cash = s.Cash.Sub(spent)
	s.Invested = s.Invested.Add(spent)
	return filled
}
