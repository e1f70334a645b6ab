package buyer

import (
	"sort"

	"github.com/rustyeddy/notebuyer/market"
)

// Ledger is the set of loans an account holds a note in. It only grows.
type Ledger struct {
	ids map[int64]struct{}
}

func NewLedger() *Ledger {
	return &Ledger{ids: make(map[int64]struct{})}
}

// SeedLedger builds a ledger from every owned note, whatever its status.
func SeedLedger(notes []market.Note) *Ledger {
	l := NewLedger()
	for _, n := range notes {
		l.Add(n.LoanID)
	}
	return l
}

// Owns reports whether the account already holds the loan.
func (l *Ledger) Owns(loanID int64) bool {
	_, ok := l.ids[loanID]
	return ok
}

// Add records a loan and reports whether it was new.
func (l *Ledger) Add(loanID int64) bool {
	if l.Owns(loanID) {
		return false
	}
	l.ids[loanID] = struct{}{}
	return true
}

func (l *Ledger) Len() int {
	return len(l.ids)
}

// IDs returns the owned loan ids in ascending order.
func (l *Ledger) IDs() []int64 {
	out := make([]int64, 0, len(l.ids))
	for id := range l.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
