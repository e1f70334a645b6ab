// journal/journal.go
package journal

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseRecord is one confirmed note purchase.
type PurchaseRecord struct {
	RunID     string
	AccountID int64
	LoanID    int64
	Amount    decimal.Decimal
	Rate      float64
	Grade     string
	Region    string
	Status    string
	Time      time.Time
}

// RunRecord summarises one polling loop run of one account.
type RunRecord struct {
	RunID     string
	AccountID int64
	Started   time.Time
	Finished  time.Time
	Reason    string
	Cycles    int
	Purchased int
	Invested  decimal.Decimal
	CashLeft  decimal.Decimal
	Error     string
}

// Journal persists purchases and runs. Implementations are safe for use by
// several account loops at once.
type Journal interface {
	RecordPurchase(PurchaseRecord) error
	RecordRun(RunRecord) error
	Close() error
}
