package market

import (
	"strings"

	"github.com/shopspring/decimal"
)

// StatusCurrent is the note status of a loan that is paying as agreed.
const StatusCurrent = "Current"

// Note is a previously purchased fraction of a loan.
type Note struct {
	LoanID int64
	NoteID int64
	Status string
	Region string

	// PrincipalPending is nil when the platform row carried no parseable
	// outstanding principal.
	PrincipalPending *decimal.Decimal
}

// IsCurrent reports whether the note is still paying as agreed.
func (n Note) IsCurrent() bool {
	return strings.EqualFold(strings.TrimSpace(n.Status), StatusCurrent)
}
