package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rustyeddy/notebuyer/broker"
	"github.com/rustyeddy/notebuyer/market"
	"github.com/shopspring/decimal"
)

// Execution statuses reported on order confirmations.
const (
	StatusFulfilled        = "ORDER_FULFILLED"
	StatusNotInFunding     = "NOT_AN_INFUNDING_LOAN"
	StatusInsufficientCash = "INSUFFICIENT_CASH"
	StatusAlreadyOwned     = "ALREADY_INVESTED_IN_LOAN"
	StatusFundingExhausted = "LOAN_FULLY_FUNDED"
	StatusInvalidAmount    = "INVALID_AMOUNT"
)

var ErrUnknownAccount = errors.New("unknown account")

// Op names an Engine method for error injection.
type Op int

const (
	OpSummary Op = iota
	OpNotes
	OpListing
	OpOrder
)

// Calls counts the requests an Engine has served.
type Calls struct {
	Summary     int
	Notes       int
	FullListing int
	NewListing  int
	Orders      int
}

type account struct {
	cash  decimal.Decimal
	total decimal.Decimal
	notes []market.Note
}

// Engine is an in-memory lending platform. It is safe for concurrent use by
// several accounts.
type Engine struct {
	mu sync.Mutex

	accounts map[int64]*account
	loans    []market.Loan
	fresh    []market.Loan
	funding  map[int64]decimal.Decimal

	failures map[Op][]error
	calls    Calls
	orders   []broker.Order
	nextNote int64
}

var _ broker.Broker = (*Engine)(nil)

func NewEngine() *Engine {
	return &Engine{
		accounts: make(map[int64]*account),
		funding:  make(map[int64]decimal.Decimal),
		failures: make(map[Op][]error),
		nextNote: 1,
	}
}

// AddAccount registers an account with its cash, total value and holdings.
func (e *Engine) AddAccount(accountID int64, cash, total decimal.Decimal, notes ...market.Note) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.accounts[accountID] = &account{
		cash:  cash,
		total: total,
		notes: append([]market.Note(nil), notes...),
	}
}

// AddLoans lists loans. They appear in the next incremental listing and in
// every full listing. A loan's remaining funding is LoanAmount - FundedAmount.
func (e *Engine) AddLoans(loans ...market.Loan) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, l := range loans {
		e.loans = append(e.loans, l)
		e.fresh = append(e.fresh, l)
		e.funding[l.ID] = decimal.NewFromFloat(l.LoanAmount - l.FundedAmount)
	}
}

// FailNext makes the next call of op return err. Calls queue in order.
func (e *Engine) FailNext(op Op, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failures[op] = append(e.failures[op], err)
}

func (e *Engine) Calls() Calls {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// Orders returns every order submitted so far.
func (e *Engine) Orders() []broker.Order {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]broker.Order(nil), e.orders...)
}

// Cash returns an account's remaining cash.
func (e *Engine) Cash(accountID int64) decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	if a, ok := e.accounts[accountID]; ok {
		return a.cash
	}
	return decimal.Zero
}

func (e *Engine) AccountSummary(ctx context.Context, accountID int64) (broker.AccountSummary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.calls.Summary++
	if err := e.injectedLocked(ctx, OpSummary); err != nil {
		return broker.AccountSummary{}, err
	}
	a, ok := e.accounts[accountID]
	if !ok {
		return broker.AccountSummary{}, fmt.Errorf("account summary: %w: %d", ErrUnknownAccount, accountID)
	}

	outstanding := decimal.Zero
	for _, n := range a.notes {
		if n.IsCurrent() && n.PrincipalPending != nil {
			outstanding = outstanding.Add(*n.PrincipalPending)
		}
	}
	return broker.AccountSummary{
		InvestorID:           accountID,
		AvailableCash:        a.cash,
		AccountTotal:         a.total,
		OutstandingPrincipal: outstanding,
	}, nil
}

func (e *Engine) OwnedNotes(ctx context.Context, accountID int64) ([]market.Note, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.calls.Notes++
	if err := e.injectedLocked(ctx, OpNotes); err != nil {
		return nil, err
	}
	a, ok := e.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("owned notes: %w: %d", ErrUnknownAccount, accountID)
	}
	return append([]market.Note(nil), a.notes...), nil
}

func (e *Engine) ListLoans(ctx context.Context, showAll bool) ([]market.Loan, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if showAll {
		e.calls.FullListing++
	} else {
		e.calls.NewListing++
	}
	if err := e.injectedLocked(ctx, OpListing); err != nil {
		return nil, err
	}

	src := e.fresh
	if showAll {
		src = e.loans
	}
	out := append([]market.Loan{}, src...)
	e.fresh = nil
	return out, nil
}

// SubmitOrder fills each line that is still in funding, not yet owned by the
// account and covered by its cash. Unfilled lines report an invested amount
// of -1.
func (e *Engine) SubmitOrder(ctx context.Context, order broker.Order) ([]broker.Confirmation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.calls.Orders++
	if err := e.injectedLocked(ctx, OpOrder); err != nil {
		return nil, err
	}
	a, ok := e.accounts[order.AccountID]
	if !ok {
		return nil, fmt.Errorf("submit order: %w: %d", ErrUnknownAccount, order.AccountID)
	}
	e.orders = append(e.orders, order)

	confs := make([]broker.Confirmation, 0, len(order.Lines))
	for _, line := range order.Lines {
		status := e.fillLocked(a, line)
		c := broker.Confirmation{
			LoanID:          line.LoanID,
			RequestedAmount: line.RequestedAmount,
			ExecutionStatus: []string{status},
		}
		invested := decimal.NewFromInt(-1)
		if status == StatusFulfilled {
			invested = line.RequestedAmount
		}
		c.InvestedAmount = &invested
		confs = append(confs, c)
	}
	return confs, nil
}

func (e *Engine) fillLocked(a *account, line broker.OrderLine) string {
	if !market.IsDenominationMultiple(line.RequestedAmount) {
		return StatusInvalidAmount
	}
	loan, ok := e.loanLocked(line.LoanID)
	if !ok {
		return StatusNotInFunding
	}
	for _, n := range a.notes {
		if n.LoanID == line.LoanID {
			return StatusAlreadyOwned
		}
	}
	if e.funding[line.LoanID].LessThan(line.RequestedAmount) {
		return StatusFundingExhausted
	}
	if a.cash.LessThan(line.RequestedAmount) {
		return StatusInsufficientCash
	}

	a.cash = a.cash.Sub(line.RequestedAmount)
	e.funding[line.LoanID] = e.funding[line.LoanID].Sub(line.RequestedAmount)

	principal := line.RequestedAmount
	a.notes = append(a.notes, market.Note{
		LoanID:           line.LoanID,
		NoteID:           e.nextNote,
		Status:           market.StatusCurrent,
		Region:           loan.Region,
		PrincipalPending: &principal,
	})
	e.nextNote++
	return StatusFulfilled
}

func (e *Engine) loanLocked(loanID int64) (market.Loan, bool) {
	for _, l := range e.loans {
		if l.ID == loanID {
			return l, true
		}
	}
	return market.Loan{}, false
}

func (e *Engine) injectedLocked(ctx context.Context, op Op) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q := e.failures[op]
	if len(q) == 0 {
		return nil
	}
	err := q[0]
	e.failures[op] = q[1:]
	return err
}
