package buyer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rustyeddy/notebuyer/broker"
	"github.com/rustyeddy/notebuyer/journal"
	"github.com/rustyeddy/notebuyer/market"
	"github.com/rustyeddy/notebuyer/risk"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// fakeClock advances only when something sleeps on it.
type fakeClock struct {
	mu    sync.Mutex
	now   time.Time
	slept []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 2, 6, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slept = append(c.slept, d)
	if d > 0 {
		c.now = c.now.Add(d)
	}
	return nil
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingJournal struct {
	mu        sync.Mutex
	purchases []journal.PurchaseRecord
	runs      []journal.RunRecord
	err       error
}

func (j *recordingJournal) RecordPurchase(p journal.PurchaseRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.purchases = append(j.purchases, p)
	return j.err
}

func (j *recordingJournal) RecordRun(r journal.RunRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.runs = append(j.runs, r)
	return j.err
}

func (j *recordingJournal) Close() error { return nil }

// hookBroker wraps a Broker and lets a test observe or change each call.
type hookBroker struct {
	broker.Broker

	onList   func(ctx context.Context, showAll bool)
	onSubmit func(ctx context.Context, o broker.Order)
	panicOn  bool
}

func (b *hookBroker) ListLoans(ctx context.Context, showAll bool) ([]market.Loan, error) {
	if b.panicOn {
		panic("listing exploded")
	}
	if b.onList != nil {
		b.onList(ctx, showAll)
	}
	return b.Broker.ListLoans(ctx, showAll)
}

func (b *hookBroker) SubmitOrder(ctx context.Context, o broker.Order) ([]broker.Confirmation, error) {
	if b.onSubmit != nil {
		b.onSubmit(ctx, o)
	}
	return b.Broker.SubmitOrder(ctx, o)
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func testProfile(t *testing.T, accountID int64, concentrationCap float64) risk.Profile {
	t.Helper()
	p, err := risk.NewProfile(accountID, dec(25), concentrationCap, risk.Filters{}, risk.DefaultPolicy())
	require.NoError(t, err)
	return p
}

func testLoan(id int64, rate float64, region string) market.Loan {
	return market.Loan{
		ID:           id,
		LoanAmount:   10000,
		InterestRate: rate,
		Grade:        market.GradeB,
		Term:         36,
		Region:       region,
		AnnualIncome: 60000,
	}
}

func currentNote(loanID int64, region string, principal int64) market.Note {
	p := dec(principal)
	return market.Note{LoanID: loanID, Status: market.StatusCurrent, Region: region, PrincipalPending: &p}
}

func testLoop(p risk.Profile, b broker.Broker, clk Clock, j journal.Journal) *Loop {
	return &Loop{
		Profile: p,
		Broker:  b,
		Options: DefaultOptions(),
		Journal: j,
		Clock:   clk,
		Log:     zerolog.Nop(),
	}
}
