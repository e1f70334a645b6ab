package buyer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rustyeddy/notebuyer/broker"
	"github.com/rustyeddy/notebuyer/id"
	"github.com/rustyeddy/notebuyer/journal"
	"github.com/rustyeddy/notebuyer/market"
	"github.com/rustyeddy/notebuyer/risk"
	"github.com/rustyeddy/notebuyer/strategy"
	"github.com/shopspring/decimal"
)

var ErrTooManyFailures = errors.New("too many consecutive failures")

// State is where a loop is in its cycle.
type State int

const (
	StateIdle State = iota
	StateFetching
	StateFiltering
	StateNoCandidates
	StateOrdering
	StateReconciling
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateFiltering:
		return "filtering"
	case StateNoCandidates:
		return "no_candidates"
	case StateOrdering:
		return "ordering"
	case StateReconciling:
		return "reconciling"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Reason says why a loop terminated.
type Reason string

const (
	ReasonDeadline      Reason = "deadline"
	ReasonCashExhausted Reason = "cash_exhausted"
	ReasonCanceled      Reason = "canceled"
	ReasonFailed        Reason = "failed"
	ReasonConfigError   Reason = "config_error"
)

// Options bound a loop run.
type Options struct {
	MinRequestInterval time.Duration

	// Deadline is measured from the start of Run and checked between cycles.
	Deadline time.Duration

	// MaxConsecutiveFailures ends the run after that many failed cycles in
	// a row. Zero means never.
	MaxConsecutiveFailures int
}

func DefaultOptions() Options {
	return Options{
		MinRequestInterval:     time.Second,
		Deadline:               90 * time.Second,
		MaxConsecutiveFailures: 5,
	}
}

// Result is the outcome of one run of one account.
type Result struct {
	AccountID int64
	RunID     string
	Reason    Reason
	Cycles    int
	Purchased []int64
	Invested  decimal.Decimal
	Cash      decimal.Decimal
	Started   time.Time
	Finished  time.Time
	Err       error
}

// Loop buys notes for one account until its deadline passes, its cash runs
// out or its context is canceled.
type Loop struct {
	Profile risk.Profile
	Broker  broker.Broker
	Options Options

	Journal journal.Journal
	Clock   Clock
	Log     zerolog.Logger
}

// run is the per-invocation state of a Loop.
type run struct {
	broker  broker.Broker
	opts    Options
	profile risk.Profile
	clock   Clock
	journal journal.Journal

	log     zerolog.Logger
	res     Result
	state   State
	account *AccountState
	pacer   *pacer

	fullListing bool
	failures    int
}

// Run executes the loop to termination. It never returns an error directly;
// failures are reported in the Result.
func (l *Loop) Run(ctx context.Context) Result {
	clock := l.Clock
	if clock == nil {
		clock = RealClock()
	}
	j := l.Journal
	if j == nil {
		j = journal.Nop{}
	}

	runID := id.New()
	r := &run{
		broker:  l.Broker,
		opts:    l.Options,
		profile: l.Profile,
		clock:   clock,
		journal: j,
		log: l.Log.With().
			Str("component", "loop").
			Int64("account", l.Profile.AccountID).
			Str("run_id", runID).
			Logger(),
		res: Result{
			AccountID: l.Profile.AccountID,
			RunID:     runID,
			Invested:  decimal.Zero,
			Cash:      decimal.Zero,
			Started:   clock.Now(),
		},
		fullListing: true,
	}

	r.log.Info().Str("amount", l.Profile.AmountPerLoan.String()).Msg("run started")
	r.execute(ctx)
	r.finish()
	return r.res
}

func (r *run) execute(ctx context.Context) {
	if err := r.profile.Validate(); err != nil {
		r.terminate(ReasonConfigError, err)
		return
	}

	if !r.start(ctx) {
		return
	}

	for {
		r.transition(StateIdle)
		if err := ctx.Err(); err != nil {
			r.terminate(ReasonCanceled, err)
			return
		}
		if r.clock.Now().Sub(r.res.Started) >= r.opts.Deadline {
			r.terminate(ReasonDeadline, nil)
			return
		}
		if !r.account.CanAfford(r.profile.AmountPerLoan) {
			r.terminate(ReasonCashExhausted, nil)
			return
		}

		if !r.cycle(ctx) {
			return
		}
	}
}

// start loads the account summary, holdings and region limits. It reports
// false when the run is already over.
func (r *run) start(ctx context.Context) bool {
	summary, err := r.broker.AccountSummary(ctx, r.profile.AccountID)
	if err != nil {
		r.terminate(r.failureReason(ctx), fmt.Errorf("account summary: %w", err))
		return false
	}
	r.account = NewAccountState(summary, nil)
	r.res.Cash = summary.AvailableCash

	if !r.account.CanAfford(r.profile.AmountPerLoan) {
		r.terminate(ReasonCashExhausted, nil)
		return false
	}

	notes, err := r.broker.OwnedNotes(ctx, r.profile.AccountID)
	if err != nil {
		r.terminate(r.failureReason(ctx), fmt.Errorf("owned notes: %w", err))
		return false
	}
	r.account.Ledger = SeedLedger(notes)

	exposure := risk.CalculateExposure(notes)
	if exposure.Skipped > 0 {
		r.log.Warn().Int("skipped", exposure.Skipped).Msg("notes without principal or region left out of exposure")
	}
	r.profile.AllowedRegions = exposure.Allowed(r.profile.ConcentrationCap, summary.AccountTotal)
	r.pacer = newPacer(r.clock, r.opts.MinRequestInterval)

	r.log.Info().
		Str("cash", summary.AvailableCash.String()).
		Str("total", summary.AccountTotal.String()).
		Int("owned", r.account.Ledger.Len()).
		Int("allowed_regions", len(r.profile.AllowedRegions)).
		Msg("account loaded")
	return true
}

// cycle runs one fetch, filter and order pass. It reports false when the
// run has terminated.
func (r *run) cycle(ctx context.Context) bool {
	r.res.Cycles++

	r.transition(StateFetching)
	if err := r.pacer.Wait(ctx); err != nil {
		r.terminate(ReasonCanceled, err)
		return false
	}
	loans, err := r.broker.ListLoans(ctx, r.fullListing)
	if err != nil {
		return r.cycleFailed(ctx, fmt.Errorf("list loans: %w", err))
	}
	r.fullListing = false

	r.transition(StateFiltering)
	amount := r.profile.AmountPerLoan
	eligible := risk.Screen(loans, r.profile, r.account.Ledger)
	selected := strategy.Select(eligible, strategy.Capacity(r.account.Cash, amount))
	r.log.Debug().
		Int("listed", len(loans)).
		Int("eligible", len(eligible)).
		Int("selected", len(selected)).
		Msg("listing screened")

	if len(selected) == 0 {
		r.transition(StateNoCandidates)
		r.failures = 0
		return r.sleep(ctx)
	}

	r.transition(StateOrdering)
	order := broker.BuildOrder(r.profile.AccountID, r.profile.PortfolioID, selected, amount)
	// An order already sent must be allowed to finish.
	confs, err := r.broker.SubmitOrder(context.WithoutCancel(ctx), order)
	if err != nil {
		return r.cycleFailed(ctx, fmt.Errorf("submit order: %w", err))
	}
	r.failures = 0

	r.transition(StateReconciling)
	filled := r.account.Reconcile(confs, amount)
	r.record(selected, filled)
	r.log.Info().
		Int("ordered", len(order.Lines)).
		Int("filled", len(filled)).
		Str("cash", r.account.Cash.String()).
		Msg("order reconciled")
	return true
}

func (r *run) record(selected []market.Loan, filled []broker.Confirmation) {
	byID := make(map[int64]market.Loan, len(selected))
	for _, l := range selected {
		byID[l.ID] = l
	}

	now := r.clock.Now()
	for _, c := range filled {
		loan := byID[c.LoanID]
		rec := journal.PurchaseRecord{
			RunID:     r.res.RunID,
			AccountID: r.profile.AccountID,
			LoanID:    c.LoanID,
			Amount:    *c.InvestedAmount,
			Rate:      loan.InterestRate,
			Grade:     string(loan.Grade),
			Region:    market.NormalizeRegion(loan.Region),
			Status:    firstStatus(c.ExecutionStatus),
			Time:      now,
		}
		if err := r.journal.RecordPurchase(rec); err != nil {
			r.log.Error().Err(err).Int64("loan", c.LoanID).Msg("journal purchase")
		}
	}
}

// cycleFailed counts a failed cycle and either ends the run or backs off.
func (r *run) cycleFailed(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		r.terminate(ReasonCanceled, err)
		return false
	}

	r.failures++
	r.log.Warn().Err(err).Int("consecutive", r.failures).Msg("cycle failed")

	if limit := r.opts.MaxConsecutiveFailures; limit > 0 && r.failures >= limit {
		r.terminate(ReasonFailed, fmt.Errorf("%w (%d): %w", ErrTooManyFailures, r.failures, err))
		return false
	}
	return r.sleep(ctx)
}

func (r *run) sleep(ctx context.Context) bool {
	if err := r.clock.Sleep(ctx, r.opts.MinRequestInterval); err != nil {
		r.terminate(ReasonCanceled, err)
		return false
	}
	return true
}

func (r *run) failureReason(ctx context.Context) Reason {
	if ctx.Err() != nil {
		return ReasonCanceled
	}
	return ReasonFailed
}

func (r *run) transition(s State) {
	r.state = s
	r.log.Debug().Stringer("state", s).Msg("transition")
}

func (r *run) terminate(reason Reason, err error) {
	r.transition(StateTerminated)
	r.res.Reason = reason
	r.res.Err = err
}

func (r *run) finish() {
	if r.account != nil {
		r.res.Cash = r.account.Cash
		r.res.Invested = r.account.Invested
		r.res.Purchased = r.account.Purchased
	}
	r.res.Finished = r.clock.Now()

	rec := journal.RunRecord{
		RunID:     r.res.RunID,
		AccountID: r.res.AccountID,
		Started:   r.res.Started,
		Finished:  r.res.Finished,
		Reason:    string(r.res.Reason),
		Cycles:    r.res.Cycles,
		Purchased: len(r.res.Purchased),
		Invested:  r.res.Invested,
		CashLeft:  r.res.Cash,
	}
	if r.res.Err != nil {
		rec.Error = r.res.Err.Error()
	}
	if err := r.journal.RecordRun(rec); err != nil {
		r.log.Error().Err(err).Msg("journal run")
	}

	ev := r.log.Info()
	if r.res.Err != nil {
		ev = r.log.Error().Err(r.res.Err)
	}
	ev.Str("reason", string(r.res.Reason)).
		Int("cycles", r.res.Cycles).
		Int("purchased", len(r.res.Purchased)).
		Str("invested", r.res.Invested.String()).
		Str("cash", r.res.Cash.String()).
		Msg("run finished")
}

func firstStatus(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}
