package buyer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rustyeddy/notebuyer/broker"
	"github.com/rustyeddy/notebuyer/journal"
	"github.com/rustyeddy/notebuyer/risk"
	"golang.org/x/sync/errgroup"
)

// Account is one fleet member.
type Account struct {
	ID      int64
	Title   string
	Profile risk.Profile
	Broker  broker.Broker

	// Err is a problem found while configuring the account. Such an account
	// is reported with ReasonConfigError and never contacts the platform.
	Err error
}

// Fleet runs one loop per account concurrently. Accounts share the options,
// journal, clock and logger but nothing else.
type Fleet struct {
	Accounts []Account
	Options  Options
	Journal  journal.Journal
	Clock    Clock
	Log      zerolog.Logger
}

// Run starts every account and waits for all of them. Results are in the
// order of Accounts. One account failing never stops another.
func (f *Fleet) Run(ctx context.Context) []Result {
	log := f.Log.With().Str("component", "fleet").Logger()
	results := make([]Result, len(f.Accounts))

	// A plain Group: an account's failure must not cancel its siblings.
	var g errgroup.Group
	for i, acct := range f.Accounts {
		g.Go(func() error {
			results[i] = f.runAccount(ctx, acct)
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		ev := log.Info()
		if r.Reason == ReasonFailed || r.Reason == ReasonConfigError {
			ev = log.Warn()
		}
		ev.Int64("account", r.AccountID).
			Str("reason", string(r.Reason)).
			Int("purchased", len(r.Purchased)).
			Msg("account done")
	}
	return results
}

func (f *Fleet) runAccount(ctx context.Context, acct Account) (res Result) {
	accountID := acct.ID
	if accountID == 0 {
		accountID = acct.Profile.AccountID
	}

	if acct.Err != nil || acct.Broker == nil {
		err := acct.Err
		if err == nil {
			err = fmt.Errorf("account %d: no platform client", accountID)
		}
		f.Log.Error().Err(err).Int64("account", accountID).Msg("account not started")
		return Result{AccountID: accountID, Reason: ReasonConfigError, Err: err}
	}

	defer func() {
		if p := recover(); p != nil {
			res = Result{
				AccountID: accountID,
				RunID:     res.RunID,
				Reason:    ReasonFailed,
				Err:       fmt.Errorf("account %d: panic: %v", accountID, p),
			}
		}
	}()

	loop := &Loop{
		Profile: acct.Profile,
		Broker:  acct.Broker,
		Options: f.Options,
		Journal: f.Journal,
		Clock:   f.Clock,
		Log:     f.Log.With().Str("title", acct.Title).Logger(),
	}
	return loop.Run(ctx)
}
