package buyer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rustyeddy/notebuyer/broker/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFleet_IsolatesAccounts(t *testing.T) {
	t.Parallel()

	e := sim.NewEngine()
	e.AddAccount(3, dec(25), dec(10000))
	e.AddLoans(testLoan(10, 12, "CA"), testLoan(11, 14, "TX"))

	// Account 1 talks to a platform that does not know it.
	stranger := sim.NewEngine()

	badConfig := errors.New("account 2: no token")
	j := &recordingJournal{}

	opts := DefaultOptions()
	opts.Deadline = 5 * time.Second

	f := &Fleet{
		Accounts: []Account{
			{ID: 1, Title: "first", Profile: testProfile(t, 1, 1), Broker: stranger},
			{ID: 2, Title: "misconfigured", Err: badConfig},
			{ID: 3, Title: "third", Profile: testProfile(t, 3, 1), Broker: e},
		},
		Options: opts,
		Journal: j,
		Clock:   newFakeClock(),
		Log:     zerolog.Nop(),
	}

	results := f.Run(context.Background())
	require.Len(t, results, 3)

	assert.Equal(t, int64(1), results[0].AccountID)
	assert.Equal(t, ReasonFailed, results[0].Reason)
	assert.ErrorIs(t, results[0].Err, sim.ErrUnknownAccount)

	assert.Equal(t, int64(2), results[1].AccountID)
	assert.Equal(t, ReasonConfigError, results[1].Reason)
	assert.ErrorIs(t, results[1].Err, badConfig)

	assert.Equal(t, int64(3), results[2].AccountID)
	assert.Equal(t, ReasonCashExhausted, results[2].Reason)
	assert.Equal(t, []int64{11}, results[2].Purchased)

	require.Len(t, j.runs, 2, "only started accounts journal a run")
}

func TestFleet_RecoversFromPanic(t *testing.T) {
	t.Parallel()

	e := sim.NewEngine()
	e.AddAccount(1, dec(25), dec(10000))
	e.AddAccount(2, dec(25), dec(10000))
	e.AddLoans(testLoan(10, 12, "CA"))

	f := &Fleet{
		Accounts: []Account{
			{ID: 1, Profile: testProfile(t, 1, 1), Broker: &hookBroker{Broker: e, panicOn: true}},
			{ID: 2, Profile: testProfile(t, 2, 1), Broker: e},
		},
		Options: DefaultOptions(),
		Clock:   newFakeClock(),
		Log:     zerolog.Nop(),
	}

	results := f.Run(context.Background())
	require.Len(t, results, 2)

	assert.Equal(t, ReasonFailed, results[0].Reason)
	require.Error(t, results[0].Err)
	assert.Contains(t, results[0].Err.Error(), "panic")

	assert.Equal(t, ReasonCashExhausted, results[1].Reason)
	assert.Equal(t, []int64{10}, results[1].Purchased)
}

func TestFleet_MissingBroker(t *testing.T) {
	t.Parallel()

	f := &Fleet{
		Accounts: []Account{{ID: 7, Profile: testProfile(t, 7, 1)}},
		Log:      zerolog.Nop(),
	}
	results := f.Run(context.Background())
	require.Len(t, results, 1)
	assert.Equal(t, ReasonConfigError, results[0].Reason)
}

func TestFleet_Empty(t *testing.T) {
	t.Parallel()

	f := &Fleet{Log: zerolog.Nop()}
	assert.Empty(t, f.Run(context.Background()))
}
