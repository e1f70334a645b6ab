package cmd

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rustyeddy/notebuyer/broker/sim"
	"github.com/rustyeddy/notebuyer/buyer"
	"github.com/rustyeddy/notebuyer/config"
	"github.com/rustyeddy/notebuyer/journal"
	"github.com/rustyeddy/notebuyer/market"
	"github.com/rustyeddy/notebuyer/risk"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestBuildAccounts(t *testing.T) {
	cfg := config.Default()
	good := cfg.Accounts[0]

	badGrade := good
	badGrade.ID = 2
	badGrade.TokenEnv = ""
	badGrade.Token = "t2"
	badGrade.Grades = []string{"Z"}

	noToken := good
	noToken.ID = 3
	noToken.TokenEnv = ""

	cfg.Accounts = append(cfg.Accounts, badGrade, noToken)

	accounts, err := buildAccounts(cfg, env(map[string]string{
		config.TokenEnvPrefix + "1234567": "secret",
	}))
	require.NoError(t, err)
	require.Len(t, accounts, 3)

	assert.NoError(t, accounts[0].Err)
	assert.NotNil(t, accounts[0].Broker)
	assert.Equal(t, int64(1234567), accounts[0].Profile.AccountID)

	assert.Error(t, accounts[1].Err)
	assert.Nil(t, accounts[1].Broker)
	assert.Contains(t, accounts[1].Err.Error(), "unknown grade")

	assert.Error(t, accounts[2].Err)
	assert.Nil(t, accounts[2].Broker)
	assert.Contains(t, accounts[2].Err.Error(), "no token")
}

func TestBuildAccounts_BadTimeout(t *testing.T) {
	cfg := config.Default()
	cfg.Platform.Timeout = "soon"

	_, err := buildAccounts(cfg, env(nil))
	assert.Error(t, err)
}

func TestPrintResults(t *testing.T) {
	results := []buyer.Result{
		{
			AccountID: 1,
			RunID:     "01HRUN",
			Reason:    buyer.ReasonCashExhausted,
			Cycles:    3,
			Purchased: []int64{10, 11},
			Invested:  decimal.NewFromInt(50),
			Cash:      decimal.NewFromInt(5),
		},
		{
			AccountID: 2,
			Reason:    buyer.ReasonConfigError,
			Invested:  decimal.Zero,
			Cash:      decimal.Zero,
			Err:       errors.New("account 2: unknown grade"),
		},
	}

	var buf bytes.Buffer
	printResults(&buf, results)
	out := buf.String()

	assert.Contains(t, out, "✓ Account 1: cash_exhausted")
	assert.Contains(t, out, "Purchased: 2 notes ($50.00)")
	assert.Contains(t, out, "Cash left: $5.00")
	assert.Contains(t, out, "[10 11]")
	assert.Contains(t, out, "✗ Account 2: config_error")
	assert.Contains(t, out, "unknown grade")
}

func TestResultsError(t *testing.T) {
	tests := []struct {
		name    string
		reasons []buyer.Reason
		wantErr bool
	}{
		{"none", nil, false},
		{"all fine", []buyer.Reason{buyer.ReasonDeadline, buyer.ReasonCashExhausted}, false},
		{"some failed", []buyer.Reason{buyer.ReasonFailed, buyer.ReasonDeadline}, false},
		{"all failed", []buyer.Reason{buyer.ReasonFailed, buyer.ReasonConfigError}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := make([]buyer.Result, len(tt.reasons))
			for i, r := range tt.reasons {
				results[i] = buyer.Result{AccountID: int64(i + 1), Reason: r}
			}
			err := resultsError(results)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func screenLoan(id int64, rate float64, grade market.Grade) market.Loan {
	years := 5
	return market.Loan{
		ID:               id,
		LoanAmount:       10000,
		FundedAmount:     1000,
		Term:             36,
		InterestRate:     rate,
		Grade:            grade,
		SubGrade:         string(grade) + "1",
		Purpose:          "credit_card",
		Region:           "CA",
		AnnualIncome:     90000,
		HomeOwnership:    "RENT",
		EmploymentLength: &years,
	}
}

func TestScreenListing(t *testing.T) {
	engine := sim.NewEngine()
	principal := decimal.NewFromInt(20)
	engine.AddAccount(7, decimal.NewFromInt(50), decimal.NewFromInt(1000),
		market.Note{LoanID: 3, NoteID: 1, Status: market.StatusCurrent, Region: "NY", PrincipalPending: &principal})
	engine.AddLoans(
		screenLoan(1, 9.5, market.GradeA),
		screenLoan(2, 21.0, market.GradeE),
		screenLoan(3, 12.0, market.GradeB),
		screenLoan(4, 14.0, market.GradeC),
	)

	prof, err := risk.NewProfile(7, decimal.NewFromInt(25), 0.5, risk.Filters{
		Grades: []market.Grade{market.GradeA, market.GradeB, market.GradeC},
	}, risk.DefaultPolicy())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, screenListing(context.Background(), &buf, engine, prof, true))
	out := buf.String()

	assert.Contains(t, out, "Account 7: cash $50.00, total $1000.00, 1 notes owned")
	assert.Contains(t, out, "Listing: 4 loans")
	assert.Contains(t, out, "GRADE_NOT_ALLOWED")
	assert.Contains(t, out, "ALREADY_OWNED")
	assert.Contains(t, out, "2 of 4 loans eligible")
	assert.Contains(t, out, "Would order 2 notes of $25.00: [4 1]")

	assert.Empty(t, engine.Orders(), "screening never orders")
	assert.Equal(t, 1, engine.Calls().FullListing)
}

func TestScreenListing_PlatformError(t *testing.T) {
	engine := sim.NewEngine()
	engine.AddAccount(7, decimal.NewFromInt(50), decimal.NewFromInt(1000))
	engine.FailNext(sim.OpListing, errors.New("503"))

	prof, err := risk.NewProfile(7, decimal.NewFromInt(25), 0.5, risk.Filters{}, risk.DefaultPolicy())
	require.NoError(t, err)

	err = screenListing(context.Background(), &bytes.Buffer{}, engine, prof, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list loans")
}

func TestReportConfig(t *testing.T) {
	cfg := config.Default()
	broken := cfg.Accounts[0]
	broken.ID = 99
	broken.ConcentrationCap = 2
	cfg.Accounts = append(cfg.Accounts, broken)

	var buf bytes.Buffer
	err := reportConfig(&buf, cfg, env(map[string]string{
		config.TokenEnvPrefix + "1234567": "secret",
	}))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "✓ Account 1234567 primary: $25.00 per loan, cap 5%")
	assert.Contains(t, out, "✗ Account 99:")
	assert.Contains(t, out, "Schedule: 0 0 6,10,14,18 * * *")
}

func TestReportConfig_NoUsableAccount(t *testing.T) {
	cfg := config.Default()

	err := reportConfig(&bytes.Buffer{}, cfg, env(nil))
	assert.Error(t, err)
}

func TestRunDemoFleet(t *testing.T) {
	opts := demoOptions{
		Seed:     3,
		Loans:    40,
		Deadline: 200 * time.Millisecond,
		Interval: 10 * time.Millisecond,
	}

	var buf bytes.Buffer
	results, err := runDemoFleet(context.Background(), &buf, opts, journal.Nop{}, buyer.RealClock(), zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, id := range []int64{1001, 1002, 1003} {
		assert.Equal(t, id, results[i].AccountID)
		assert.NotEqual(t, buyer.ReasonFailed, results[i].Reason)
		assert.NotEqual(t, buyer.ReasonConfigError, results[i].Reason)
	}

	broad := results[2]
	assert.Equal(t, buyer.ReasonCashExhausted, broad.Reason)
	assert.Len(t, broad.Purchased, 4)
	assert.True(t, broad.Cash.IsZero())

	assert.Contains(t, buf.String(), "Simulated platform: 40 loans listed")
	assert.Contains(t, buf.String(), "Platform calls:")
}
