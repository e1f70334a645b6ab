package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rustyeddy/notebuyer/broker/sim"
	"github.com/rustyeddy/notebuyer/buyer"
	"github.com/rustyeddy/notebuyer/journal"
	"github.com/rustyeddy/notebuyer/logger"
	"github.com/rustyeddy/notebuyer/market"
	"github.com/rustyeddy/notebuyer/risk"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the fleet against a simulated platform",
	Long: `Run three accounts against an in-memory lending platform to see how a
buying pass behaves. Nothing leaves the process.

The simulated platform starts with a generated listing and adds a batch of
new loans every drip interval. The accounts screen differently:
  1001 conservative - grades A to C, employed borrowers
  1002 yield        - grades D to G, rate of at least 15%
  1003 broad        - any grade, small cash balance

Examples:
  notebuyer demo
  notebuyer demo --deadline 10s --loans 100 --seed 7
  notebuyer demo --db ./demo.db`,
	Args: cobra.NoArgs,
	RunE: runDemo,
}

// demoOptions sizes the simulated market and the pass.
type demoOptions struct {
	Seed     uint64
	Loans    int
	Drip     int
	Every    time.Duration
	Deadline time.Duration
	Interval time.Duration
}

var (
	demoOpts  demoOptions
	demoDB    string
	demoDebug bool
)

func init() {
	rootCmd.AddCommand(demoCmd)

	demoCmd.Flags().Uint64Var(&demoOpts.Seed, "seed", 1, "seed of the generated listing")
	demoCmd.Flags().IntVar(&demoOpts.Loans, "loans", 40, "loans in the initial listing")
	demoCmd.Flags().IntVar(&demoOpts.Drip, "drip", 5, "loans added per drip interval")
	demoCmd.Flags().DurationVar(&demoOpts.Every, "every", time.Second, "drip interval")
	demoCmd.Flags().DurationVar(&demoOpts.Deadline, "deadline", 5*time.Second, "pass deadline per account")
	demoCmd.Flags().DurationVar(&demoOpts.Interval, "interval", 250*time.Millisecond, "minimum time between listing requests")
	demoCmd.Flags().StringVar(&demoDB, "db", "", "record the pass in this SQLite journal")
	demoCmd.Flags().BoolVar(&demoDebug, "debug", false, "log every state transition")
}

func runDemo(cmd *cobra.Command, args []string) error {
	level := "info"
	if demoDebug {
		level = "debug"
	}
	log := logger.New(logger.Config{Level: level, Pretty: true})

	var j journal.Journal = journal.Nop{}
	if demoDB != "" {
		db, err := journal.NewSQLite(demoDB)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer db.Close()
		j = db
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, err := runDemoFleet(ctx, cmd.OutOrStdout(), demoOpts, j, buyer.RealClock(), log)
	return err
}

// runDemoFleet seeds a simulated platform, runs one fleet pass against it
// and prints what happened. Each account gets its own engine so incremental
// listings are not shared between them; all engines list the same loans.
func runDemoFleet(ctx context.Context, w io.Writer, opts demoOptions, j journal.Journal, clock buyer.Clock, log zerolog.Logger) ([]buyer.Result, error) {
	accounts, engines, err := demoAccounts(sim.GenerateLoans(opts.Seed, 100000, opts.Loans))
	if err != nil {
		return nil, err
	}

	dripCtx, stopDrip := context.WithCancel(ctx)
	defer stopDrip()
	if opts.Drip > 0 && opts.Every > 0 {
		go drip(dripCtx, engines, opts)
	}

	fleet := &buyer.Fleet{
		Accounts: accounts,
		Options: buyer.Options{
			MinRequestInterval:     opts.Interval,
			Deadline:               opts.Deadline,
			MaxConsecutiveFailures: buyer.DefaultOptions().MaxConsecutiveFailures,
		},
		Journal: j,
		Clock:   clock,
		Log:     log,
	}

	fmt.Fprintf(w, "Simulated platform: %d loans listed, %d more every %s\n\n", opts.Loans, opts.Drip, opts.Every)
	results := fleet.Run(ctx)
	stopDrip()

	printResults(w, results)

	var calls sim.Calls
	for _, e := range engines {
		c := e.Calls()
		calls.FullListing += c.FullListing
		calls.NewListing += c.NewListing
		calls.Orders += c.Orders
	}
	fmt.Fprintf(w, "\nPlatform calls: %d full listings, %d incremental, %d orders\n",
		calls.FullListing, calls.NewListing, calls.Orders)
	return results, nil
}

func drip(ctx context.Context, engines []*sim.Engine, opts demoOptions) {
	ticker := time.NewTicker(opts.Every)
	defer ticker.Stop()

	next := int64(100000 + opts.Loans)
	seed := opts.Seed
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			seed++
			batch := sim.GenerateLoans(seed, next, opts.Drip)
			for _, e := range engines {
				e.AddLoans(batch...)
			}
			next += int64(opts.Drip)
		}
	}
}

func demoAccounts(listing []market.Loan) ([]buyer.Account, []*sim.Engine, error) {
	policy := risk.DefaultPolicy()
	amount := decimal.NewFromInt(25)

	type demoAccount struct {
		id      int64
		title   string
		cash    int64
		total   int64
		filters risk.Filters
	}
	minRate := 15.0
	employed := true
	accts := []demoAccount{
		{1001, "conservative", 500, 20000, risk.Filters{
			Grades:            []market.Grade{market.GradeA, market.GradeB, market.GradeC},
			RequireEmployment: &employed,
		}},
		{1002, "yield", 400, 8000, risk.Filters{
			Grades:          []market.Grade{market.GradeD, market.GradeE, market.GradeF, market.GradeG},
			MinInterestRate: &minRate,
		}},
		{1003, "broad", 100, 2000, risk.Filters{}},
	}

	accounts := make([]buyer.Account, 0, len(accts))
	engines := make([]*sim.Engine, 0, len(accts))
	for _, s := range accts {
		prof, err := risk.NewProfile(s.id, amount, 0.1, s.filters, policy)
		if err != nil {
			return nil, nil, err
		}
		engine := sim.NewEngine()
		engine.AddAccount(s.id, decimal.NewFromInt(s.cash), decimal.NewFromInt(s.total))
		engine.AddLoans(listing...)
		engines = append(engines, engine)

		accounts = append(accounts, buyer.Account{
			ID:      s.id,
			Title:   s.title,
			Profile: prof,
			Broker:  engine,
		})
	}
	return accounts, engines, nil
}
