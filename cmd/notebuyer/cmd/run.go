package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rustyeddy/notebuyer/buyer"
	"github.com/rustyeddy/notebuyer/config"
	"github.com/rustyeddy/notebuyer/journal"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one buying pass for every account",
	Long: `Run one buying pass for every configured account and print the results.

Each account polls the listing until its deadline passes, its cash runs out
or the pass is interrupted. Accounts run concurrently and a failing account
never stops the others.

Example:
  notebuyer run -f notebuyer.yaml`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	j, err := journal.Open(cfg.JournalOptions())
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	fleet, err := newFleet(cfg, j, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results := fleet.Run(ctx)
	printResults(cmd.OutOrStdout(), results)
	return resultsError(results)
}

func newFleet(cfg *config.Config, j journal.Journal, log zerolog.Logger) (*buyer.Fleet, error) {
	opts, err := cfg.Platform.LoopOptions()
	if err != nil {
		return nil, err
	}
	accounts, err := buildAccounts(cfg, os.Getenv)
	if err != nil {
		return nil, err
	}
	return &buyer.Fleet{
		Accounts: accounts,
		Options:  opts,
		Journal:  j,
		Clock:    buyer.RealClock(),
		Log:      log,
	}, nil
}

func printResults(w io.Writer, results []buyer.Result) {
	for _, r := range results {
		mark := "✓"
		if r.Reason == buyer.ReasonFailed || r.Reason == buyer.ReasonConfigError {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s Account %d: %s\n", mark, r.AccountID, r.Reason)
		if r.RunID != "" {
			fmt.Fprintf(w, "  Run:       %s\n", r.RunID)
		}
		fmt.Fprintf(w, "  Cycles:    %d\n", r.Cycles)
		fmt.Fprintf(w, "  Purchased: %d notes ($%s)\n", len(r.Purchased), r.Invested.StringFixed(2))
		fmt.Fprintf(w, "  Cash left: $%s\n", r.Cash.StringFixed(2))
		if len(r.Purchased) > 0 {
			fmt.Fprintf(w, "  Loans:     %v\n", r.Purchased)
		}
		if r.Err != nil {
			fmt.Fprintf(w, "  Error:     %v\n", r.Err)
		}
	}
}

// resultsError fails the command only when no account could run at all.
func resultsError(results []buyer.Result) error {
	bad := 0
	for _, r := range results {
		if r.Reason == buyer.ReasonFailed || r.Reason == buyer.ReasonConfigError {
			bad++
		}
	}
	if len(results) > 0 && bad == len(results) {
		return fmt.Errorf("all %d accounts failed", bad)
	}
	return nil
}
