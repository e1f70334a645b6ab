package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rustyeddy/notebuyer/broker"
	"github.com/rustyeddy/notebuyer/broker/lendingclub"
	"github.com/rustyeddy/notebuyer/buyer"
	"github.com/rustyeddy/notebuyer/risk"
	"github.com/rustyeddy/notebuyer/strategy"
	"github.com/spf13/cobra"
)

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Screen the current listing for one account without buying",
	Long: `Fetch the full loan listing once and show how each loan screens against
an account's rules. No order is placed.

Rejected loans list every rule they failed. The account's holdings and
region exposure are loaded first, so owned loans and regions over the
concentration cap are rejected just as they would be in a real pass.

Examples:
  notebuyer screen -f notebuyer.yaml --account 1234567
  notebuyer screen -f notebuyer.yaml --account 1234567 --rejected`,
	Args: cobra.NoArgs,
	RunE: runScreen,
}

var (
	screenAccount  int64
	screenRejected bool
)

func init() {
	rootCmd.AddCommand(screenCmd)

	screenCmd.Flags().Int64Var(&screenAccount, "account", 0, "account id to screen for (required)")
	screenCmd.Flags().BoolVar(&screenRejected, "rejected", false, "also list rejected loans and their reasons")
	screenCmd.MarkFlagRequired("account")
}

func runScreen(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	ac, ok := cfg.Account(screenAccount)
	if !ok {
		return fmt.Errorf("account %d is not configured", screenAccount)
	}
	prof, err := ac.Profile(risk.DefaultPolicy())
	if err != nil {
		return err
	}
	token, err := ac.ResolveToken(os.Getenv)
	if err != nil {
		return err
	}
	timeout, err := cfg.Platform.HTTPTimeout()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := lendingclub.NewClient(cfg.Platform.BaseURL, token, timeout)
	return screenListing(ctx, cmd.OutOrStdout(), client, prof, screenRejected)
}

// screenListing loads the account, screens one full listing and prints the
// decisions followed by the loans a pass would order now.
func screenListing(ctx context.Context, w io.Writer, b broker.Broker, prof risk.Profile, showRejected bool) error {
	summary, err := b.AccountSummary(ctx, prof.AccountID)
	if err != nil {
		return fmt.Errorf("account summary: %w", err)
	}
	notes, err := b.OwnedNotes(ctx, prof.AccountID)
	if err != nil {
		return fmt.Errorf("owned notes: %w", err)
	}
	ledger := buyer.SeedLedger(notes)
	prof.AllowedRegions = risk.AllowedRegions(notes, prof.ConcentrationCap, summary.AccountTotal)

	loans, err := b.ListLoans(ctx, true)
	if err != nil {
		return fmt.Errorf("list loans: %w", err)
	}

	fmt.Fprintf(w, "Account %d: cash $%s, total $%s, %d notes owned\n",
		prof.AccountID, summary.AvailableCash.StringFixed(2), summary.AccountTotal.StringFixed(2), ledger.Len())
	fmt.Fprintf(w, "Listing: %d loans\n\n", len(loans))

	eligible := 0
	for _, l := range loans {
		d := risk.Evaluate(l, prof, ledger)
		if d.Allowed {
			eligible++
			fmt.Fprintf(w, "✓ %-10d %-3s %6.2f%%  %-2s  %s\n", l.ID, l.SubGrade, l.InterestRate, l.Region, l.Purpose)
			continue
		}
		if showRejected {
			codes := make([]string, len(d.Violations))
			for k, v := range d.Violations {
				codes[k] = v.Code
			}
			fmt.Fprintf(w, "✗ %-10d %-3s %6.2f%%  %-2s  %s\n", l.ID, l.SubGrade, l.InterestRate, l.Region, strings.Join(codes, ","))
		}
	}

	picked := make([]int64, 0)
	candidates := risk.Screen(loans, prof, ledger)
	for _, l := range strategy.Select(candidates, strategy.Capacity(summary.AvailableCash, prof.AmountPerLoan)) {
		picked = append(picked, l.ID)
	}

	fmt.Fprintf(w, "\n%d of %d loans eligible\n", eligible, len(loans))
	fmt.Fprintf(w, "Would order %d notes of $%s: %v\n", len(picked), prof.AmountPerLoan.StringFixed(2), picked)
	return nil
}
