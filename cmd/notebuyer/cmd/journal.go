package cmd

import (
	"fmt"

	"github.com/rustyeddy/notebuyer/journal"
	"github.com/spf13/cobra"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query the purchase journal",
	Long: `Query and display runs and purchases recorded in the SQLite journal.

Subcommands:
  runs      - List recent runs
  run       - Show one run and the notes it bought
  purchases - List the notes bought for an account

Examples:
  notebuyer journal runs --limit 10
  notebuyer journal run 01J9Z3Q4
  notebuyer journal purchases --account 1234567`,
}

var journalRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent runs",
	Args:  cobra.NoArgs,
	RunE:  runJournalRuns,
}

var journalRunCmd = &cobra.Command{
	Use:   "run <run-id>",
	Short: "Show one run and its purchases",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalRun,
}

var journalPurchasesCmd = &cobra.Command{
	Use:   "purchases",
	Short: "List the notes bought for an account",
	Args:  cobra.NoArgs,
	RunE:  runJournalPurchases,
}

var (
	journalDBPath    string
	journalLimit     int
	journalOrg       bool
	journalAccountID int64
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalRunsCmd)
	journalCmd.AddCommand(journalRunCmd)
	journalCmd.AddCommand(journalPurchasesCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "./notebuyer.db", "path to SQLite journal DB")
	journalRunsCmd.Flags().IntVarP(&journalLimit, "limit", "n", 20, "number of runs to show (0 for all)")
	journalRunsCmd.Flags().BoolVar(&journalOrg, "org", false, "print runs as org-mode entries")
	journalPurchasesCmd.Flags().Int64Var(&journalAccountID, "account", 0, "account id (required)")
	journalPurchasesCmd.MarkFlagRequired("account")
}

func runJournalRuns(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	runs, err := j.ListRuns(journalLimit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded")
		return nil
	}

	if journalOrg {
		fmt.Println(journal.FormatRunsOrg(runs))
		return nil
	}
	for _, r := range runs {
		fmt.Printf("%s  %-10d %-15s %3d cycles  %3d notes  $%s\n",
			r.Started.Local().Format("2006-01-02 15:04:05"), r.AccountID, r.Reason,
			r.Cycles, r.Purchased, r.Invested.StringFixed(2))
	}
	return nil
}

func runJournalRun(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	runID := args[0]
	rec, err := j.GetRun(runID)
	if err != nil {
		return fmt.Errorf("get run: %w", err)
	}
	purchases, err := j.ListPurchasesByRun(runID)
	if err != nil {
		return fmt.Errorf("list purchases: %w", err)
	}

	fmt.Println(journal.FormatRunOrg(rec, purchases))
	return nil
}

func runJournalPurchases(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	purchases, err := j.ListPurchases(journalAccountID)
	if err != nil {
		return fmt.Errorf("list purchases: %w", err)
	}

	fmt.Printf("Account %d: %d notes\n\n", journalAccountID, len(purchases))
	for _, p := range purchases {
		fmt.Printf("%s  loan %-10d $%s  %5.2f%%  %-2s %-2s  %s\n",
			p.Time.Local().Format("2006-01-02 15:04"), p.LoanID, p.Amount.StringFixed(2),
			p.Rate, p.Grade, p.Region, p.Status)
	}
	return nil
}
