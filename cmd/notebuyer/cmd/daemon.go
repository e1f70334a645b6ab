package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/rustyeddy/notebuyer/config"
	"github.com/rustyeddy/notebuyer/journal"
	"github.com/spf13/cobra"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run buying passes on a schedule",
	Long: `Run a buying pass for every account each time the configured cron
schedule fires, until interrupted with SIGINT or SIGTERM.

The schedule has six fields, seconds first. The platform publishes new
loans four times a day, so the default fires at 06:00, 10:00, 14:00 and
18:00 local time:

  schedule:
    cron: "0 0 6,10,14,18 * * *"

Examples:
  notebuyer daemon -f notebuyer.yaml
  notebuyer daemon -f notebuyer.yaml --now`,
	Args: cobra.NoArgs,
	RunE: runDaemon,
}

var daemonNow bool

func init() {
	rootCmd.AddCommand(daemonCmd)

	daemonCmd.Flags().BoolVar(&daemonNow, "now", false, "run one pass immediately before waiting for the schedule")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Schedule.Cron == "" {
		return fmt.Errorf("schedule.cron is empty")
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

	out := cmd.OutOrStdout()
	pass := func() {
		if ctx.Err() != nil {
			return
		}
		printResults(out, fleet.Run(ctx))
	}

	cronLog := log.With().Str("component", "cron").Logger()
	c := cron.New(
		cron.WithParser(config.CronParser),
		cron.WithLogger(cron.PrintfLogger(&cronLog)),
		cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(&cronLog))),
	)
	entry, err := c.AddFunc(cfg.Schedule.Cron, pass)
	if err != nil {
		return fmt.Errorf("schedule %q: %w", cfg.Schedule.Cron, err)
	}

	c.Start()
	log.Info().
		Str("schedule", cfg.Schedule.Cron).
		Time("next", c.Entry(entry).Next).
		Int("accounts", len(fleet.Accounts)).
		Msg("daemon started")

	if daemonNow {
		c.Entry(entry).WrappedJob.Run()
	}

	<-ctx.Done()
	log.Info().Msg("shutting down")
	<-c.Stop().Done()
	return nil
}
