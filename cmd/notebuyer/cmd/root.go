package cmd

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rustyeddy/notebuyer/broker/lendingclub"
	"github.com/rustyeddy/notebuyer/buyer"
	"github.com/rustyeddy/notebuyer/config"
	"github.com/rustyeddy/notebuyer/logger"
	"github.com/rustyeddy/notebuyer/risk"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "notebuyer",
	Short: "Unattended buyer of fractional loan notes",
	Long: `Notebuyer watches a peer lending platform's loan listing and buys a fixed
amount of each new loan that passes an account's screening rules.

It provides tools for:
  - Running one buying pass for every configured account
  - Scheduling passes around the platform's listing times
  - Previewing how a listing screens without placing orders
  - Querying the purchase journal

Complete documentation is available at https://github.com/rustyeddy/notebuyer`,
	SilenceUsage: true,
}

var (
	cfgFile string
	envFile string
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "file", "f", "notebuyer.yaml", "path to config file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "path to a .env file holding account tokens")
}

// loadConfig reads the .env file and the config file and builds the logger.
func loadConfig() (*config.Config, zerolog.Logger, error) {
	if err := config.LoadEnv(envFile); err != nil {
		return nil, zerolog.Nop(), err
	}
	cfg, err := config.LoadFromFile(cfgFile)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Logger())
	logger.SetGlobalLogger(log)
	return cfg, log, nil
}

// buildAccounts turns the configured accounts into fleet members talking to
// the live platform. A bad account carries its error instead of a broker.
func buildAccounts(cfg *config.Config, getenv func(string) string) ([]buyer.Account, error) {
	timeout, err := cfg.Platform.HTTPTimeout()
	if err != nil {
		return nil, err
	}

	policy := risk.DefaultPolicy()
	accounts := make([]buyer.Account, 0, len(cfg.Accounts))
	for _, ac := range cfg.Accounts {
		acct := buyer.Account{ID: ac.ID, Title: ac.Title}

		acct.Profile, acct.Err = ac.Profile(policy)
		if acct.Err == nil {
			var token string
			token, acct.Err = ac.ResolveToken(getenv)
			if acct.Err == nil {
				acct.Broker = lendingclub.NewClient(cfg.Platform.BaseURL, token, timeout)
			}
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}
