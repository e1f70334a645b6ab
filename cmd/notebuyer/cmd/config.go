package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/rustyeddy/notebuyer/config"
	"github.com/rustyeddy/notebuyer/risk"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate configuration files",
	Long: `Manage the buyer's configuration file.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file and its accounts

Examples:
  notebuyer config init -o notebuyer.yaml
  notebuyer config validate -f notebuyer.yaml`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default configuration file",
	Long: `Create a new configuration file with one example account.

The account's token is read from NOTEBUYER_TOKEN_<id>, which may be set in
a .env file next to the config.

Example:
  notebuyer config init -o notebuyer.yaml`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Check that a configuration file loads, then check every account's
screening rules and token.

Account problems are reported but only stop that account in a real pass,
so validate fails only when no account is usable.

Example:
  notebuyer config validate -f notebuyer.yaml`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

var (
	configInitOutput string
	configInitForce  bool
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "notebuyer.yaml", "output config file path")
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if !configInitForce {
		if _, err := os.Stat(configInitOutput); err == nil {
			return fmt.Errorf("%s exists (use --force to overwrite)", configInitOutput)
		}
	}

	cfg := config.Default()
	if err := cfg.SaveToFile(configInitOutput); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Printf("✓ Created default configuration: %s\n", configInitOutput)
	fmt.Println("\nSet the account token, edit the file and run with:")
	fmt.Printf("  echo %s%d=<token> >> .env\n", config.TokenEnvPrefix, cfg.Accounts[0].ID)
	fmt.Printf("  notebuyer run -f %s\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if err := config.LoadEnv(envFile); err != nil {
		return err
	}
	cfg, err := config.LoadFromFile(cfgFile)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return reportConfig(cmd.OutOrStdout(), cfg, os.Getenv)
}

// reportConfig prints the fleet settings and checks each account.
func reportConfig(w io.Writer, cfg *config.Config, getenv func(string) string) error {
	opts, err := cfg.Platform.LoopOptions()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "✓ Configuration valid: %s\n", cfgFile)
	fmt.Fprintf(w, "  Deadline: %s (listing every %s, stop after %d failures)\n",
		opts.Deadline, opts.MinRequestInterval, opts.MaxConsecutiveFailures)
	fmt.Fprintf(w, "  Journal:  %s\n", cfg.Journal.Type)
	if cfg.Schedule.Cron != "" {
		fmt.Fprintf(w, "  Schedule: %s\n", cfg.Schedule.Cron)
	}

	usable := 0
	policy := risk.DefaultPolicy()
	for _, a := range cfg.Accounts {
		prof, err := a.Profile(policy)
		if err == nil {
			_, err = a.ResolveToken(getenv)
		}
		if err != nil {
			fmt.Fprintf(w, "✗ Account %d: %v\n", a.ID, err)
			continue
		}
		usable++
		fmt.Fprintf(w, "✓ Account %d %s: $%s per loan, cap %.0f%%, grades %v\n",
			a.ID, a.Title, prof.AmountPerLoan.StringFixed(2), prof.ConcentrationCap*100, prof.Grades)
	}

	if usable == 0 {
		return fmt.Errorf("no usable accounts")
	}
	return nil
}
