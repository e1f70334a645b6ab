package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rustyeddy/notebuyer/buyer"
	"github.com/rustyeddy/notebuyer/journal"
	"github.com/rustyeddy/notebuyer/logger"
	"github.com/rustyeddy/notebuyer/market"
	"github.com/rustyeddy/notebuyer/risk"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// TokenEnvPrefix prefixes the fallback environment variable holding an
// account's token, e.g. NOTEBUYER_TOKEN_1234567.
const TokenEnvPrefix = "NOTEBUYER_TOKEN_"

// CronParser accepts the six field (seconds first) schedules the daemon uses.
var CronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Config represents the complete buyer configuration
type Config struct {
	Platform PlatformConfig  `json:"platform" yaml:"platform"`
	Log      LogConfig       `json:"log" yaml:"log"`
	Journal  JournalConfig   `json:"journal" yaml:"journal"`
	Schedule ScheduleConfig  `json:"schedule" yaml:"schedule"`
	Accounts []AccountConfig `json:"accounts" yaml:"accounts"`
}

// PlatformConfig describes the lending platform and the loop bounds.
// Durations are strings such as "1s" or "90s".
type PlatformConfig struct {
	BaseURL                string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	MinRequestInterval     string `json:"min_request_interval" yaml:"min_request_interval"`
	Deadline               string `json:"deadline" yaml:"deadline"`
	MaxConsecutiveFailures *int   `json:"max_consecutive_failures,omitempty" yaml:"max_consecutive_failures,omitempty"`
	Timeout                string `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Pretty bool   `json:"pretty" yaml:"pretty"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type          string `json:"type" yaml:"type"` // "sqlite", "csv" or "none"
	DBPath        string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	PurchasesFile string `json:"purchases_file,omitempty" yaml:"purchases_file,omitempty"`
	RunsFile      string `json:"runs_file,omitempty" yaml:"runs_file,omitempty"`
}

type ScheduleConfig struct {
	Cron string `json:"cron" yaml:"cron"`
}

// AccountConfig is one account and its screening filters. Unset filters
// accept everything.
type AccountConfig struct {
	ID          int64  `json:"id" yaml:"id"`
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	Token       string `json:"token,omitempty" yaml:"token,omitempty"`
	TokenEnv    string `json:"token_env,omitempty" yaml:"token_env,omitempty"`
	PortfolioID *int64 `json:"portfolio_id,omitempty" yaml:"portfolio_id,omitempty"`

	AmountPerLoan    float64 `json:"amount_per_loan" yaml:"amount_per_loan"`
	ConcentrationCap float64 `json:"concentration_cap" yaml:"concentration_cap"`

	MinInterestRate     *float64 `json:"min_interest_rate,omitempty" yaml:"min_interest_rate,omitempty"`
	MaxInterestRate     *float64 `json:"max_interest_rate,omitempty" yaml:"max_interest_rate,omitempty"`
	MinAnnualIncome     *float64 `json:"min_annual_income,omitempty" yaml:"min_annual_income,omitempty"`
	MaxRevolvingBalance *float64 `json:"max_revolving_balance,omitempty" yaml:"max_revolving_balance,omitempty"`
	MaxInquiries        *int     `json:"max_inquiries,omitempty" yaml:"max_inquiries,omitempty"`
	MaxPublicRecords    *int     `json:"max_public_records,omitempty" yaml:"max_public_records,omitempty"`
	MaxDelinquencies    *int     `json:"max_delinquencies,omitempty" yaml:"max_delinquencies,omitempty"`

	Grades          []string `json:"grades,omitempty" yaml:"grades,omitempty"`
	Terms           []int    `json:"terms,omitempty" yaml:"terms,omitempty"`
	HomeOwnership   []string `json:"home_ownership,omitempty" yaml:"home_ownership,omitempty"`
	Purposes        []string `json:"purposes,omitempty" yaml:"purposes,omitempty"`
	ExcludedRegions []string `json:"excluded_regions,omitempty" yaml:"excluded_regions,omitempty"`

	RequireNoDelinquency       *bool `json:"require_no_delinquency,omitempty" yaml:"require_no_delinquency,omitempty"`
	RequireEmployment          *bool `json:"require_employment,omitempty" yaml:"require_employment,omitempty"`
	RequireNoRecentCollections *bool `json:"require_no_recent_collections,omitempty" yaml:"require_no_recent_collections,omitempty"`
}

// LoadEnv loads KEY=value pairs from the given .env files into the process
// environment. Missing files are ignored; variables already set win.
func LoadEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// LoadFromFile loads configuration from a file (YAML, or JSON as a fallback)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks everything shared by the fleet. Problems confined to one
// account are reported by AccountConfig.Profile so they cannot stop the
// other accounts.
func (c *Config) Validate() error {
	if _, err := c.Platform.LoopOptions(); err != nil {
		return err
	}
	if _, err := c.Platform.HTTPTimeout(); err != nil {
		return err
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error")
	}

	switch c.Journal.Type {
	case journal.KindSQLite:
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for sqlite type")
		}
	case journal.KindCSV:
		if c.Journal.PurchasesFile == "" || c.Journal.RunsFile == "" {
			return fmt.Errorf("journal purchases_file and runs_file required for csv type")
		}
	case journal.KindNone, "":
	default:
		return fmt.Errorf("journal.type must be 'sqlite', 'csv' or 'none'")
	}

	if c.Schedule.Cron != "" {
		if _, err := CronParser.Parse(c.Schedule.Cron); err != nil {
			return fmt.Errorf("schedule.cron: %w", err)
		}
	}

	if len(c.Accounts) == 0 {
		return fmt.Errorf("at least one account is required")
	}
	seen := make(map[int64]bool, len(c.Accounts))
	for i, a := range c.Accounts {
		if a.ID <= 0 {
			return fmt.Errorf("accounts[%d].id must be positive", i)
		}
		if seen[a.ID] {
			return fmt.Errorf("accounts[%d].id %d is duplicated", i, a.ID)
		}
		seen[a.ID] = true
	}
	return nil
}

// LoopOptions converts the platform section into loop bounds.
func (p PlatformConfig) LoopOptions() (buyer.Options, error) {
	opts := buyer.DefaultOptions()

	var err error
	if opts.MinRequestInterval, err = parseDuration("platform.min_request_interval", p.MinRequestInterval, opts.MinRequestInterval); err != nil {
		return buyer.Options{}, err
	}
	if opts.Deadline, err = parseDuration("platform.deadline", p.Deadline, opts.Deadline); err != nil {
		return buyer.Options{}, err
	}
	if p.MaxConsecutiveFailures != nil {
		if *p.MaxConsecutiveFailures < 0 {
			return buyer.Options{}, fmt.Errorf("platform.max_consecutive_failures must not be negative")
		}
		opts.MaxConsecutiveFailures = *p.MaxConsecutiveFailures
	}
	return opts, nil
}

// HTTPTimeout is the per-request timeout of the platform client.
func (p PlatformConfig) HTTPTimeout() (time.Duration, error) {
	return parseDuration("platform.timeout", p.Timeout, 30*time.Second)
}

func parseDuration(field, s string, def time.Duration) (time.Duration, error) {
	if strings.TrimSpace(s) == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", field)
	}
	return d, nil
}

// Logger returns the logger settings.
func (c *Config) Logger() logger.Config {
	return logger.Config{Level: c.Log.Level, Pretty: c.Log.Pretty}
}

// JournalOptions returns the journal settings.
func (c *Config) JournalOptions() journal.Options {
	return journal.Options{
		Kind:          c.Journal.Type,
		DBPath:        c.Journal.DBPath,
		PurchasesFile: c.Journal.PurchasesFile,
		RunsFile:      c.Journal.RunsFile,
	}
}

// Account returns the account with the given id.
func (c *Config) Account(id int64) (AccountConfig, bool) {
	for _, a := range c.Accounts {
		if a.ID == id {
			return a, true
		}
	}
	return AccountConfig{}, false
}

// ResolveToken finds the account's API token: the token field, then the
// variable named by token_env, then NOTEBUYER_TOKEN_<id>.
func (a AccountConfig) ResolveToken(getenv func(string) string) (string, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if a.Token != "" {
		return a.Token, nil
	}
	if a.TokenEnv != "" {
		if v := getenv(a.TokenEnv); v != "" {
			return v, nil
		}
		return "", fmt.Errorf("account %d: environment variable %s is empty", a.ID, a.TokenEnv)
	}
	name := TokenEnvPrefix + strconv.FormatInt(a.ID, 10)
	if v := getenv(name); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("account %d: no token (set token, token_env or %s)", a.ID, name)
}

// Profile resolves the account against the policy into a validated
// screening profile.
func (a AccountConfig) Profile(policy risk.Policy) (risk.Profile, error) {
	f := risk.Filters{
		MinInterestRate:            a.MinInterestRate,
		MaxInterestRate:            a.MaxInterestRate,
		MinAnnualIncome:            a.MinAnnualIncome,
		MaxRevolvingBalance:        a.MaxRevolvingBalance,
		MaxInquiries:               a.MaxInquiries,
		MaxPublicRecords:           a.MaxPublicRecords,
		MaxDelinquencies:           a.MaxDelinquencies,
		Terms:                      a.Terms,
		HomeOwnerships:             a.HomeOwnership,
		Purposes:                   a.Purposes,
		RequireNoDelinquency:       a.RequireNoDelinquency,
		RequireEmployment:          a.RequireEmployment,
		RequireNoRecentCollections: a.RequireNoRecentCollections,
	}

	for _, s := range a.Grades {
		g, ok := market.ParseGrade(s)
		if !ok {
			return risk.Profile{}, fmt.Errorf("account %d: unknown grade %q", a.ID, s)
		}
		f.Grades = append(f.Grades, g)
	}
	for _, r := range a.ExcludedRegions {
		if !market.IsRegion(r) {
			return risk.Profile{}, fmt.Errorf("account %d: unknown region %q", a.ID, r)
		}
		f.ExcludedRegions = append(f.ExcludedRegions, r)
	}

	p, err := risk.NewProfile(a.ID, decimal.NewFromFloat(a.AmountPerLoan), a.ConcentrationCap, f, policy)
	if err != nil {
		return risk.Profile{}, err
	}
	p.PortfolioID = a.PortfolioID
	return p, nil
}

// Default returns a configuration with one example account screening the
// way a cautious investor would.
func Default() *Config {
	maxFailures := 5
	return &Config{
		Platform: PlatformConfig{
			MinRequestInterval:     "1s",
			Deadline:               "90s",
			MaxConsecutiveFailures: &maxFailures,
			Timeout:                "30s",
		},
		Log: LogConfig{
			Level:  "info",
			Pretty: true,
		},
		Journal: JournalConfig{
			Type:   journal.KindSQLite,
			DBPath: "./notebuyer.db",
		},
		Schedule: ScheduleConfig{
			Cron: "0 0 6,10,14,18 * * *",
		},
		Accounts: []AccountConfig{
			{
				ID:                         1234567,
				Title:                      "primary",
				TokenEnv:                   TokenEnvPrefix + "1234567",
				AmountPerLoan:              25,
				ConcentrationCap:           0.05,
				MinAnnualIncome:            ptr(60000.0),
				MaxRevolvingBalance:        ptr(999999.0),
				MaxInquiries:               ptr(99),
				MaxPublicRecords:           ptr(0),
				MaxDelinquencies:           ptr(0),
				Grades:                     []string{"A", "B", "C", "D", "E", "F", "G"},
				Terms:                      []int{36, 60},
				HomeOwnership:              []string{"RENT", "OWN", "MORTGAGE", "OTHER"},
				RequireNoDelinquency:       ptr(true),
				RequireEmployment:          ptr(true),
				RequireNoRecentCollections: ptr(true),
			},
		},
	}
}

func ptr[T any](v T) *T { return &v }
