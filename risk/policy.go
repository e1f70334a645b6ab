package risk

import (
	"errors"
	"fmt"
	"math"

	"github.com/rustyeddy/notebuyer/market"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount    = errors.New("amount per loan must be a positive multiple of the note denomination")
	ErrInvalidCap       = errors.New("concentration cap must be in (0, 1]")
	ErrNoGrades         = errors.New("at least one loan grade must be allowed")
	ErrInvalidRateRange = errors.New("minimum interest rate exceeds maximum")
)

// Policy holds the value every filter takes when an account leaves it unset.
// It is passed into NewProfile explicitly; nothing reads it as package state.
type Policy struct {
	MinInterestRate     float64
	MaxInterestRate     float64
	MinAnnualIncome     float64
	MaxRevolvingBalance float64

	MaxInquiries     int
	MaxPublicRecords int
	MaxDelinquencies int

	Grades         []market.Grade
	Terms          []int
	HomeOwnerships []string
	Purposes       []string

	RequireNoDelinquency       bool
	RequireEmployment          bool
	RequireNoRecentCollections bool
}

// DefaultPolicy accepts every loan in every dimension. Terms, home ownership
// and purposes are left nil so categories the platform adds later still pass.
func DefaultPolicy() Policy {
	return Policy{
		MinInterestRate:     0,
		MaxInterestRate:     math.Inf(1),
		MinAnnualIncome:     0,
		MaxRevolvingBalance: math.Inf(1),
		MaxInquiries:        math.MaxInt,
		MaxPublicRecords:    math.MaxInt,
		MaxDelinquencies:    math.MaxInt,
		Grades:              append([]market.Grade(nil), market.Grades...),
	}
}

// Filters are an account's overrides of the Policy. A nil pointer or an empty
// slice means "use the policy value".
type Filters struct {
	MinInterestRate     *float64
	MaxInterestRate     *float64
	MinAnnualIncome     *float64
	MaxRevolvingBalance *float64

	MaxInquiries     *int
	MaxPublicRecords *int
	MaxDelinquencies *int

	Grades         []market.Grade
	Terms          []int
	HomeOwnerships []string
	Purposes       []string

	ExcludedRegions []string

	RequireNoDelinquency       *bool
	RequireEmployment          *bool
	RequireNoRecentCollections *bool
}

// Profile is the resolved screening configuration of one account.
type Profile struct {
	AccountID   int64
	PortfolioID *int64

	AmountPerLoan    decimal.Decimal
	ConcentrationCap float64

	MinInterestRate     float64
	MaxInterestRate     float64
	MinAnnualIncome     float64
	MaxRevolvingBalance float64

	MaxInquiries     int
	MaxPublicRecords int
	MaxDelinquencies int

	// Grades is never empty. A nil Terms, HomeOwnerships or Purposes
	// accepts any value.
	Grades         []market.Grade
	Terms          []int
	HomeOwnerships []string
	Purposes       []string

	ExcludedRegions []string

	// AllowedRegions is filled from the account's exposure at loop start.
	// nil allows every region; an empty slice allows none.
	AllowedRegions []string

	RequireNoDelinquency       bool
	RequireEmployment          bool
	RequireNoRecentCollections bool
}

// NewProfile resolves filters against the policy and validates the result.
func NewProfile(accountID int64, amount decimal.Decimal, concentrationCap float64, f Filters, p Policy) (Profile, error) {
	prof := Profile{
		AccountID:        accountID,
		AmountPerLoan:    amount,
		ConcentrationCap: concentrationCap,

		MinInterestRate:     orFloat(f.MinInterestRate, p.MinInterestRate),
		MaxInterestRate:     orFloat(f.MaxInterestRate, p.MaxInterestRate),
		MinAnnualIncome:     orFloat(f.MinAnnualIncome, p.MinAnnualIncome),
		MaxRevolvingBalance: orFloat(f.MaxRevolvingBalance, p.MaxRevolvingBalance),

		MaxInquiries:     orInt(f.MaxInquiries, p.MaxInquiries),
		MaxPublicRecords: orInt(f.MaxPublicRecords, p.MaxPublicRecords),
		MaxDelinquencies: orInt(f.MaxDelinquencies, p.MaxDelinquencies),

		Grades:         orSlice(f.Grades, p.Grades),
		Terms:          orSlice(f.Terms, p.Terms),
		HomeOwnerships: orSlice(f.HomeOwnerships, p.HomeOwnerships),
		Purposes:       orSlice(f.Purposes, p.Purposes),

		RequireNoDelinquency:       orBool(f.RequireNoDelinquency, p.RequireNoDelinquency),
		RequireEmployment:          orBool(f.RequireEmployment, p.RequireEmployment),
		RequireNoRecentCollections: orBool(f.RequireNoRecentCollections, p.RequireNoRecentCollections),
	}
	for _, r := range f.ExcludedRegions {
		prof.ExcludedRegions = append(prof.ExcludedRegions, market.NormalizeRegion(r))
	}

	if err := prof.Validate(); err != nil {
		return Profile{}, err
	}
	return prof, nil
}

// Validate checks the invariants a loop needs before it may spend money.
func (p Profile) Validate() error {
	if !market.IsDenominationMultiple(p.AmountPerLoan) {
		return fmt.Errorf("account %d: %w (got %s)", p.AccountID, ErrInvalidAmount, p.AmountPerLoan)
	}
	if !(p.ConcentrationCap > 0 && p.ConcentrationCap <= 1) {
		return fmt.Errorf("account %d: %w (got %g)", p.AccountID, ErrInvalidCap, p.ConcentrationCap)
	}
	if len(p.Grades) == 0 {
		return fmt.Errorf("account %d: %w", p.AccountID, ErrNoGrades)
	}
	if p.MinInterestRate > p.MaxInterestRate {
		return fmt.Errorf("account %d: %w (%g > %g)", p.AccountID, ErrInvalidRateRange, p.MinInterestRate, p.MaxInterestRate)
	}
	return nil
}

func orFloat(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func orInt(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func orBool(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func orSlice[T any](v, def []T) []T {
	if len(v) == 0 {
		return append([]T(nil), def...)
	}
	return append([]T(nil), v...)
}
