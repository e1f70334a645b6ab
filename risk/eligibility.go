package risk

import (
	"fmt"
	"slices"
	"strings"

	"github.com/rustyeddy/notebuyer/market"
)

type Violation struct {
	Code string
	Msg  string
}

type Decision struct {
	LoanID     int64
	Allowed    bool
	Violations []Violation
}

func (d *Decision) add(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Allowed = false
}

// Ownership answers whether an account already holds a note in a loan.
type Ownership interface {
	Owns(loanID int64) bool
}

// Evaluate screens one loan against a profile. It has no side effects; every
// failed rule is reported so callers can explain a rejection.
func Evaluate(loan market.Loan, p Profile, owned Ownership) Decision {
	d := Decision{LoanID: loan.ID, Allowed: true}

	if owned != nil && owned.Owns(loan.ID) {
		d.add("ALREADY_OWNED", fmt.Sprintf("loan %d already owned", loan.ID))
	}

	if loan.AnnualIncome < p.MinAnnualIncome {
		d.add("INCOME_TOO_LOW",
			fmt.Sprintf("annual income %.0f below minimum %.0f", loan.AnnualIncome, p.MinAnnualIncome))
	}
	if p.Purposes != nil && !containsFold(p.Purposes, loan.Purpose) {
		d.add("PURPOSE_NOT_ALLOWED", fmt.Sprintf("purpose %q not allowed", loan.Purpose))
	}
	if loan.Inquiries6Mth > p.MaxInquiries {
		d.add("TOO_MANY_INQUIRIES",
			fmt.Sprintf("inquiries %d > max %d", loan.Inquiries6Mth, p.MaxInquiries))
	}
	if loan.PublicRecords > p.MaxPublicRecords {
		d.add("TOO_MANY_PUBLIC_RECORDS",
			fmt.Sprintf("public records %d > max %d", loan.PublicRecords, p.MaxPublicRecords))
	}
	if p.RequireNoRecentCollections && loan.Collections12Mths != nil && *loan.Collections12Mths != 0 {
		d.add("RECENT_COLLECTIONS",
			fmt.Sprintf("%d collections in the last 12 months", *loan.Collections12Mths))
	}
	if loan.InterestRate < p.MinInterestRate || loan.InterestRate > p.MaxInterestRate {
		d.add("RATE_OUT_OF_RANGE",
			fmt.Sprintf("rate %.2f outside [%.2f, %.2f]", loan.InterestRate, p.MinInterestRate, p.MaxInterestRate))
	}
	if p.Terms != nil && !slices.Contains(p.Terms, loan.Term) {
		d.add("TERM_NOT_ALLOWED", fmt.Sprintf("term %d not allowed", loan.Term))
	}
	if g, ok := loanGrade(loan); !ok || !slices.Contains(p.Grades, g) {
		d.add("GRADE_NOT_ALLOWED", fmt.Sprintf("grade %q not allowed", loan.Grade))
	}
	if p.RequireNoDelinquency && loan.MonthsSinceLastDelinquency != nil {
		d.add("PRIOR_DELINQUENCY",
			fmt.Sprintf("delinquent %d months ago", *loan.MonthsSinceLastDelinquency))
	}
	if p.RequireEmployment && loan.EmploymentLength == nil {
		d.add("NO_EMPLOYMENT", "no employment length reported")
	}
	if loan.RevolvingBal > p.MaxRevolvingBalance {
		d.add("REVOLVING_BALANCE_TOO_HIGH",
			fmt.Sprintf("revolving balance %.0f > max %.0f", loan.RevolvingBal, p.MaxRevolvingBalance))
	}
	if n := loan.Delinquencies(); n > p.MaxDelinquencies {
		d.add("TOO_MANY_DELINQUENCIES",
			fmt.Sprintf("delinquencies %d > max %d", n, p.MaxDelinquencies))
	}
	if p.HomeOwnerships != nil && !containsFold(p.HomeOwnerships, loan.HomeOwnership) {
		d.add("HOME_OWNERSHIP_NOT_ALLOWED",
			fmt.Sprintf("home ownership %q not allowed", loan.HomeOwnership))
	}

	region := market.NormalizeRegion(loan.Region)
	if p.AllowedRegions != nil && !slices.Contains(p.AllowedRegions, region) {
		d.add("REGION_OVER_CAP", fmt.Sprintf("region %q over concentration cap", region))
	}
	if slices.Contains(p.ExcludedRegions, region) {
		d.add("REGION_EXCLUDED", fmt.Sprintf("region %q excluded", region))
	}

	return d
}

// Eligible is Evaluate reduced to its verdict.
func Eligible(loan market.Loan, p Profile, owned Ownership) bool {
	return Evaluate(loan, p, owned).Allowed
}

// Screen returns the loans that pass Evaluate, in their original order.
func Screen(loans []market.Loan, p Profile, owned Ownership) []market.Loan {
	out := make([]market.Loan, 0, len(loans))
	for _, l := range loans {
		if Eligible(l, p, owned) {
			out = append(out, l)
		}
	}
	return out
}

func loanGrade(l market.Loan) (market.Grade, bool) {
	if g, ok := market.ParseGrade(string(l.Grade)); ok {
		return g, true
	}
	return market.ParseGrade(l.SubGrade)
}

func containsFold(set []string, v string) bool {
	v = strings.TrimSpace(v)
	for _, s := range set {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}
