package risk

import (
	"testing"

	"github.com/rustyeddy/notebuyer/market"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type owned map[int64]bool

func (o owned) Owns(id int64) bool { return o[id] }

func baseLoan() market.Loan {
	return market.Loan{
		ID:               1,
		InterestRate:     12.5,
		Grade:            market.GradeB,
		SubGrade:         "B2",
		Term:             36,
		Purpose:          "debt_consolidation",
		Region:           "TX",
		AnnualIncome:     75000,
		HomeOwnership:    "MORTGAGE",
		RevolvingBal:     12000,
		Inquiries6Mth:    1,
		EmploymentLength: ptr(5),
	}
}

func strictProfile(t *testing.T) Profile {
	t.Helper()
	p, err := NewProfile(1, decimal.NewFromInt(25), 0.05, Filters{
		MinInterestRate:            ptr(10.0),
		MaxInterestRate:            ptr(20.0),
		MinAnnualIncome:            ptr(50000.0),
		MaxRevolvingBalance:        ptr(30000.0),
		MaxInquiries:               ptr(2),
		MaxPublicRecords:           ptr(0),
		MaxDelinquencies:           ptr(0),
		Grades:                     []market.Grade{market.GradeA, market.GradeB, market.GradeC},
		Terms:                      []int{36},
		HomeOwnerships:             []string{"RENT", "MORTGAGE"},
		Purposes:                   []string{"debt_consolidation", "credit_card"},
		ExcludedRegions:            []string{"IA"},
		RequireNoDelinquency:       ptr(true),
		RequireEmployment:          ptr(true),
		RequireNoRecentCollections: ptr(true),
	}, DefaultPolicy())
	require.NoError(t, err)
	return p
}

func TestEvaluate_Passes(t *testing.T) {
	t.Parallel()

	d := Evaluate(baseLoan(), strictProfile(t), owned{})
	assert.True(t, d.Allowed)
	assert.Empty(t, d.Violations)
	assert.Equal(t, int64(1), d.LoanID)
}

func TestEvaluate_Rules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*market.Loan)
		code   string
	}{
		{"income below minimum", func(l *market.Loan) { l.AnnualIncome = 49999 }, "INCOME_TOO_LOW"},
		{"purpose not allowed", func(l *market.Loan) { l.Purpose = "vacation" }, "PURPOSE_NOT_ALLOWED"},
		{"too many inquiries", func(l *market.Loan) { l.Inquiries6Mth = 3 }, "TOO_MANY_INQUIRIES"},
		{"public record", func(l *market.Loan) { l.PublicRecords = 1 }, "TOO_MANY_PUBLIC_RECORDS"},
		{"recent collection", func(l *market.Loan) { l.Collections12Mths = ptr(1) }, "RECENT_COLLECTIONS"},
		{"rate below range", func(l *market.Loan) { l.InterestRate = 9.99 }, "RATE_OUT_OF_RANGE"},
		{"rate above range", func(l *market.Loan) { l.InterestRate = 20.01 }, "RATE_OUT_OF_RANGE"},
		{"term not allowed", func(l *market.Loan) { l.Term = 60 }, "TERM_NOT_ALLOWED"},
		{"grade not allowed", func(l *market.Loan) { l.Grade = market.GradeE }, "GRADE_NOT_ALLOWED"},
		{"unknown grade", func(l *market.Loan) { l.Grade = ""; l.SubGrade = "" }, "GRADE_NOT_ALLOWED"},
		{"prior delinquency", func(l *market.Loan) { l.MonthsSinceLastDelinquency = ptr(40) }, "PRIOR_DELINQUENCY"},
		{"no employment", func(l *market.Loan) { l.EmploymentLength = nil }, "NO_EMPLOYMENT"},
		{"revolving balance too high", func(l *market.Loan) { l.RevolvingBal = 30001 }, "REVOLVING_BALANCE_TOO_HIGH"},
		{"delinquencies", func(l *market.Loan) { l.Delinquencies2Yrs = ptr(1) }, "TOO_MANY_DELINQUENCIES"},
		{"home ownership", func(l *market.Loan) { l.HomeOwnership = "OWN" }, "HOME_OWNERSHIP_NOT_ALLOWED"},
		{"excluded region", func(l *market.Loan) { l.Region = "ia" }, "REGION_EXCLUDED"},
		{"already owned", func(l *market.Loan) { l.ID = 99 }, "ALREADY_OWNED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			loan := baseLoan()
			tt.mutate(&loan)

			d := Evaluate(loan, strictProfile(t), owned{99: true})
			assert.False(t, d.Allowed)
			require.Len(t, d.Violations, 1, "%+v", d.Violations)
			assert.Equal(t, tt.code, d.Violations[0].Code)
			assert.NotEmpty(t, d.Violations[0].Msg)
		})
	}
}

func TestEvaluate_BoundariesAreInclusive(t *testing.T) {
	t.Parallel()

	p := strictProfile(t)
	for _, rate := range []float64{10, 20} {
		l := baseLoan()
		l.InterestRate = rate
		assert.True(t, Eligible(l, p, nil), "rate %v", rate)
	}

	l := baseLoan()
	l.AnnualIncome = 50000
	l.Inquiries6Mth = 2
	l.RevolvingBal = 30000
	assert.True(t, Eligible(l, p, nil))
}

func TestEvaluate_NullableFieldsFavourBorrower(t *testing.T) {
	t.Parallel()

	l := baseLoan()
	l.Delinquencies2Yrs = nil
	l.Collections12Mths = nil
	l.MonthsSinceLastDelinquency = nil
	assert.True(t, Eligible(l, strictProfile(t), nil))

	l.Collections12Mths = ptr(0)
	l.Delinquencies2Yrs = ptr(0)
	assert.True(t, Eligible(l, strictProfile(t), nil))
}

func TestEvaluate_SubGradeFallback(t *testing.T) {
	t.Parallel()

	l := baseLoan()
	l.Grade = ""
	l.SubGrade = "C4"
	assert.True(t, Eligible(l, strictProfile(t), nil))
}

func TestEvaluate_AllowedRegions(t *testing.T) {
	t.Parallel()

	p := strictProfile(t)
	p.AllowedRegions = []string{"NY", "TX"}
	assert.True(t, Eligible(baseLoan(), p, nil))

	l := baseLoan()
	l.Region = "CA"
	d := Evaluate(l, p, nil)
	require.Len(t, d.Violations, 1)
	assert.Equal(t, "REGION_OVER_CAP", d.Violations[0].Code)

	p.AllowedRegions = []string{}
	assert.False(t, Eligible(baseLoan(), p, nil), "an empty allowed set admits nothing")
}

func TestEvaluate_ReportsEveryViolation(t *testing.T) {
	t.Parallel()

	l := baseLoan()
	l.AnnualIncome = 1
	l.Term = 60
	l.Region = "IA"

	d := Evaluate(l, strictProfile(t), nil)
	codes := make([]string, 0, len(d.Violations))
	for _, v := range d.Violations {
		codes = append(codes, v.Code)
	}
	assert.ElementsMatch(t, []string{"INCOME_TOO_LOW", "TERM_NOT_ALLOWED", "REGION_EXCLUDED"}, codes)
}

func TestEvaluate_UnsetFiltersAcceptEverything(t *testing.T) {
	t.Parallel()

	p, err := NewProfile(1, decimal.NewFromInt(25), 1, Filters{}, DefaultPolicy())
	require.NoError(t, err)

	odd := market.Loan{
		ID:                         5,
		InterestRate:               31,
		Grade:                      market.GradeG,
		Term:                       84,
		Purpose:                    "space_travel",
		HomeOwnership:              "NONE",
		Region:                     "PR",
		RevolvingBal:               1e7,
		Inquiries6Mth:              30,
		PublicRecords:              4,
		Delinquencies2Yrs:          ptr(6),
		Collections12Mths:          ptr(2),
		MonthsSinceLastDelinquency: ptr(1),
	}
	assert.True(t, Eligible(odd, p, nil))
}

func TestScreen(t *testing.T) {
	t.Parallel()

	a, b, c := baseLoan(), baseLoan(), baseLoan()
	a.ID, b.ID, c.ID = 1, 2, 3
	b.Term = 60

	got := Screen([]market.Loan{a, b, c}, strictProfile(t), owned{3: true})
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)

	assert.Empty(t, Screen(nil, strictProfile(t), nil))
}
