package sim

import (
	"math/rand/v2"

	"github.com/rustyeddy/notebuyer/market"
)

// GenerateLoans builds n plausible listings with ids starting at firstID.
// The same seed always yields the same loans.
func GenerateLoans(seed uint64, firstID int64, n int) []market.Loan {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	loans := make([]market.Loan, 0, n)
	for i := 0; i < n; i++ {
		g := market.Grades[r.IntN(len(market.Grades))]
		gi := gradeIndex(g)
		rate := 5.5 + float64(gi)*4 + r.Float64()*3.5

		amount := float64(1000 + r.IntN(39)*1000)
		l := market.Loan{
			ID:            firstID + int64(i),
			MemberID:      firstID*10 + int64(i),
			LoanAmount:    amount,
			FundedAmount:  amount * r.Float64() * 0.8,
			Term:          market.Terms[r.IntN(len(market.Terms))],
			InterestRate:  float64(int(rate*100)) / 100,
			Grade:         g,
			SubGrade:      string(g) + string(rune('1'+r.IntN(5))),
			Purpose:       market.Purposes[r.IntN(len(market.Purposes))],
			Region:        market.Regions[r.IntN(len(market.Regions))],
			AnnualIncome:  float64(25000 + r.IntN(150)*1000),
			HomeOwnership: market.HomeOwnerships[r.IntN(len(market.HomeOwnerships))],
			RevolvingBal:  float64(r.IntN(60000)),
			Inquiries6Mth: r.IntN(4),
			PublicRecords: boolInt(r.IntN(10) == 0),
		}
		if r.IntN(5) == 0 {
			d := 1 + r.IntN(2)
			months := 3 + r.IntN(60)
			l.Delinquencies2Yrs = &d
			l.MonthsSinceLastDelinquency = &months
		}
		if r.IntN(8) != 0 {
			years := r.IntN(11)
			l.EmploymentLength = &years
		}
		zero := 0
		l.Collections12Mths = &zero
		loans = append(loans, l)
	}
	return loans
}

func gradeIndex(g market.Grade) int {
	for i, known := range market.Grades {
		if known == g {
			return i
		}
	}
	return 0
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
