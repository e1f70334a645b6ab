package market

import "strings"

// Grade is the platform-assigned risk tier of a loan.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeE Grade = "E"
	GradeF Grade = "F"
	GradeG Grade = "G"
)

// Grades lists every grade the platform issues, best first.
var Grades = []Grade{GradeA, GradeB, GradeC, GradeD, GradeE, GradeF, GradeG}

// ParseGrade accepts "B" or a sub-grade such as "B3".
func ParseGrade(s string) (Grade, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return "", false
	}
	g := Grade(s[:1])
	for _, known := range Grades {
		if g == known {
			return g, true
		}
	}
	return "", false
}

// Terms are the loan lengths in months offered on the platform.
var Terms = []int{36, 60}

// HomeOwnerships are the home ownership categories reported for a borrower.
var HomeOwnerships = []string{"RENT", "OWN", "MORTGAGE", "OTHER"}

// Purposes are the loan purposes the platform lists.
var Purposes = []string{
	"debt_consolidation", "credit_card", "home_improvement", "major_purchase",
	"medical", "renewable_energy", "small_business", "wedding", "vacation",
	"moving", "house", "car", "educational", "other",
}

// Loan is one listed loan that fractional notes can be bought in.
//
// Nullable counters are pointers: a nil MonthsSinceLastDelinquency means the
// borrower has no known delinquency, a nil EmploymentLength means the borrower
// reported no employment, a nil Delinquencies2Yrs counts as zero and a nil
// Collections12Mths is unknown.
type Loan struct {
	ID            int64   `json:"id"`
	MemberID      int64   `json:"memberId"`
	LoanAmount    float64 `json:"loanAmount"`
	FundedAmount  float64 `json:"fundedAmount"`
	Term          int     `json:"term"`
	InterestRate  float64 `json:"intRate"`
	Grade         Grade   `json:"grade"`
	SubGrade      string  `json:"subGrade"`
	Purpose       string  `json:"purpose"`
	Region        string  `json:"addrState"`
	AnnualIncome  float64 `json:"annualInc"`
	HomeOwnership string  `json:"homeOwnership"`
	RevolvingBal  float64 `json:"revolBal"`
	Inquiries6Mth int     `json:"inqLast6Mths"`
	PublicRecords int     `json:"pubRec"`

	Delinquencies2Yrs          *int `json:"delinq2Yrs"`
	Collections12Mths          *int `json:"collections12MthsExMed"`
	MonthsSinceLastDelinquency *int `json:"mthsSinceLastDelinq"`
	EmploymentLength           *int `json:"empLength"`
}

// Delinquencies returns the trailing two year delinquency count, treating an
// unreported value as zero.
func (l Loan) Delinquencies() int {
	if l.Delinquencies2Yrs == nil {
		return 0
	}
	return *l.Delinquencies2Yrs
}
