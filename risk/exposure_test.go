package risk

import (
	"testing"

	"github.com/rustyeddy/notebuyer/market"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func note(loanID int64, status, region, principal string) market.Note {
	n := market.Note{LoanID: loanID, Status: status, Region: region}
	if principal != "" {
		p := decimal.RequireFromString(principal)
		n.PrincipalPending = &p
	}
	return n
}

func TestCalculateExposure(t *testing.T) {
	t.Parallel()

	e := CalculateExposure([]market.Note{
		note(1, "Current", "CA", "100.004"),
		note(2, "current", "ca", "50"),
		note(3, "Late (31-120 days)", "CA", "1000"),
		note(4, "Current", "TX", "25"),
		note(5, "Current", "TX", ""),
		note(6, "Current", "ZZ", "10"),
		note(7, "Charged Off", "ZZ", ""),
	})

	assert.Len(t, e.Principal, len(market.Regions))
	assert.Equal(t, "150", e.Principal["CA"].String())
	assert.Equal(t, "25", e.Principal["TX"].String())
	assert.True(t, e.Principal["NY"].IsZero())
	assert.Equal(t, 2, e.Skipped)
}

func TestAllowedRegions_ConcentrationCap(t *testing.T) {
	t.Parallel()

	total := decimal.NewFromInt(100000)
	allowed := AllowedRegions([]market.Note{
		note(1, "Current", "CA", "6000"),
		note(2, "Current", "TX", "5000"),
		note(3, "Charged Off", "NY", "9000"),
	}, 0.05, total)

	assert.NotContains(t, allowed, "CA")
	assert.Contains(t, allowed, "TX", "principal equal to the limit is allowed")
	assert.Contains(t, allowed, "NY", "non-current notes carry no exposure")
	assert.Len(t, allowed, len(market.Regions)-1)
	assert.IsIncreasing(t, allowed)
}

func TestAllowedRegions_OrderIndependent(t *testing.T) {
	t.Parallel()

	notes := []market.Note{
		note(1, "Current", "CA", "3000"),
		note(2, "Current", "CA", "3000"),
		note(3, "Current", "WA", "4000"),
		note(4, "Current", "OR", "6000"),
	}
	reversed := make([]market.Note, len(notes))
	for i, n := range notes {
		reversed[len(notes)-1-i] = n
	}

	total := decimal.NewFromInt(100000)
	assert.Equal(t, AllowedRegions(notes, 0.05, total), AllowedRegions(reversed, 0.05, total))
}

func TestAllowedRegions_NoNotes(t *testing.T) {
	t.Parallel()

	allowed := AllowedRegions(nil, 0.05, decimal.NewFromInt(1000))
	assert.Equal(t, market.Regions, allowed)
}

func TestLimit(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "5000", Limit(0.05, decimal.NewFromInt(100000)).String())
}
