package risk

import (
	"sort"

	"github.com/rustyeddy/notebuyer/market"
	"github.com/shopspring/decimal"
)

// Exposure is the outstanding principal of current notes per region.
type Exposure struct {
	Principal map[string]decimal.Decimal

	// Skipped counts current notes ignored because their region was unknown
	// or their principal missing.
	Skipped int
}

// CalculateExposure sums the pending principal of current notes by region.
// Notes that are not current add nothing. Every known region is present in
// the result, with zero when no notes fall in it.
func CalculateExposure(notes []market.Note) Exposure {
	e := Exposure{Principal: make(map[string]decimal.Decimal, len(market.Regions))}
	for _, r := range market.Regions {
		e.Principal[r] = decimal.Zero
	}

	for _, n := range notes {
		if !n.IsCurrent() {
			continue
		}
		region := market.NormalizeRegion(n.Region)
		if n.PrincipalPending == nil || !market.IsRegion(region) {
			e.Skipped++
			continue
		}
		e.Principal[region] = e.Principal[region].Add(market.Cents(*n.PrincipalPending))
	}
	return e
}

// Limit is the most principal one region may carry: cap * total value.
func Limit(concentrationCap float64, totalValue decimal.Decimal) decimal.Decimal {
	return totalValue.Mul(decimal.NewFromFloat(concentrationCap))
}

// Allowed returns, sorted, the regions whose principal is within the limit.
func (e Exposure) Allowed(concentrationCap float64, totalValue decimal.Decimal) []string {
	limit := Limit(concentrationCap, totalValue)
	out := make([]string, 0, len(e.Principal))
	for region, principal := range e.Principal {
		if principal.LessThanOrEqual(limit) {
			out = append(out, region)
		}
	}
	sort.Strings(out)
	return out
}

// AllowedRegions is CalculateExposure followed by Allowed.
func AllowedRegions(notes []market.Note, concentrationCap float64, totalValue decimal.Decimal) []string {
	return CalculateExposure(notes).Allowed(concentrationCap, totalValue)
}
