package market

import "strings"

// Regions are the two letter state codes a borrower can be listed under.
var Regions = []string{
	"AK", "AL", "AR", "AZ", "CA", "CO", "CT", "DC", "DE", "FL",
	"GA", "HI", "IA", "ID", "IL", "IN", "KS", "KY", "LA", "MA",
	"MD", "ME", "MI", "MN", "MO", "MS", "MT", "NC", "ND", "NE",
	"NH", "NJ", "NM", "NV", "NY", "OH", "OK", "OR", "PA", "RI",
	"SC", "SD", "TN", "TX", "UT", "VA", "VT", "WA", "WI", "WV",
	"WY",
}

var regionSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Regions))
	for _, r := range Regions {
		m[r] = struct{}{}
	}
	return m
}()

// NormalizeRegion upper-cases and trims a region code.
func NormalizeRegion(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// IsRegion reports whether s names a known region.
func IsRegion(s string) bool {
	_, ok := regionSet[NormalizeRegion(s)]
	return ok
}
