package strategy

import (
	"testing"

	"github.com/rustyeddy/notebuyer/market"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func loans(rates ...float64) []market.Loan {
	out := make([]market.Loan, 0, len(rates))
	for i, r := range rates {
		out = append(out, market.Loan{ID: int64(i + 1), InterestRate: r})
	}
	return out
}

func rates(ls []market.Loan) []float64 {
	out := make([]float64, 0, len(ls))
	for _, l := range ls {
		out = append(out, l.InterestRate)
	}
	return out
}

func TestSelect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		rates []float64
		n     int
		want  []float64
	}{
		{"takes the best n", []float64{12.1, 11.9, 14.0, 10.5, 13.2}, 4, []float64{14.0, 13.2, 12.1, 11.9}},
		{"n beyond input", []float64{7, 9}, 5, []float64{9, 7}},
		{"zero n", []float64{7, 9}, 0, []float64{}},
		{"negative n", []float64{7, 9}, -1, []float64{}},
		{"no loans", nil, 3, []float64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Select(loans(tt.rates...), tt.n)
			assert.NotNil(t, got)
			assert.Equal(t, tt.want, rates(got))
		})
	}
}

func TestSelect_StableForEqualRates(t *testing.T) {
	t.Parallel()

	in := loans(10, 12, 10, 12)
	got := Select(in, 3)

	ids := []int64{got[0].ID, got[1].ID, got[2].ID}
	assert.Equal(t, []int64{2, 4, 1}, ids)
}

func TestSelect_DoesNotModifyInput(t *testing.T) {
	t.Parallel()

	in := loans(1, 3, 2)
	Select(in, 2)
	assert.Equal(t, []float64{1, 3, 2}, rates(in))
}

func TestCapacity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		cash   string
		amount string
		want   int
	}{
		{"even", "100", "25", 4},
		{"floors", "99.99", "25", 3},
		{"short", "24.99", "25", 0},
		{"no cash", "0", "25", 0},
		{"zero amount", "100", "0", 0},
		{"negative amount", "100", "-25", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Capacity(decimal.RequireFromString(tt.cash), decimal.RequireFromString(tt.amount))
			assert.Equal(t, tt.want, got)
		})
	}
}
