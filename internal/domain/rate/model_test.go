package rate

import (
	"testing"
	"time"

	"github.com/andreolf/clawloan/pkg/fixed"
	"github.com/stretchr/testify/require"
)

func pct(bps uint64) fixed.Int { return fixed.FromBps(bps) }

func TestBorrowAPR_ReferenceCurve(t *testing.T) {
	m := NewModel(Reference())
	cases := []struct {
		name     string
		deposits uint64
		borrows  uint64
		wantBps  uint64
	}{
		{"empty pool", 0, 0, 200},
		{"idle pool", 100, 0, 200},
		{"half optimal", 100, 40, 400},
		{"at kink", 100, 80, 600},
		{"above kink", 100, 95, 6225},
		{"fully utilized", 100, 100, 8100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := m.BorrowAPR(fixed.New(tc.deposits), fixed.New(tc.borrows))
			require.Equal(t, pct(tc.wantBps).String(), got.String())
		})
	}
}

func TestRates_SupplySide(t *testing.T) {
	m := NewModel(Reference())

	r := m.Rates(fixed.New(100), fixed.New(80))
	require.Equal(t, pct(8000).String(), r.Utilization.String())
	require.Equal(t, pct(600).String(), r.BorrowAPR.String())
	// 6% * 0.8 * 0.9 = 4.32%
	require.Equal(t, pct(432).String(), r.SupplyAPY.String())

	idle := m.Rates(fixed.New(100), fixed.Zero())
	require.True(t, idle.SupplyAPY.IsZero())
	require.True(t, idle.Utilization.IsZero())
}

func TestUtilization_NeverExceedsOne(t *testing.T) {
	m := NewModel(Reference())
	u := m.Utilization(fixed.New(10), fixed.New(11))
	require.Equal(t, fixed.RAY.String(), u.String())
}

func TestGrowthFactor(t *testing.T) {
	require.Equal(t, fixed.RAY.String(), GrowthFactor(pct(600), 0).String())
	require.Equal(t, fixed.RAY.String(), GrowthFactor(pct(600), -time.Hour).String())

	// a full year at 6% grows the index by exactly 6%
	require.Equal(t, pct(10_600).String(), GrowthFactor(pct(600), Year).String())

	half := GrowthFactor(pct(600), Year/2)
	require.Equal(t, pct(10_300).String(), half.String())
}
