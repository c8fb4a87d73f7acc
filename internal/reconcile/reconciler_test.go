package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ashcli/pkg/contracts/domain"
)

// requiredFields lists every field the cascade guarantees to populate.
func requiredFields(r *domain.IndicatorRecord) map[string]float64 {
	return map[string]float64{
		"gross_margin":     r.GrossMargin,
		"net_margin":       r.NetMargin,
		"revenue_yoy":      r.RevenueYoY,
		"net_profit_yoy":   r.NetProfitYoY,
		"attributable_yoy": r.AttributableYoY,
		"eps_growth":       r.EPSGrowth,
		"non_recurring_yoy": r.NonRecurringYoY,
		"debt_to_asset":    r.DebtToAsset,
		"goodwill_ratio":   r.GoodwillRatio,
		"pledge_ratio":     r.PledgeRatio,
		"dividend_yield":   r.DividendYield,
		"payout_ratio":     r.PayoutRatio,
	}
}

func TestReconcileTotality(t *testing.T) {
	rc := Default()

	inputs := map[string]*domain.IndicatorRecord{
		"nil record":    nil,
		"empty record":  {},
		"identity only": domain.NewIdentityRecord("sh.600000", "SPDB"),
		"quote only":    {Code: "sh.600000", ClosePrice: 10.5, PETTM: 6.0, PBRatio: 0.5},
	}

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			out := rc.Reconcile(input)
			for field, value := range requiredFields(out) {
				assert.NotZero(t, value, "field %s must be populated", field)
			}
		})
	}
}

func TestReconcileTerminalFallbacks(t *testing.T) {
	// No profitability ratio, no margins, no growth data: every required
	// field lands on its own industry-average constant.
	out := Default().Reconcile(domain.NewIdentityRecord("sh.600000", "SPDB"))

	assert.InDelta(t, 0.25, out.GrossMargin, 1e-12)
	assert.InDelta(t, 0.10, out.NetMargin, 1e-12)
	assert.InDelta(t, 0.08, out.RevenueYoY, 1e-12)
	assert.InDelta(t, 0.10, out.NetProfitYoY, 1e-12)
	assert.InDelta(t, 0.09, out.AttributableYoY, 1e-12)
	assert.InDelta(t, 0.09, out.EPSGrowth, 1e-12)
	assert.InDelta(t, 0.50, out.DebtToAsset, 1e-12)
	assert.InDelta(t, 0.05, out.GoodwillRatio, 1e-12)
	assert.InDelta(t, 0.10, out.PledgeRatio, 1e-12)
	assert.InDelta(t, 0.30, out.PayoutRatio, 1e-12)
	assert.InDelta(t, 0.01, out.DividendYield, 1e-12, "dividend floor applies without ROE")
	assert.InDelta(t, 0.085, out.NonRecurringYoY, 1e-12)
	assert.Zero(t, out.NonRecurringProfit, "no EPS means no scale to estimate from")
}

func TestReconcileCascadePriority(t *testing.T) {
	// Directly observed values survive untouched, even where a formula or
	// constant would produce something else.
	in := &domain.IndicatorRecord{
		Code:        "sz.000001",
		ClosePrice:  10.0,
		PETTM:       5.0,
		EPS:         3.33, // disagrees with price/PE on purpose
		GrossMargin: 0.61,
		RevenueYoY:  -0.04, // negative readings are real observations
	}
	out := Default().Reconcile(in)

	assert.InDelta(t, 3.33, out.EPS, 1e-12)
	assert.InDelta(t, 0.61, out.GrossMargin, 1e-12)
	assert.InDelta(t, -0.04, out.RevenueYoY, 1e-12)
	assert.InDelta(t, 10.0, out.ClosePrice, 1e-12)
}

func TestReconcileFormulaDerivation(t *testing.T) {
	in := &domain.IndicatorRecord{
		Code:       "sh.600000",
		ClosePrice: 10.5,
		PETTM:      6.0,
		PBRatio:    0.5,
		PSTTM:      2.0,
	}
	out := Default().Reconcile(in)

	assert.InDelta(t, 10.5/6.0, out.EPS, 1e-12, "EPS = price / PE")
	assert.InDelta(t, 10.5/0.5, out.BVPS, 1e-12, "BVPS = price / PB")
	assert.InDelta(t, 10.5/2.0, out.TotalRevenue, 1e-12, "revenue = price / PS")
	assert.InDelta(t, out.EPS/out.BVPS, out.ROE, 1e-12, "ROE = EPS / BVPS")
	assert.InDelta(t, out.EPS*0.95, out.NonRecurringProfit, 1e-12)
}

func TestReconcileEPSFromCashFlowBackup(t *testing.T) {
	in := &domain.IndicatorRecord{Code: "sh.600000", EPSFromCashFlow: 1.42}
	out := Default().Reconcile(in)
	assert.InDelta(t, 1.42, out.EPS, 1e-12)

	in = &domain.IndicatorRecord{Code: "sh.600000", EPS: 1.5, EPSFromCashFlow: 1.42}
	out = Default().Reconcile(in)
	assert.InDelta(t, 1.5, out.EPS, 1e-12, "quote EPS outranks the cash-flow figure")
}

func TestReconcileProportionalChain(t *testing.T) {
	// An observed revenue growth figure propagates through the multiplier
	// chain instead of the terminal constants.
	in := &domain.IndicatorRecord{Code: "sz.300750", RevenueYoY: 0.20}
	out := Default().Reconcile(in)

	assert.InDelta(t, 0.20, out.RevenueYoY, 1e-12)
	assert.InDelta(t, 0.20*1.10, out.NetProfitYoY, 1e-12)
	assert.InDelta(t, 0.20*1.10*0.95, out.AttributableYoY, 1e-12)
	assert.InDelta(t, 0.20*1.05, out.EPSGrowth, 1e-12)
	assert.InDelta(t, 0.20*1.10*0.95*0.95, out.NonRecurringYoY, 1e-12)
}

func TestReconcileRevenueFromEPSGrowth(t *testing.T) {
	in := &domain.IndicatorRecord{Code: "sh.688001", EPSGrowth: 0.30}
	out := Default().Reconcile(in)

	assert.InDelta(t, 0.30*0.80, out.RevenueYoY, 1e-12)
	assert.InDelta(t, 0.30*0.80*1.10, out.NetProfitYoY, 1e-12)
	assert.InDelta(t, 0.30, out.EPSGrowth, 1e-12, "observed EPS growth is kept")
}

func TestReconcileDividendFromROE(t *testing.T) {
	in := &domain.IndicatorRecord{Code: "sh.600000", ROE: 0.15}
	out := Default().Reconcile(in)

	assert.InDelta(t, 0.15*0.30, out.DividendYield, 1e-12)
	assert.InDelta(t, out.DividendYield/0.15, out.PayoutRatio, 1e-12)

	// Tiny ROE still produces the floor yield.
	in = &domain.IndicatorRecord{Code: "sh.600000", ROE: 0.02}
	out = Default().Reconcile(in)
	assert.InDelta(t, 0.01, out.DividendYield, 1e-12)
}

func TestReconcileIdempotence(t *testing.T) {
	rc := Default()

	inputs := []*domain.IndicatorRecord{
		{},
		domain.NewIdentityRecord("sh.600000", "SPDB"),
		{Code: "sh.600000", ClosePrice: 10.5, PETTM: 6.0, PBRatio: 0.5, PSTTM: 2.0},
		{Code: "sz.300750", RevenueYoY: 0.20, GrossMargin: 0.22},
		{Code: "sh.688001", EPSGrowth: 0.30, ROE: 0.15},
	}

	for _, input := range inputs {
		once := rc.Reconcile(input)
		twice := rc.Reconcile(once)
		require.Equal(t, once, twice)
	}
}

func TestReconcileDoesNotMutateInput(t *testing.T) {
	in := domain.NewIdentityRecord("sh.600000", "SPDB")
	_ = Default().Reconcile(in)
	assert.True(t, in.IdentityOnly(), "input record is untouched")
}

func TestReconcilePreservesPassthroughFields(t *testing.T) {
	in := &domain.IndicatorRecord{
		Code:  "sh.600000",
		Extra: map[string]float64{"total_market_cap": 3.1e11},
	}
	out := Default().Reconcile(in)
	assert.Equal(t, 3.1e11, out.Extra["total_market_cap"])
}
