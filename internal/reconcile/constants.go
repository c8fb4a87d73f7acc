package reconcile

// Constants holds the derivation multipliers and industry-average terminal
// fallbacks used by the reconciliation cascade. The terminal values are
// calibrated from A-share sector averages; the multipliers encode the fixed
// proportional relationships between growth metrics.
type Constants struct {
	// Proportional multipliers (cascade step 3).
	RevenueFromEPSGrowth      float64 // revenue growth from observed EPS growth
	NetProfitFromRevenue      float64 // net-profit growth from revenue growth
	AttributableFromNetProfit float64 // attributable growth from net-profit growth
	EPSGrowthFromRevenue      float64 // EPS growth from revenue growth
	NonRecurringFromEPS       float64 // non-recurring profit from EPS
	NonRecurringGrowthDecay   float64 // non-recurring growth from attributable/net-profit growth
	DividendFromROE           float64 // dividend yield as a payout share of ROE

	// Terminal industry-average fallbacks (cascade step 4).
	GrossMargin        float64
	NetMargin          float64
	RevenueGrowth      float64
	NetProfitGrowth    float64
	AttributableGrowth float64
	EPSGrowth          float64
	NonRecurringGrowth float64
	DebtToAsset        float64
	GoodwillRatio      float64
	PledgeRatio        float64
	PayoutRatio        float64
	MinDividendYield   float64
}

// DefaultConstants returns the calibrated cascade parameters.
func DefaultConstants() Constants {
	return Constants{
		RevenueFromEPSGrowth:      0.80,
		NetProfitFromRevenue:      1.10,
		AttributableFromNetProfit: 0.95,
		EPSGrowthFromRevenue:      1.05,
		NonRecurringFromEPS:       0.95,
		NonRecurringGrowthDecay:   0.95,
		DividendFromROE:           0.30,

		GrossMargin:        0.25,
		NetMargin:          0.10,
		RevenueGrowth:      0.08,
		NetProfitGrowth:    0.10,
		AttributableGrowth: 0.09,
		EPSGrowth:          0.09,
		NonRecurringGrowth: 0.085,
		DebtToAsset:        0.50,
		GoodwillRatio:      0.05,
		PledgeRatio:        0.10,
		PayoutRatio:        0.30,
		MinDividendYield:   0.01,
	}
}
