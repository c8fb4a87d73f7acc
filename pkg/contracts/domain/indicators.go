package domain

// IndicatorRecord is the flat per-security attribute bag assembled from the
// upstream sources. A zero value means the field is absent; sources cannot
// report a distinguishable "true zero", and downstream reconciliation relies
// on that convention.
//
// Extra carries source-specific fields that have no typed slot, preserved
// for passthrough into the combined output.
type IndicatorRecord struct {
	Code string `json:"code"`
	Name string `json:"name"`

	// Quote and valuation ratios.
	ClosePrice float64 `json:"close_price"`
	PETTM      float64 `json:"pe_ttm"`
	PBRatio    float64 `json:"pb_ratio"`
	PSTTM      float64 `json:"ps_ttm"`
	PCFTTM     float64 `json:"pcf_ttm"`

	// Per-share and scale figures.
	EPS             float64 `json:"eps"`
	EPSFromCashFlow float64 `json:"eps_from_cash_flow"`
	BVPS            float64 `json:"bvps"`
	TotalRevenue    float64 `json:"total_revenue"`

	// Profitability.
	ROE         float64 `json:"roe"`
	GrossMargin float64 `json:"gross_margin"`
	NetMargin   float64 `json:"net_margin"`

	// Growth.
	RevenueYoY      float64 `json:"revenue_yoy"`
	NetProfitYoY    float64 `json:"net_profit_yoy"`
	AttributableYoY float64 `json:"attributable_yoy"`
	EPSGrowth       float64 `json:"eps_growth"`

	// Non-recurring profit.
	NonRecurringProfit float64 `json:"non_recurring_profit"`
	NonRecurringYoY    float64 `json:"non_recurring_yoy"`

	// Leverage, ownership and payout.
	DebtToAsset   float64 `json:"debt_to_asset"`
	GoodwillRatio float64 `json:"goodwill_ratio"`
	PledgeRatio   float64 `json:"pledge_ratio"`
	DividendYield float64 `json:"dividend_yield"`
	PayoutRatio   float64 `json:"payout_ratio"`

	Extra map[string]float64 `json:"extra,omitempty"`
}

// NewIdentityRecord returns a record seeded with only the identity fields.
// The pipeline uses it as the placeholder when every source fails.
func NewIdentityRecord(code, name string) *IndicatorRecord {
	if name == "" {
		name = code
	}
	return &IndicatorRecord{Code: code, Name: name}
}

// IdentityOnly reports whether the record holds nothing beyond code and name.
// The failover resolver treats such a record as an unusable fetch result.
func (r *IndicatorRecord) IdentityOnly() bool {
	for _, v := range r.numericFields() {
		if *v != 0 {
			return false
		}
	}
	return len(r.Extra) == 0
}

// Merge copies fields from other into r, keeping any value r already has.
// Higher-priority sources are merged first, so the first writer wins.
func (r *IndicatorRecord) Merge(other *IndicatorRecord) {
	if other == nil {
		return
	}
	if r.Code == "" {
		r.Code = other.Code
	}
	if r.Name == "" || r.Name == r.Code {
		if other.Name != "" {
			r.Name = other.Name
		}
	}
	dst := r.numericFields()
	src := other.numericFields()
	for i := range dst {
		if *dst[i] == 0 && *src[i] != 0 {
			*dst[i] = *src[i]
		}
	}
	for k, v := range other.Extra {
		if r.Extra == nil {
			r.Extra = make(map[string]float64, len(other.Extra))
		}
		if _, ok := r.Extra[k]; !ok {
			r.Extra[k] = v
		}
	}
}

// Clone returns a deep copy of the record.
func (r *IndicatorRecord) Clone() *IndicatorRecord {
	out := *r
	if r.Extra != nil {
		out.Extra = make(map[string]float64, len(r.Extra))
		for k, v := range r.Extra {
			out.Extra[k] = v
		}
	}
	return &out
}

// numericFields returns pointers to every numeric slot in a fixed order.
// Merge and IdentityOnly iterate this instead of reflecting over the struct.
func (r *IndicatorRecord) numericFields() []*float64 {
	return []*float64{
		&r.ClosePrice, &r.PETTM, &r.PBRatio, &r.PSTTM, &r.PCFTTM,
		&r.EPS, &r.EPSFromCashFlow, &r.BVPS, &r.TotalRevenue,
		&r.ROE, &r.GrossMargin, &r.NetMargin,
		&r.RevenueYoY, &r.NetProfitYoY, &r.AttributableYoY, &r.EPSGrowth,
		&r.NonRecurringProfit, &r.NonRecurringYoY,
		&r.DebtToAsset, &r.GoodwillRatio, &r.PledgeRatio,
		&r.DividendYield, &r.PayoutRatio,
	}
}

// BoardRecord is one fully reconciled output row with its segment label.
type BoardRecord struct {
	Board  Board            `json:"board"`
	Record *IndicatorRecord `json:"record"`
}
