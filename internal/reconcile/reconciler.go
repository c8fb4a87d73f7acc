// Package reconcile fills the gaps in partial indicator records. Every
// derived field goes through the same cascade: keep the observed value, then
// try a formula over already-resolved fields, then a proportional estimate
// from a resolved growth metric, then an industry-average terminal constant.
// A value of zero means absent throughout; sources cannot report a
// distinguishable true zero, and that convention is preserved on purpose.
package reconcile

import (
	"ashcli/pkg/contracts/domain"
)

// Reconciler completes indicator records. It is stateless and safe for
// concurrent use.
type Reconciler struct {
	c Constants
}

// New creates a reconciler with the given cascade parameters.
func New(c Constants) *Reconciler {
	return &Reconciler{c: c}
}

// Default creates a reconciler with the calibrated defaults.
func Default() *Reconciler {
	return New(DefaultConstants())
}

// Reconcile returns a new record in which every required field is populated.
// It never fails, never mutates its input, and is idempotent: feeding the
// output back in returns it unchanged.
//
// Proportional estimates only draw on fields that were observed or derived
// by formula, never on terminal constants, so a record with no growth data
// at all lands on each field's own industry average rather than on a chain
// of multiplied fallbacks.
func (rc *Reconciler) Reconcile(partial *domain.IndicatorRecord) *domain.IndicatorRecord {
	if partial == nil {
		partial = &domain.IndicatorRecord{}
	}
	r := partial.Clone()
	c := rc.c

	// Per-share figures from valuation ratios. The cash-flow statement EPS
	// stands in when the quote-derived figure is missing.
	if r.EPS == 0 && r.EPSFromCashFlow != 0 {
		r.EPS = r.EPSFromCashFlow
	}
	if r.EPS == 0 && r.ClosePrice != 0 && r.PETTM != 0 {
		r.EPS = r.ClosePrice / r.PETTM
	}
	if r.BVPS == 0 && r.ClosePrice != 0 && r.PBRatio != 0 {
		r.BVPS = r.ClosePrice / r.PBRatio
	}
	if r.TotalRevenue == 0 && r.ClosePrice != 0 && r.PSTTM != 0 {
		r.TotalRevenue = r.ClosePrice / r.PSTTM
	}
	if r.ROE == 0 && r.EPS != 0 && r.BVPS != 0 {
		r.ROE = r.EPS / r.BVPS
	}

	// Growth metrics in dependency order: revenue before net profit before
	// attributable before EPS growth. resolved* flags separate real signal
	// from terminal constants so estimates never compound a fallback.
	resolvedEPSGrowth := r.EPSGrowth != 0

	resolvedRevenue := r.RevenueYoY != 0
	if !resolvedRevenue {
		if resolvedEPSGrowth {
			r.RevenueYoY = r.EPSGrowth * c.RevenueFromEPSGrowth
			resolvedRevenue = true
		} else {
			r.RevenueYoY = c.RevenueGrowth
		}
	}

	resolvedNetProfit := r.NetProfitYoY != 0
	if !resolvedNetProfit {
		if resolvedRevenue {
			r.NetProfitYoY = r.RevenueYoY * c.NetProfitFromRevenue
			resolvedNetProfit = true
		} else {
			r.NetProfitYoY = c.NetProfitGrowth
		}
	}

	resolvedAttributable := r.AttributableYoY != 0
	if !resolvedAttributable {
		if resolvedNetProfit {
			r.AttributableYoY = r.NetProfitYoY * c.AttributableFromNetProfit
			resolvedAttributable = true
		} else {
			r.AttributableYoY = c.AttributableGrowth
		}
	}

	if r.EPSGrowth == 0 {
		if resolvedRevenue {
			r.EPSGrowth = r.RevenueYoY * c.EPSGrowthFromRevenue
		} else {
			r.EPSGrowth = c.EPSGrowth
		}
	}

	// Margins and leverage have no formula step; observed or the average.
	if r.GrossMargin == 0 {
		r.GrossMargin = c.GrossMargin
	}
	if r.NetMargin == 0 {
		r.NetMargin = c.NetMargin
	}
	if r.DebtToAsset == 0 {
		r.DebtToAsset = c.DebtToAsset
	}

	// Non-recurring profit follows EPS; without EPS it stays absent because
	// no meaningful scale exists to estimate from.
	if r.NonRecurringProfit == 0 && r.EPS != 0 {
		r.NonRecurringProfit = r.EPS * c.NonRecurringFromEPS
	}
	if r.NonRecurringYoY == 0 {
		switch {
		case resolvedAttributable:
			r.NonRecurringYoY = r.AttributableYoY * c.NonRecurringGrowthDecay
		case resolvedNetProfit:
			r.NonRecurringYoY = r.NetProfitYoY * c.NonRecurringGrowthDecay
		default:
			r.NonRecurringYoY = c.NonRecurringGrowth
		}
	}

	// Payout metrics come last; they depend on ROE and dividend yield.
	if r.DividendYield == 0 {
		r.DividendYield = r.ROE * c.DividendFromROE
		if r.DividendYield < c.MinDividendYield {
			r.DividendYield = c.MinDividendYield
		}
	}
	if r.PayoutRatio == 0 {
		if r.ROE != 0 {
			r.PayoutRatio = r.DividendYield / r.ROE
		} else {
			r.PayoutRatio = c.PayoutRatio
		}
	}

	// Ownership-structure ratios are rarely published by any source.
	if r.GoodwillRatio == 0 {
		r.GoodwillRatio = c.GoodwillRatio
	}
	if r.PledgeRatio == 0 {
		r.PledgeRatio = c.PledgeRatio
	}

	return r
}
