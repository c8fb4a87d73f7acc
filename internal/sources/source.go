// Package sources holds the upstream data-source adapters. Every adapter
// exposes the same two operations, listing the security universe and
// fetching a per-security indicator record, and the failover resolver
// drives them in priority order. Upstream wire formats are third-party and
// unversioned; adapters tolerate missing fields and report them as zero.
package sources

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"ashcli/pkg/contracts/domain"
)

// Common adapter failure sentinels.
var (
	// ErrUnusableResult marks a call that completed but produced nothing the
	// caller can act on (empty universe, identity-only record).
	ErrUnusableResult = errors.New("source returned no usable data")
	// ErrNotSupported marks an operation an adapter does not implement.
	ErrNotSupported = errors.New("operation not supported by source")
)

// Source is one upstream data provider. Both operations go over the network
// and honor context cancellation; the ctx deadline is the per-call timeout.
type Source interface {
	// Name identifies the adapter in priority lists, logs and metrics.
	Name() string
	// ListSecurities returns the universe of codes the source knows about
	// for the given trade date (empty date means most recent available).
	ListSecurities(ctx context.Context, date string) ([]domain.Security, error)
	// FetchIndicators returns a partial indicator record for one code.
	// A nil record with nil error is treated the same as ErrUnusableResult.
	FetchIndicators(ctx context.Context, code, date string) (*domain.IndicatorRecord, error)
}

// PriorityList is an ordered sequence of sources. It is a value owned by the
// caller: resolver operations return the rotated list instead of mutating
// shared state. A failed source moves to the back but is never removed.
type PriorityList []Source

// Names returns the adapter names in current priority order.
func (p PriorityList) Names() []string {
	names := make([]string, len(p))
	for i, s := range p {
		names[i] = s.Name()
	}
	return names
}

// RotateFront returns a copy of the list with the front source moved to the
// back. Rotating an empty or single-element list is a no-op copy.
func (p PriorityList) RotateFront() PriorityList {
	out := make(PriorityList, len(p))
	copy(out, p)
	if len(out) > 1 {
		front := out[0]
		copy(out, out[1:])
		out[len(out)-1] = front
	}
	return out
}

// SafeFloat converts an upstream string to a float64, returning 0 for empty,
// date-shaped or otherwise unparsable values. Upstreams mix numbers, empty
// strings and dates in the same column positions.
func SafeFloat(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" || value == "-" || value == "--" {
		return 0
	}
	// Date cells like 2024-10-31 parse as numbers in some locales; drop them.
	if strings.Count(value, "-") >= 2 && len(value) == 10 {
		return 0
	}
	value = strings.ReplaceAll(value, ",", "")
	trimPct := strings.HasSuffix(value, "%")
	value = strings.TrimSuffix(value, "%")
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	if trimPct {
		f /= 100
	}
	return f
}
