// Package failover drives source adapters in priority order. A source that
// fails or answers with nothing usable rotates to the back of the priority
// list but stays eligible; only when every source has had its one attempt
// does an operation surface ErrAllSourcesExhausted. The priority list is a
// caller-owned value that each call returns updated.
package failover

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"ashcli/internal/sources"
	"ashcli/pkg/contracts/domain"
)

// ErrAllSourcesExhausted signals that every adapter was tried without a
// usable result. Callers substitute a placeholder and continue; one entity's
// total failure never aborts a batch.
var ErrAllSourcesExhausted = errors.New("all sources exhausted")

// Resolver executes list and fetch operations with source failover.
type Resolver struct {
	// CallTimeout bounds each individual adapter call. A timed-out call
	// counts as an adapter failure and rotates the source.
	CallTimeout time.Duration
	Logger      *slog.Logger
}

// New creates a resolver with the given per-call timeout.
func New(callTimeout time.Duration, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		CallTimeout: callTimeout,
		Logger:      logger.With(slog.String("component", "failover")),
	}
}

// ListUniverse asks each source in turn for the security universe. A result
// is usable when it is non-empty. Returns the securities, the updated
// priority list and the name of the source that answered.
func (r *Resolver) ListUniverse(ctx context.Context, list sources.PriorityList, date string) ([]domain.Security, sources.PriorityList, string, error) {
	current := list
	for attempt := 0; attempt < len(list); attempt++ {
		src := current[0]
		items, err := r.callList(ctx, src, date)

		switch {
		case err != nil:
			r.Logger.Warn("universe listing failed",
				slog.String("source", src.Name()),
				slog.String("error", err.Error()))
		case len(items) == 0:
			r.Logger.Warn("universe listing empty", slog.String("source", src.Name()))
		default:
			return items, current, src.Name(), nil
		}

		if ctx.Err() != nil {
			return nil, current, "", ctx.Err()
		}
		current = current.RotateFront()
	}
	return nil, current, "", ErrAllSourcesExhausted
}

// FetchOne asks each source in turn for one security's indicators. A result
// is usable when the record carries more than the identity fields it was
// seeded with. Returns the record, the updated priority list and the name of
// the source that answered.
func (r *Resolver) FetchOne(ctx context.Context, list sources.PriorityList, code, date string) (*domain.IndicatorRecord, sources.PriorityList, string, error) {
	current := list
	for attempt := 0; attempt < len(list); attempt++ {
		src := current[0]
		record, err := r.callFetch(ctx, src, code, date)

		switch {
		case err != nil:
			r.Logger.Debug("indicator fetch failed",
				slog.String("source", src.Name()),
				slog.String("code", code),
				slog.String("error", err.Error()))
		case record == nil || record.IdentityOnly():
			r.Logger.Debug("indicator fetch unusable",
				slog.String("source", src.Name()),
				slog.String("code", code))
		default:
			return record, current, src.Name(), nil
		}

		if ctx.Err() != nil {
			return nil, current, "", ctx.Err()
		}
		current = current.RotateFront()
	}
	return nil, current, "", ErrAllSourcesExhausted
}

// callList runs one listing call under the per-call timeout.
func (r *Resolver) callList(ctx context.Context, src sources.Source, date string) ([]domain.Security, error) {
	callCtx, cancel := r.callContext(ctx)
	defer cancel()
	return src.ListSecurities(callCtx, date)
}

// callFetch runs one fetch call under the per-call timeout.
func (r *Resolver) callFetch(ctx context.Context, src sources.Source, code, date string) (*domain.IndicatorRecord, error) {
	callCtx, cancel := r.callContext(ctx)
	defer cancel()
	return src.FetchIndicators(callCtx, code, date)
}

func (r *Resolver) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.CallTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.CallTimeout)
}
