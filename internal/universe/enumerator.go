// Package universe builds the set of tradable securities for one run. The
// enumerator asks the listing sources through the failover resolver, then
// deduplicates codes case-insensitively so overlapping exchange listings
// collapse into a single entry.
package universe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ashcli/internal/failover"
	"ashcli/internal/sources"
	"ashcli/pkg/contracts/domain"
)

// ErrUniverseEmpty means no listing source produced a single security. The
// run has nothing to process; callers abort cleanly rather than crash.
var ErrUniverseEmpty = errors.New("security universe is empty")

// Enumerator produces the full security universe from the listing sources.
type Enumerator struct {
	resolver *failover.Resolver
	logger   *slog.Logger
}

// New creates an enumerator that lists through the given resolver.
func New(resolver *failover.Resolver, logger *slog.Logger) *Enumerator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enumerator{
		resolver: resolver,
		logger:   logger.With(slog.String("component", "universe")),
	}
}

// List returns the deduplicated universe keyed by normalized code, plus the
// updated source priority list. Codes differing only in case collapse to one
// entry; the first occurrence wins. An exhausted resolver becomes
// ErrUniverseEmpty.
func (e *Enumerator) List(ctx context.Context, list sources.PriorityList, date string) (map[string]domain.Security, sources.PriorityList, error) {
	items, updated, sourceName, err := e.resolver.ListUniverse(ctx, list, date)
	if err != nil {
		if errors.Is(err, failover.ErrAllSourcesExhausted) {
			return nil, updated, fmt.Errorf("listing securities: %w", ErrUniverseEmpty)
		}
		return nil, updated, fmt.Errorf("listing securities: %w", err)
	}

	set := make(map[string]domain.Security, len(items))
	for _, sec := range items {
		key := domain.NormalizeCode(sec.Code)
		if key == "" {
			continue
		}
		if _, seen := set[key]; seen {
			continue
		}
		sec.Code = key
		set[key] = sec
	}
	if len(set) == 0 {
		return nil, updated, ErrUniverseEmpty
	}

	e.logger.Info("universe listed",
		slog.String("source", sourceName),
		slog.Int("raw", len(items)),
		slog.Int("unique", len(set)))
	return set, updated, nil
}
