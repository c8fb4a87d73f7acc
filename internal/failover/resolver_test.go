package failover

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ashcli/internal/sources"
	"ashcli/pkg/contracts/domain"
)

// fakeSource is a literal injected adapter with fixed responses.
type fakeSource struct {
	name       string
	listItems  []domain.Security
	listErr    error
	record     *domain.IndicatorRecord
	fetchErr   error
	listCalls  int
	fetchCalls int
	blockFor   time.Duration
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) ListSecurities(ctx context.Context, _ string) ([]domain.Security, error) {
	f.listCalls++
	if f.blockFor > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.blockFor):
		}
	}
	return f.listItems, f.listErr
}

func (f *fakeSource) FetchIndicators(ctx context.Context, code, _ string) (*domain.IndicatorRecord, error) {
	f.fetchCalls++
	if f.blockFor > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.blockFor):
		}
	}
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if f.record != nil {
		return f.record.Clone(), nil
	}
	return nil, nil
}

func usableRecord(code string) *domain.IndicatorRecord {
	r := domain.NewIdentityRecord(code, "Name")
	r.PETTM = 6.5
	return r
}

func TestFetchOneFailoverOrder(t *testing.T) {
	a := &fakeSource{name: "a", fetchErr: errors.New("boom")}
	b := &fakeSource{name: "b", record: usableRecord("sh.600000")}
	c := &fakeSource{name: "c", record: usableRecord("sh.600000")}

	r := New(0, nil)
	record, updated, source, err := r.FetchOne(context.Background(), sources.PriorityList{a, b, c}, "sh.600000", "")
	require.NoError(t, err)

	assert.Equal(t, "b", source)
	assert.InDelta(t, 6.5, record.PETTM, 1e-9)
	assert.Equal(t, []string{"b", "c", "a"}, updated.Names(), "failed source rotates to the back")
	assert.Equal(t, 1, a.fetchCalls)
	assert.Equal(t, 1, b.fetchCalls)
	assert.Equal(t, 0, c.fetchCalls, "resolution stops at the first usable result")
}

func TestFetchOneIdentityOnlyIsUnusable(t *testing.T) {
	a := &fakeSource{name: "a", record: domain.NewIdentityRecord("sh.600000", "")}
	b := &fakeSource{name: "b", record: usableRecord("sh.600000")}

	r := New(0, nil)
	_, updated, source, err := r.FetchOne(context.Background(), sources.PriorityList{a, b}, "sh.600000", "")
	require.NoError(t, err)
	assert.Equal(t, "b", source)
	assert.Equal(t, []string{"b", "a"}, updated.Names())
}

func TestFetchOneAllExhausted(t *testing.T) {
	a := &fakeSource{name: "a", fetchErr: errors.New("down")}
	b := &fakeSource{name: "b", fetchErr: errors.New("down")}

	r := New(0, nil)
	record, updated, _, err := r.FetchOne(context.Background(), sources.PriorityList{a, b}, "sh.600000", "")
	assert.ErrorIs(t, err, ErrAllSourcesExhausted)
	assert.Nil(t, record)
	assert.Equal(t, 1, a.fetchCalls, "each adapter is attempted at most once per entity")
	assert.Equal(t, 1, b.fetchCalls)
	assert.Equal(t, []string{"a", "b"}, updated.Names(), "full rotation restores the original order")
}

func TestFetchOneTimeoutCountsAsFailure(t *testing.T) {
	slow := &fakeSource{name: "slow", blockFor: time.Second, record: usableRecord("sh.600000")}
	fast := &fakeSource{name: "fast", record: usableRecord("sh.600000")}

	r := New(20*time.Millisecond, nil)
	_, updated, source, err := r.FetchOne(context.Background(), sources.PriorityList{slow, fast}, "sh.600000", "")
	require.NoError(t, err)
	assert.Equal(t, "fast", source)
	assert.Equal(t, []string{"fast", "slow"}, updated.Names())
}

func TestListUniverseFailover(t *testing.T) {
	a := &fakeSource{name: "a", listErr: errors.New("429")}
	b := &fakeSource{name: "b"} // completes but empty: unusable
	c := &fakeSource{name: "c", listItems: []domain.Security{{Code: "sh.600000"}}}

	r := New(0, nil)
	items, updated, source, err := r.ListUniverse(context.Background(), sources.PriorityList{a, b, c}, "")
	require.NoError(t, err)

	assert.Equal(t, "c", source)
	assert.Len(t, items, 1)
	assert.Equal(t, []string{"c", "a", "b"}, updated.Names())
}

func TestListUniverseAllExhausted(t *testing.T) {
	a := &fakeSource{name: "a"}
	b := &fakeSource{name: "b"}

	r := New(0, nil)
	_, _, _, err := r.ListUniverse(context.Background(), sources.PriorityList{a, b}, "")
	assert.ErrorIs(t, err, ErrAllSourcesExhausted)
}

func TestCancelledContextStopsResolution(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := &fakeSource{name: "a", fetchErr: context.Canceled}
	b := &fakeSource{name: "b", record: usableRecord("sh.600000")}

	r := New(0, nil)
	_, _, _, err := r.FetchOne(ctx, sources.PriorityList{a, b}, "sh.600000", "")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, b.fetchCalls, "no further adapters after cancellation")
}
