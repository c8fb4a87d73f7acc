// Package pipeline drives one collection run end to end: list the security
// universe, classify every code into its board, resolve each security's
// indicators with source failover, reconcile the gaps and hand the per-board
// and combined tables to the sink. One security's total failure degrades to
// an identity-only placeholder row; only cancellation or an empty universe
// stops a run, and a cancelled run still flushes what it has.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"ashcli/internal/failover"
	"ashcli/internal/reconcile"
	"ashcli/internal/sources"
	"ashcli/internal/universe"
	"ashcli/pkg/contracts/domain"
)

// Sink receives one finished table and persists it. The label is a board
// name or "combined". Implementations return the path they wrote to.
type Sink interface {
	Write(records []domain.BoardRecord, label string) (string, error)
}

// Event describes one security's completion.
type Event struct {
	RunID   string        `json:"run_id"`
	Code    string        `json:"code"`
	Name    string        `json:"name"`
	Board   string        `json:"board"`
	Source  string        `json:"source,omitempty"`
	Error   string        `json:"error,omitempty"`
	Elapsed time.Duration `json:"elapsed"`
	Index   int           `json:"index"`
	Total   int           `json:"total"`
}

// Observer receives per-security completion events. Implementations must be
// safe for concurrent use when the pipeline runs with more than one worker.
type Observer interface {
	EntityDone(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

func (f ObserverFunc) EntityDone(e Event) { f(e) }

// Options configures one collection run.
type Options struct {
	// Date selects the trading date passed to the sources, empty for latest.
	Date string
	// Workers above 1 enables the bounded-parallel mode.
	Workers int
	// MaxPerBoard truncates each board bucket, 0 for no cap.
	MaxPerBoard int
	// RequestDelay paces consecutive remote fetches.
	RequestDelay time.Duration
}

// Summary reports the outcome of one run.
type Summary struct {
	RunID        string        `json:"run_id"`
	Total        int           `json:"total"`
	Succeeded    int           `json:"succeeded"`
	Placeholders int           `json:"placeholders"`
	Outputs      []string      `json:"outputs"`
	Elapsed      time.Duration `json:"elapsed"`
}

// Pipeline orchestrates a collection run.
type Pipeline struct {
	enum     *universe.Enumerator
	resolver *failover.Resolver
	rec      *reconcile.Reconciler
	sink     Sink
	opts     Options
	logger   *slog.Logger
	observer Observer

	mu      sync.Mutex
	tracker *Tracker
}

// New creates a pipeline over the given collaborators.
func New(enum *universe.Enumerator, resolver *failover.Resolver, rec *reconcile.Reconciler, sink Sink, opts Options, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Pipeline{
		enum:     enum,
		resolver: resolver,
		rec:      rec,
		sink:     sink,
		opts:     opts,
		logger:   logger.With(slog.String("component", "pipeline")),
	}
}

// SetObserver installs the per-security completion observer.
func (p *Pipeline) SetObserver(o Observer) { p.observer = o }

// Tracker returns the progress tracker of the current or most recent run,
// nil before the first run starts.
func (p *Pipeline) Tracker() *Tracker {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tracker
}

// Run lists the universe and collects every security in it.
func (p *Pipeline) Run(ctx context.Context, list sources.PriorityList) (*Summary, error) {
	set, updated, err := p.enum.List(ctx, list, p.opts.Date)
	if err != nil {
		return nil, err
	}
	secs := make([]domain.Security, 0, len(set))
	for _, sec := range set {
		secs = append(secs, sec)
	}
	return p.collect(ctx, updated, secs)
}

// CollectCodes collects an explicit code list, skipping universe listing.
// Codes are normalized and deduplicated; names are seeded from the codes and
// filled in by whichever source answers.
func (p *Pipeline) CollectCodes(ctx context.Context, list sources.PriorityList, codes []string) (*Summary, error) {
	seen := make(map[string]struct{}, len(codes))
	secs := make([]domain.Security, 0, len(codes))
	for _, code := range codes {
		key := domain.NormalizeCode(code)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		secs = append(secs, domain.Security{Code: key, Name: key})
	}
	if len(secs) == 0 {
		return nil, universe.ErrUniverseEmpty
	}
	return p.collect(ctx, list, secs)
}

type job struct {
	sec   domain.Security
	board domain.Board
}

func (p *Pipeline) collect(ctx context.Context, list sources.PriorityList, secs []domain.Security) (*Summary, error) {
	start := time.Now()
	runID := uuid.NewString()
	jobs := p.buildJobs(secs)

	p.mu.Lock()
	p.tracker = NewTracker(runID, len(jobs))
	tracker := p.tracker
	p.mu.Unlock()

	logger := p.logger.With(slog.String("run_id", runID))
	logger.Info("collection started",
		slog.Int("securities", len(jobs)),
		slog.Int("workers", p.opts.Workers),
		slog.String("date", p.opts.Date))

	results := make([]domain.BoardRecord, len(jobs))
	completed := make([]bool, len(jobs))

	var runErr error
	if p.opts.Workers > 1 {
		runErr = p.collectParallel(ctx, runID, tracker, list, jobs, results, completed)
	} else {
		runErr = p.collectSerial(ctx, runID, tracker, list, jobs, results, completed)
	}

	// Flush whatever finished, cancellation included.
	summary := &Summary{RunID: runID, Total: len(jobs)}
	var combined []domain.BoardRecord
	for i, rec := range results {
		if !completed[i] {
			continue
		}
		combined = append(combined, rec)
		if rec.Record.IdentityOnly() {
			summary.Placeholders++
		} else {
			summary.Succeeded++
		}
	}
	if flushErr := p.flush(logger, combined, summary); flushErr != nil && runErr == nil {
		runErr = flushErr
	}

	summary.Elapsed = time.Since(start)
	tracker.Finish()
	logger.Info("collection finished",
		slog.Int("succeeded", summary.Succeeded),
		slog.Int("placeholders", summary.Placeholders),
		slog.Duration("elapsed", summary.Elapsed))
	return summary, runErr
}

// buildJobs buckets the securities by board, truncates each bucket to the
// configured cap and returns the work list in code order.
func (p *Pipeline) buildJobs(secs []domain.Security) []job {
	buckets := make(map[domain.Board][]domain.Security)
	for _, sec := range secs {
		board := domain.ClassifyBoard(sec.Code)
		buckets[board] = append(buckets[board], sec)
	}
	jobs := make([]job, 0, len(secs))
	for board, members := range buckets {
		sort.Slice(members, func(i, j int) bool { return members[i].Code < members[j].Code })
		if p.opts.MaxPerBoard > 0 && len(members) > p.opts.MaxPerBoard {
			members = members[:p.opts.MaxPerBoard]
		}
		for _, sec := range members {
			jobs = append(jobs, job{sec: sec, board: board})
		}
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].sec.Code < jobs[j].sec.Code })
	return jobs
}

func (p *Pipeline) collectSerial(ctx context.Context, runID string, tracker *Tracker, list sources.PriorityList, jobs []job, results []domain.BoardRecord, completed []bool) error {
	var limiter *rate.Limiter
	if p.opts.RequestDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(p.opts.RequestDelay), 1)
	}
	current := list
	for i, jb := range jobs {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
		}
		began := time.Now()
		record, updated, source, err := p.resolver.FetchOne(ctx, current, jb.sec.Code, p.opts.Date)
		current = updated
		if err != nil && !errors.Is(err, failover.ErrAllSourcesExhausted) {
			return err
		}
		results[i] = p.finish(runID, tracker, i, len(jobs), jb, record, source, err, time.Since(began))
		completed[i] = true
	}
	return nil
}

func (p *Pipeline) collectParallel(ctx context.Context, runID string, tracker *Tracker, list sources.PriorityList, jobs []job, results []domain.BoardRecord, completed []bool) error {
	var limiter *rate.Limiter
	if p.opts.RequestDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(p.opts.RequestDelay), 1)
	}

	// The priority list stays a value; workers swap whole copies under the
	// lock so rotation carries across securities without shared mutation.
	var listMu sync.Mutex
	shared := list

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)
	for i, jb := range jobs {
		g.Go(func() error {
			if limiter != nil {
				if err := limiter.Wait(gctx); err != nil {
					return err
				}
			}
			listMu.Lock()
			current := shared
			listMu.Unlock()

			began := time.Now()
			record, updated, source, err := p.resolver.FetchOne(gctx, current, jb.sec.Code, p.opts.Date)

			listMu.Lock()
			shared = updated
			listMu.Unlock()

			if err != nil && !errors.Is(err, failover.ErrAllSourcesExhausted) {
				return err
			}
			results[i] = p.finish(runID, tracker, i, len(jobs), jb, record, source, err, time.Since(began))
			completed[i] = true
			return nil
		})
	}
	return g.Wait()
}

// finish reconciles a fetched record, or builds the identity-only
// placeholder when every source came up empty, and emits the completion
// event.
func (p *Pipeline) finish(runID string, tracker *Tracker, idx, total int, jb job, record *domain.IndicatorRecord, source string, fetchErr error, elapsed time.Duration) domain.BoardRecord {
	var out *domain.IndicatorRecord
	if fetchErr != nil || record == nil {
		out = domain.NewIdentityRecord(jb.sec.Code, jb.sec.Name)
	} else {
		out = p.rec.Reconcile(record)
		out.Code = jb.sec.Code
		if out.Name == "" {
			out.Name = jb.sec.Name
		}
	}

	tracker.Increment(out.Code)
	event := Event{
		RunID:   runID,
		Code:    out.Code,
		Name:    out.Name,
		Board:   jb.board.String(),
		Source:  source,
		Elapsed: elapsed,
		Index:   idx + 1,
		Total:   total,
	}
	if fetchErr != nil {
		event.Error = fetchErr.Error()
		p.logger.Warn("security degraded to placeholder",
			slog.String("run_id", runID),
			slog.String("code", out.Code))
	}
	if p.observer != nil {
		p.observer.EntityDone(event)
	}
	return domain.BoardRecord{Board: jb.board, Record: out}
}

// flush writes one table per tracked board plus the combined table. Boards
// outside the tracked set appear only in the combined output.
func (p *Pipeline) flush(logger *slog.Logger, combined []domain.BoardRecord, summary *Summary) error {
	if len(combined) == 0 {
		return nil
	}
	var firstErr error
	write := func(records []domain.BoardRecord, label string) {
		path, err := p.sink.Write(records, label)
		if err != nil {
			logger.Error("sink write failed",
				slog.String("label", label),
				slog.String("error", err.Error()))
			if firstErr == nil {
				firstErr = err
			}
			return
		}
		summary.Outputs = append(summary.Outputs, path)
	}

	for _, board := range domain.TrackedBoards() {
		var rows []domain.BoardRecord
		for _, rec := range combined {
			if rec.Board == board {
				rows = append(rows, rec)
			}
		}
		if len(rows) == 0 {
			continue
		}
		write(rows, board.String())
	}
	write(combined, "combined")
	return firstErr
}
