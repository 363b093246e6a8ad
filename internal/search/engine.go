// Package search implements a bounded-concurrency, cancellable,
// priority-ordered candidate search. It is shared by the VOD bruteforce
// (stop at the first confirmed candidate) and the clip scan (collect every
// confirmed candidate); only the aggregation policy differs.
package search

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/vodseek/vodseek/internal/domain"
)

// Hit is one confirmed candidate.
type Hit struct {
	URL   string
	Value int64
	Muted bool
}

// Verdict is the fully-resolved outcome of one candidate: every host was
// consulted, retries included.
type Verdict struct {
	Hits []Hit
	// Demoted marks a candidate whose absence rests on an exhausted
	// transient retry budget rather than definitive misses.
	Demoted bool
}

// VerifyFunc resolves one candidate value. Implementations probe hosts in
// their fixed pool order and may short-circuit on the first hit.
type VerifyFunc func(ctx context.Context, value int64) Verdict

// Policy selects how verdicts aggregate into a result.
type Policy int

const (
	// FirstMatch stops at the highest-priority confirmed candidate.
	FirstMatch Policy = iota
	// CollectAll resolves the whole candidate space and keeps every hit.
	CollectAll
)

// Progress is a monotonic snapshot of fully-resolved candidates.
type Progress struct {
	Done  int
	Total int
}

// Fraction returns completion in [0.0, 1.0].
func (p Progress) Fraction() float64 {
	if p.Total == 0 {
		return 1.0
	}
	return float64(p.Done) / float64(p.Total)
}

// Options configures one search run.
type Options struct {
	// Concurrency is the maximum number of candidates resolved in parallel.
	Concurrency int
	Policy      Policy
	// Limit throttles candidate dispatch when set.
	Limit *rate.Limiter
	// OnProgress, when set, observes every progress increment. Calls are
	// serialized and Done never decreases.
	OnProgress func(Progress)
	Logger     *slog.Logger
}

// Result is the terminal state of a search run.
type Result struct {
	State domain.SearchState
	// Hits holds the winning candidate's hits under FirstMatch, or every
	// confirmed hit in priority order under CollectAll.
	Hits []Hit
	// Checked counts candidates fully resolved before the run ended.
	Checked int
	Total   int
	// Demoted counts candidates whose absence is best-effort only.
	Demoted int
	RunID   uuid.UUID
}

// Run resolves the candidates in the given dispatch-priority order.
//
// Acceptance under FirstMatch is by candidate priority, not completion
// order: a hit is only committed once every strictly higher-priority
// candidate has resolved as a miss, so results are reproducible regardless
// of network timing. Cancelling ctx aborts the run; an aborted run is
// reported distinctly from an exhausted one.
func Run(ctx context.Context, order []int64, verify VerifyFunc, opts Options) Result {
	total := len(order)
	runID := uuid.New()

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("run_id", runID.String())

	if total == 0 {
		return Result{State: domain.StateExhausted, RunID: runID}
	}

	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > total {
		concurrency = total
	}

	logger.Debug("search starting", "candidates", total, "workers", concurrency)

	s := &runState{
		order:    order,
		verify:   verify,
		opts:     opts,
		logger:   logger,
		resolved: make([]*Verdict, total),
		bestHit:  -1,
		winner:   -1,
	}

	searchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.cancel = cancel

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.work(searchCtx)
		}()
	}
	wg.Wait()

	return s.result(ctx, runID)
}

type runState struct {
	order  []int64
	verify VerifyFunc
	opts   Options
	logger *slog.Logger
	cancel context.CancelFunc

	next atomic.Int64

	mu       sync.Mutex
	resolved []*Verdict
	frontier int // lowest unresolved priority index
	checked  int
	demoted  int
	bestHit  int // lowest priority index with a hit, -1 if none
	winner   int // committed winning index under FirstMatch, -1 if none
}

func (s *runState) work(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		i := int(s.next.Add(1) - 1)
		if i >= len(s.order) {
			return
		}

		// Candidates behind an already-confirmed hit cannot win under
		// FirstMatch; skip dispatching them.
		if s.opts.Policy == FirstMatch {
			s.mu.Lock()
			skip := s.bestHit >= 0 && i > s.bestHit
			s.mu.Unlock()
			if skip {
				continue
			}
		}

		if s.opts.Limit != nil {
			if err := s.opts.Limit.Wait(ctx); err != nil {
				return
			}
		}

		verdict := s.verify(ctx, s.order[i])
		if ctx.Err() != nil && len(verdict.Hits) == 0 {
			// A drained in-flight worker after cancellation; its miss is
			// not trustworthy, so it is not recorded.
			return
		}
		s.complete(i, verdict)
	}
}

// complete records a verdict and advances the priority frontier. The
// frontier only moves over resolved candidates; under FirstMatch it stops
// at the first resolved hit, which at that point is the deterministic
// winner because everything ahead of it resolved as a miss.
func (s *runState) complete(i int, v Verdict) {
	s.mu.Lock()
	if s.resolved[i] != nil || s.winner >= 0 {
		s.mu.Unlock()
		return
	}
	s.resolved[i] = &v
	s.checked++
	if v.Demoted {
		s.demoted++
	}
	if len(v.Hits) > 0 && (s.bestHit < 0 || i < s.bestHit) {
		s.bestHit = i
	}

	stopAtHit := s.opts.Policy == FirstMatch
	for s.frontier < len(s.order) && s.resolved[s.frontier] != nil {
		if stopAtHit && len(s.resolved[s.frontier].Hits) > 0 {
			break
		}
		s.frontier++
	}

	decided := stopAtHit &&
		s.frontier < len(s.order) &&
		s.resolved[s.frontier] != nil &&
		len(s.resolved[s.frontier].Hits) > 0
	if decided {
		s.winner = s.frontier
	}

	progress := Progress{Done: s.checked, Total: len(s.order)}
	onProgress := s.opts.OnProgress
	if onProgress != nil {
		// Invoked under the lock so observers see a strictly monotonic
		// sequence.
		onProgress(progress)
	}
	s.mu.Unlock()

	if decided {
		s.logger.Debug("candidate confirmed", "value", s.order[i], "priority", i)
		s.cancel()
	}
}

func (s *runState) result(ctx context.Context, runID uuid.UUID) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := Result{
		Checked: s.checked,
		Total:   len(s.order),
		Demoted: s.demoted,
		RunID:   runID,
	}

	switch {
	case s.winner >= 0:
		res.State = domain.StateFound
		res.Hits = append(res.Hits, s.resolved[s.winner].Hits...)

	case ctx.Err() != nil:
		res.State = domain.StateAborted
		if s.opts.Policy == CollectAll {
			res.Hits = s.collectHits()
		}

	case s.frontier == len(s.order):
		res.Hits = s.collectHits()
		if len(res.Hits) > 0 {
			res.State = domain.StateFound
		} else {
			res.State = domain.StateExhausted
		}

	default:
		res.State = domain.StateAborted
	}

	s.logger.Debug("search finished",
		"state", string(res.State),
		"checked", res.Checked,
		"total", res.Total,
		"demoted", res.Demoted,
	)
	return res
}

// collectHits gathers every recorded hit in priority order.
func (s *runState) collectHits() []Hit {
	var hits []Hit
	for _, v := range s.resolved {
		if v == nil {
			continue
		}
		hits = append(hits, v.Hits...)
	}
	return hits
}
