package services

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

const (
	DefaultSearchQuietPeriod = 500 * time.Millisecond
	DefaultSearchMinLength   = 3
)

type FoodSearcher interface {
	Search(ctx context.Context, query string) []FoodResult
}

// SearchUpdate is delivered once per query that survived the debounce and
// was still the latest one when its results arrived.
type SearchUpdate struct {
	Seq     uint64       `json:"seq"`
	Query   string       `json:"query"`
	Results []FoodResult `json:"results"`
}

type SearchSessionOptions struct {
	QuietPeriod time.Duration
	MinLength   int
}

// SearchSession debounces search-as-you-type input. Every Submit bumps a
// sequence number; a search starts only after QuietPeriod without further
// input, and its results are dropped if another Submit happened while it
// was in flight. Running searches are not aborted.
type SearchSession struct {
	searcher FoodSearcher
	deliver  func(SearchUpdate)
	quiet    time.Duration
	minLen   int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// deliverMu serializes deliveries; it is never held together with mu
	// while deliver runs.
	deliverMu sync.Mutex

	mu     sync.Mutex
	seq    uint64
	timer  *time.Timer
	closed bool
}

func NewSearchSession(ctx context.Context, searcher FoodSearcher, deliver func(SearchUpdate), opts SearchSessionOptions) *SearchSession {
	if opts.QuietPeriod <= 0 {
		opts.QuietPeriod = DefaultSearchQuietPeriod
	}
	if opts.MinLength <= 0 {
		opts.MinLength = DefaultSearchMinLength
	}
	ctx, cancel := context.WithCancel(ctx)
	return &SearchSession{
		searcher: searcher,
		deliver:  deliver,
		quiet:    opts.QuietPeriod,
		minLen:   opts.MinLength,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Submit records new input and returns its sequence number. Input shorter
// than the minimum length only cancels what is pending.
func (s *SearchSession) Submit(query string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.seq
	}

	s.seq++
	seq := s.seq
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}

	q := strings.TrimSpace(query)
	if utf8.RuneCountInString(q) < s.minLen {
		return seq
	}
	s.timer = time.AfterFunc(s.quiet, func() { s.run(seq, q) })
	return seq
}

func (s *SearchSession) run(seq uint64, query string) {
	s.mu.Lock()
	if s.closed || seq != s.seq {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	results := s.searcher.Search(s.ctx, query)

	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()
	if !s.current(seq) {
		return
	}
	s.deliver(SearchUpdate{Seq: seq, Query: query, Results: results})
}

func (s *SearchSession) current(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && seq == s.seq
}

// Close stops the pending timer, cancels running searches and waits for
// them to return. Nothing is delivered once Close returns.
func (s *SearchSession) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}
