// Package scheduler runs many chain sessions concurrently under a
// bounded worker pool, adapted from the source's per-host
// SiteContextManager: the same shape (a mutex-guarded map, a
// background cleanup ticker, an eviction policy for the oldest
// finished entry once a ceiling is hit) now tracks session handles
// instead of per-host scraping contexts. Concurrency itself is capped
// with errgroup's SetLimit rather than a hand-rolled semaphore, since
// golang.org/x/sync is already part of the dependency stack.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// State is a session handle's lifecycle stage.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Handle tracks one session's run within the pool.
type Handle struct {
	ID          string
	State       State
	Err         error
	SubmittedAt time.Time
	FinishedAt  time.Time
	cancel      context.CancelFunc
}

// Pool bounds concurrent chain sessions to a fixed worker count and
// retains a bounded history of finished handles for status queries.
type Pool struct {
	mu       sync.RWMutex
	sessions map[string]*Handle
	g        *errgroup.Group
	maxIdle  int
	logger   *zap.Logger

	cleanupTicker *time.Ticker
	stopChan      chan struct{}
}

// Options configures a Pool.
type Options struct {
	// Concurrency is the maximum number of sessions run at once.
	Concurrency int
	// MaxHandles bounds how many finished handles are retained before
	// the oldest is evicted, mirroring the source's MaxContexts cap.
	MaxHandles int
	// CleanupInterval runs periodic eviction of finished handles older
	// than CleanupInterval itself. Zero disables the background sweep.
	CleanupInterval time.Duration
	Logger          *zap.Logger
}

// DefaultOptions returns sane pool defaults.
func DefaultOptions() Options {
	return Options{Concurrency: 4, MaxHandles: 200, CleanupInterval: 15 * time.Minute}
}

// New builds a Pool. Call Stop when the pool is no longer needed to
// halt its background cleanup goroutine.
func New(opts Options) *Pool {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultOptions().Concurrency
	}
	if opts.MaxHandles <= 0 {
		opts.MaxHandles = DefaultOptions().MaxHandles
	}

	g := &errgroup.Group{}
	g.SetLimit(opts.Concurrency)

	p := &Pool{
		sessions: make(map[string]*Handle),
		g:        g,
		maxIdle:  opts.MaxHandles,
		logger:   opts.Logger,
		stopChan: make(chan struct{}),
	}

	if opts.CleanupInterval > 0 {
		p.startCleanup(opts.CleanupInterval)
	}

	return p
}

// Submit schedules a session to run as soon as a worker slot is free.
// fn receives a context cancelled if Cancel(sessionID) is called or the
// pool's Stop runs. Submit itself does not block on pool capacity;
// g.Go queues the goroutine and errgroup's SetLimit gates actual
// execution starts, matching "bounded worker pool" rather than
// bounded acceptance.
func (p *Pool) Submit(sessionID string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithCancel(context.Background())

	p.mu.Lock()
	if len(p.sessions) >= p.maxIdle {
		p.evictOldestFinishedLocked()
	}
	p.sessions[sessionID] = &Handle{ID: sessionID, State: StatePending, SubmittedAt: time.Now(), cancel: cancel}
	p.mu.Unlock()

	p.g.Go(func() error {
		p.setState(sessionID, StateRunning)
		err := fn(ctx)
		p.finish(sessionID, err)
		return err
	})
}

// Cancel requests cooperative cancellation of a submitted session.
// Returns false if no such session is tracked.
func (p *Pool) Cancel(sessionID string) bool {
	p.mu.RLock()
	h, ok := p.sessions[sessionID]
	p.mu.RUnlock()
	if !ok {
		return false
	}
	h.cancel()
	return true
}

// Status returns a snapshot of a session's handle.
func (p *Pool) Status(sessionID string) (Handle, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	h, ok := p.sessions[sessionID]
	if !ok {
		return Handle{}, false
	}
	return *h, true
}

// Wait blocks until every submitted session has finished, returning
// the first non-nil error encountered (if any) — mirroring
// errgroup.Group.Wait's contract.
func (p *Pool) Wait() error {
	return p.g.Wait()
}

// Stop halts the background cleanup goroutine. It does not cancel
// in-flight sessions; call Cancel per-session first if that's needed.
func (p *Pool) Stop() {
	if p.cleanupTicker == nil {
		return
	}
	close(p.stopChan)
	p.cleanupTicker.Stop()
	p.cleanupTicker = nil
}

func (p *Pool) setState(sessionID string, state State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if h, ok := p.sessions[sessionID]; ok {
		h.State = state
	}
}

func (p *Pool) finish(sessionID string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	h, ok := p.sessions[sessionID]
	if !ok {
		return
	}
	h.FinishedAt = time.Now()
	h.Err = err
	if err != nil {
		h.State = StateFailed
	} else {
		h.State = StateCompleted
	}
}

// evictOldestFinishedLocked drops the oldest completed-or-failed
// handle to make room, mirroring the source's evictOldestContext. It
// never evicts a pending or running handle.
func (p *Pool) evictOldestFinishedLocked() {
	var oldestID string
	var oldestAt time.Time

	for id, h := range p.sessions {
		if h.State != StateCompleted && h.State != StateFailed {
			continue
		}
		if oldestID == "" || h.FinishedAt.Before(oldestAt) {
			oldestID = id
			oldestAt = h.FinishedAt
		}
	}

	if oldestID != "" {
		delete(p.sessions, oldestID)
	}
}

func (p *Pool) startCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	p.cleanupTicker = ticker
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.sweepFinishedOlderThan(interval)
			case <-p.stopChan:
				return
			}
		}
	}()
}

func (p *Pool) sweepFinishedOlderThan(age time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cutoff := time.Now().Add(-age)
	for id, h := range p.sessions {
		if (h.State == StateCompleted || h.State == StateFailed) && h.FinishedAt.Before(cutoff) {
			delete(p.sessions, id)
			if p.logger != nil {
				p.logger.Debug("scheduler: evicted stale session handle", zap.String("session_id", id))
			}
		}
	}
}
