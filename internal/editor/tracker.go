// Package editor tracks whether an external editor currently has a given
// project open. The signal is advisory: it annotates imported records and
// must never block or fail ingestion or disclosure.
package editor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Status is the tri-state editor connection signal for a project path.
type Status string

const (
	StatusOpen    Status = "open"
	StatusClosed  Status = "closed"
	StatusUnknown Status = "unknown"
)

// DefaultFreshness is how long a probed status stays valid before the next
// Status call issues a new probe.
const DefaultFreshness = 5 * time.Second

// Prober issues a single liveness probe against the editor-integration
// service. Implementations must honor ctx cancellation.
type Prober interface {
	Probe(ctx context.Context, projectPath string) (Status, error)
}

// ProberFunc adapts a function to the Prober interface.
type ProberFunc func(ctx context.Context, projectPath string) (Status, error)

func (f ProberFunc) Probe(ctx context.Context, projectPath string) (Status, error) {
	return f(ctx, projectPath)
}

type cacheEntry struct {
	status    Status
	checkedAt time.Time
}

// inflight is one in-progress probe that concurrent callers for the same
// path wait on instead of issuing duplicates.
type inflight struct {
	done   chan struct{}
	status Status
}

// Tracker caches editor liveness per project path. Concurrent Status calls
// for the same path within the freshness window coalesce onto a single
// probe; cache writes are atomic last-write-wins on (status, checkedAt).
type Tracker struct {
	prober    Prober
	freshness time.Duration
	logger    *zap.Logger

	mu       sync.Mutex
	cache    map[string]cacheEntry
	inflight map[string]*inflight

	now func() time.Time // test hook
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithFreshness overrides the freshness window.
func WithFreshness(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.freshness = d
		}
	}
}

// WithLogger attaches a logger. The default is a nop logger.
func WithLogger(l *zap.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

// NewTracker creates a tracker over the given prober.
func NewTracker(prober Prober, opts ...Option) *Tracker {
	t := &Tracker{
		prober:    prober,
		freshness: DefaultFreshness,
		logger:    zap.NewNop(),
		cache:     make(map[string]cacheEntry),
		inflight:  make(map[string]*inflight),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Status answers "is the editor open on projectPath" from cache when fresh,
// probing otherwise. Any probe failure resolves to StatusUnknown; the
// failure is logged, never returned, so callers degrade gracefully.
func (t *Tracker) Status(ctx context.Context, projectPath string) Status {
	t.mu.Lock()

	if entry, ok := t.cache[projectPath]; ok && t.now().Sub(entry.checkedAt) < t.freshness {
		t.mu.Unlock()
		return entry.status
	}

	if call, ok := t.inflight[projectPath]; ok {
		// Someone is already probing this path; wait for their result.
		t.mu.Unlock()
		select {
		case <-call.done:
			return call.status
		case <-ctx.Done():
			return StatusUnknown
		}
	}

	call := &inflight{done: make(chan struct{})}
	t.inflight[projectPath] = call
	t.mu.Unlock()

	status := t.probe(ctx, projectPath)

	t.mu.Lock()
	t.cache[projectPath] = cacheEntry{status: status, checkedAt: t.now()}
	delete(t.inflight, projectPath)
	t.mu.Unlock()

	call.status = status
	close(call.done)
	return status
}

func (t *Tracker) probe(ctx context.Context, projectPath string) Status {
	status, err := t.prober.Probe(ctx, projectPath)
	if err != nil {
		t.logger.Debug("editor probe failed",
			zap.String("project_path", projectPath),
			zap.Error(err))
		return StatusUnknown
	}
	switch status {
	case StatusOpen, StatusClosed, StatusUnknown:
		return status
	default:
		return StatusUnknown
	}
}

// Poll refreshes the status for projectPath every interval until ctx is
// cancelled. The ticker is released on return, so callers stop the loop by
// cancelling the context (view teardown must not leak timers).
func (t *Tracker) Poll(ctx context.Context, projectPath string, interval time.Duration) {
	if interval <= 0 {
		interval = t.freshness
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.refresh(ctx, projectPath)
		}
	}
}

// refresh bypasses the freshness check so the polling loop always updates
// the cache, keeping staleness bounded by the interval.
func (t *Tracker) refresh(ctx context.Context, projectPath string) {
	status := t.probe(ctx, projectPath)

	t.mu.Lock()
	t.cache[projectPath] = cacheEntry{status: status, checkedAt: t.now()}
	t.mu.Unlock()
}
