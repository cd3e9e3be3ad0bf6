// Package session owns the mutable per-session client state: disclosure
// states and the editor liveness tracker live here, passed explicitly to
// whoever needs them instead of living in process-wide singletons.
package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/keydrop-app/keydrop/internal/backend"
	"github.com/keydrop-app/keydrop/internal/disclosure"
	"github.com/keydrop-app/keydrop/internal/editor"
)

// Session scopes the transient client state to one run of the UI. Locking
// or tearing the session down resets every disclosure state and stops any
// background polling.
type Session struct {
	Disclosure *disclosure.Manager
	Editor     *editor.Tracker

	mu      sync.Mutex
	cancels []context.CancelFunc
}

// New builds a session around the decrypt capability and editor prober.
// prober may be nil; the tracker then answers Unknown for every path.
func New(decrypter backend.Decrypter, prober editor.Prober, logger *zap.Logger, trackerOpts ...editor.Option) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	if prober == nil {
		prober = editor.ProberFunc(func(context.Context, string) (editor.Status, error) {
			return editor.StatusUnknown, nil
		})
	}
	opts := append([]editor.Option{editor.WithLogger(logger)}, trackerOpts...)
	return &Session{
		Disclosure: disclosure.NewManager(decrypter, logger),
		Editor:     editor.NewTracker(prober, opts...),
	}
}

// WatchProject starts background liveness polling for a project path. The
// loop stops when the session locks.
func (s *Session) WatchProject(ctx context.Context, projectPath string) {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancels = append(s.cancels, cancel)
	s.mu.Unlock()

	go s.Editor.Poll(ctx, projectPath, 0)
}

// Lock resets disclosure state, discards plaintext and stops polling.
// Safe to call more than once.
func (s *Session) Lock() {
	s.mu.Lock()
	cancels := s.cancels
	s.cancels = nil
	s.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	s.Disclosure.Reset()
}
