// Package disclosure governs when a stored secret's plaintext may be shown.
//
// Every record starts Masked. Records whose plaintext is already in memory
// can toggle Masked<->Visible without touching the backend; records holding
// the encrypted sentinel must go through an explicit decrypt request gated
// by the master password. Decrypted plaintext lives only in this package's
// transient per-record state and is wiped on remask, reset, or lock.
package disclosure

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/keydrop-app/keydrop/internal/backend"
)

// State is the per-record disclosure state.
type State int

const (
	StateMasked State = iota
	StateVisible
	StateDecrypting
	StateDecrypted
	StateDecryptFailed
)

// String returns the state name for logs and error messages.
func (s State) String() string {
	switch s {
	case StateMasked:
		return "masked"
	case StateVisible:
		return "visible"
	case StateDecrypting:
		return "decrypting"
	case StateDecrypted:
		return "decrypted"
	case StateDecryptFailed:
		return "decrypt_failed"
	default:
		return "unknown"
	}
}

// Errors returned by disclosure transitions.
var (
	ErrEncryptedRecord   = errors.New("disclosure: record is encrypted, visibility cannot be toggled")
	ErrNotEncrypted      = errors.New("disclosure: record is not encrypted, nothing to decrypt")
	ErrDecryptInFlight   = errors.New("disclosure: decrypt already in progress")
	ErrInvalidTransition = errors.New("disclosure: invalid state transition")
)

type recordState struct {
	state     State
	plaintext string
	reason    string

	// generation invalidates in-flight decrypt results: a response whose
	// generation no longer matches (cancelled request, session reset) is
	// discarded without transitioning the machine.
	generation uint64
}

// Manager owns the disclosure state for one client session, keyed by record
// ID. It is safe for concurrent use. Nothing here is ever persisted.
type Manager struct {
	decrypter backend.Decrypter
	logger    *zap.Logger

	mu      sync.Mutex
	records map[string]*recordState
}

// NewManager creates a session-scoped disclosure manager.
func NewManager(decrypter backend.Decrypter, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		decrypter: decrypter,
		logger:    logger,
		records:   make(map[string]*recordState),
	}
}

// State returns the current state for a record. Unseen records are Masked.
func (m *Manager) State(recordID string) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rs, ok := m.records[recordID]; ok {
		return rs.state
	}
	return StateMasked
}

// FailureReason returns the reason recorded by the last failed decrypt.
func (m *Manager) FailureReason(recordID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rs, ok := m.records[recordID]
	if !ok || rs.state != StateDecryptFailed {
		return "", false
	}
	return rs.reason, true
}

// ToggleVisible flips masking for a record whose plaintext is already
// available in memory. It never triggers backend calls and is only valid
// from Masked or Visible.
func (m *Manager) ToggleVisible(record *backend.KeyRecord) (State, error) {
	if record.Encrypted() {
		return StateMasked, ErrEncryptedRecord
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rs := m.get(record.ID)
	switch rs.state {
	case StateMasked:
		rs.state = StateVisible
	case StateVisible:
		rs.state = StateMasked
	default:
		return rs.state, fmt.Errorf("%w: toggle from %s", ErrInvalidTransition, rs.state)
	}
	return rs.state, nil
}

// RequestDecrypt runs the decrypt flow for an encrypted record:
// Masked|DecryptFailed -> Decrypting -> Decrypted | DecryptFailed.
//
// A second attempt with a corrected password is always allowed from
// DecryptFailed. If ctx is cancelled while the backend call is in flight,
// a late result is discarded and the machine returns to its prior state.
func (m *Manager) RequestDecrypt(ctx context.Context, record *backend.KeyRecord, masterPassword string) (string, error) {
	if !record.Encrypted() {
		return "", ErrNotEncrypted
	}

	m.mu.Lock()
	rs := m.get(record.ID)
	prior := rs.state
	priorReason := rs.reason
	switch prior {
	case StateMasked, StateDecryptFailed:
	case StateDecrypting:
		m.mu.Unlock()
		return "", ErrDecryptInFlight
	default:
		m.mu.Unlock()
		return "", fmt.Errorf("%w: decrypt from %s", ErrInvalidTransition, prior)
	}
	rs.state = StateDecrypting
	rs.reason = ""
	rs.generation++
	generation := rs.generation
	m.mu.Unlock()

	plaintext, err := m.decrypter.Decrypt(ctx, record.ID, masterPassword)

	m.mu.Lock()
	defer m.mu.Unlock()

	rs, ok := m.records[record.ID]
	if !ok || rs.generation != generation {
		// Session was reset while we were waiting; the result is stale.
		return "", context.Canceled
	}

	if ctx.Err() != nil {
		// Cancelled mid-flight: discard whatever arrived, even a success.
		// The pre-request state comes back whole, failure reason included.
		rs.state = prior
		rs.reason = priorReason
		m.logger.Debug("discarded decrypt result after cancellation",
			zap.String("record_id", record.ID))
		return "", ctx.Err()
	}

	if err != nil {
		rs.state = StateDecryptFailed
		rs.plaintext = ""
		if errors.Is(err, backend.ErrAuthenticationFailed) {
			rs.reason = "incorrect master password"
		} else {
			rs.reason = "decryption unavailable"
		}
		return "", fmt.Errorf("disclosure: decrypt failed: %w", err)
	}

	rs.state = StateDecrypted
	rs.plaintext = plaintext
	return plaintext, nil
}

// Plaintext returns the decrypted value, only while the record is in the
// Decrypted state.
func (m *Manager) Plaintext(recordID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rs, ok := m.records[recordID]
	if !ok || rs.state != StateDecrypted {
		return "", false
	}
	return rs.plaintext, true
}

// Remask returns a record to Masked, discarding any plaintext. Valid from
// Visible, Decrypted and DecryptFailed; a no-op from Masked.
func (m *Manager) Remask(recordID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rs, ok := m.records[recordID]
	if !ok {
		return nil
	}
	if rs.state == StateDecrypting {
		return fmt.Errorf("%w: remask from %s", ErrInvalidTransition, rs.state)
	}
	rs.state = StateMasked
	rs.plaintext = ""
	rs.reason = ""
	rs.generation++
	return nil
}

// Reset drops every record back to Masked and wipes all plaintext. Called on
// view teardown and vault lock.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, rs := range m.records {
		rs.plaintext = ""
		delete(m.records, id)
	}
}

// Display renders the record's value for the current disclosure state.
// Anything not Visible or Decrypted renders masked.
func (m *Manager) Display(record *backend.KeyRecord) string {
	m.mu.Lock()
	rs, ok := m.records[record.ID]
	m.mu.Unlock()

	if ok {
		switch rs.state {
		case StateVisible:
			return record.StoredValue
		case StateDecrypted:
			return rs.plaintext
		}
	}
	if record.Encrypted() {
		return Mask("")
	}
	return Mask(record.StoredValue)
}

// get returns the tracked state for a record, creating the Masked default.
// Caller must hold m.mu.
func (m *Manager) get(recordID string) *recordState {
	rs, ok := m.records[recordID]
	if !ok {
		rs = &recordState{state: StateMasked}
		m.records[recordID] = rs
	}
	return rs
}
