package session

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/keydrop-app/keydrop/internal/backend"
	"github.com/keydrop-app/keydrop/internal/disclosure"
	"github.com/keydrop-app/keydrop/internal/editor"
)

type staticDecrypter struct{}

func (staticDecrypter) Decrypt(context.Context, string, string) (string, error) {
	return "plaintext", nil
}

func TestLockResetsDisclosure(t *testing.T) {
	s := New(staticDecrypter{}, nil, nil)
	record := &backend.KeyRecord{
		ID:          "rec-1",
		StoredValue: backend.EncryptedSentinel,
	}

	if _, err := s.Disclosure.RequestDecrypt(context.Background(), record, "pw"); err != nil {
		t.Fatal(err)
	}
	if got := s.Disclosure.State(record.ID); got != disclosure.StateDecrypted {
		t.Fatalf("state = %s", got)
	}

	s.Lock()

	if got := s.Disclosure.State(record.ID); got != disclosure.StateMasked {
		t.Errorf("state after lock = %s, want masked", got)
	}
	if _, ok := s.Disclosure.Plaintext(record.ID); ok {
		t.Error("plaintext survived lock")
	}
}

func TestLockStopsPolling(t *testing.T) {
	var probes atomic.Int32
	prober := editor.ProberFunc(func(context.Context, string) (editor.Status, error) {
		probes.Add(1)
		return editor.StatusOpen, nil
	})
	s := New(staticDecrypter{}, prober, nil, editor.WithFreshness(time.Millisecond))

	s.WatchProject(context.Background(), "/work/shop")

	deadline := time.After(time.Second)
	for probes.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("polling never ran")
		case <-time.After(time.Millisecond):
		}
	}

	s.Lock()
	settled := probes.Load()
	time.Sleep(20 * time.Millisecond)
	// One in-flight tick may land after Lock; the loop must not keep going.
	if probes.Load() > settled+1 {
		t.Errorf("polling continued after lock: %d probes, was %d", probes.Load(), settled)
	}
}

func TestNilProberAnswersUnknown(t *testing.T) {
	s := New(staticDecrypter{}, nil, nil)

	if got := s.Editor.Status(context.Background(), "/p"); got != editor.StatusUnknown {
		t.Errorf("Status() = %s, want unknown", got)
	}
}
