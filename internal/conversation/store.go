package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/wolfman30/smartbot-platform/pkg/logging"
)

// Store keeps one conversation state per sender.
//
// Implementations are safe for concurrent use, but concurrent patches to the
// same sender are unordered: the last write wins. Callers that need ordering
// serialize per sender themselves, as Processor does.
type Store interface {
	// Get returns the sender's state, or State{Sender: sender} when absent.
	Get(ctx context.Context, sender string) (State, error)
	// Patch merges p into the sender's state, creating it when absent.
	Patch(ctx context.Context, sender string, p Patch) (State, error)
	// Clear removes the sender's state.
	Clear(ctx context.Context, sender string) error
}

// MemoryStore is a process-lifetime Store backed by a map.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]State
	ttl    time.Duration
	now    func() time.Time
	logger *logging.Logger
}

// MemoryStoreOption customizes a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithStateTTL expires states not written for ttl. Zero disables expiry.
func WithStateTTL(ttl time.Duration) MemoryStoreOption {
	return func(s *MemoryStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithMemoryStoreClock overrides the clock used for UpdatedAt and expiry.
func WithMemoryStoreClock(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMemoryStoreLogger sets the logger used by the janitor.
func WithMemoryStoreLogger(logger *logging.Logger) MemoryStoreOption {
	return func(s *MemoryStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		states: make(map[string]State),
		now:    time.Now,
		logger: logging.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Get(_ context.Context, sender string) (State, error) {
	s.mu.RLock()
	st, ok := s.states[sender]
	s.mu.RUnlock()
	if !ok || s.expired(st, s.now()) {
		return State{Sender: sender}, nil
	}
	return st, nil
}

func (s *MemoryStore) Patch(_ context.Context, sender string, p Patch) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	st, ok := s.states[sender]
	if !ok || s.expired(st, now) {
		st = State{Sender: sender}
	}
	st = ApplyPatch(st, p, now)
	s.states[sender] = st
	return st, nil
}

func (s *MemoryStore) Clear(_ context.Context, sender string) error {
	s.mu.Lock()
	delete(s.states, sender)
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored states, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}

// Sweep removes expired states and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for sender, st := range s.states {
		if s.expired(st, now) {
			delete(s.states, sender)
			removed++
		}
	}
	return removed
}

// StartJanitor sweeps expired states every interval until ctx is done.
// It is a no-op when expiry is disabled.
func (s *MemoryStore) StartJanitor(ctx context.Context, interval time.Duration) {
	if s.ttl <= 0 || interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.Sweep(); n > 0 {
					s.logger.Debug("expired conversation states swept", "removed", n)
				}
			}
		}
	}()
}

func (s *MemoryStore) expired(st State, now time.Time) bool {
	return s.ttl > 0 && !st.UpdatedAt.IsZero() && now.Sub(st.UpdatedAt) > s.ttl
}
