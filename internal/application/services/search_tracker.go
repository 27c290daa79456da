package services

import (
	"context"
	"sync"
	"time"

	"github.com/healthconnect/backend/internal/domain/entities"
	apperrors "github.com/healthconnect/backend/pkg/errors"
)

// ErrStaleSearch is returned when a newer search for the same session started
// before this one completed. The stale results are dropped.
var ErrStaleSearch = apperrors.NewConflictError("search was superseded by a newer search")

const defaultSessionIdleTTL = 30 * time.Minute

// SearchTracker serializes the visible outcome of overlapping searches per
// client session. Starting a search cancels the previous in-flight search of
// that session, and only the latest generation may publish results.
type SearchTracker struct {
	mu       sync.Mutex
	sessions map[string]*searchSession
	idleTTL  time.Duration
	now      func() time.Time
}

type searchSession struct {
	generation uint64
	cancel     context.CancelFunc
	latest     *entities.SearchResult
	touchedAt  time.Time
}

// NewSearchTracker creates a tracker that forgets sessions idle for longer than idleTTL.
func NewSearchTracker(idleTTL time.Duration) *SearchTracker {
	if idleTTL <= 0 {
		idleTTL = defaultSessionIdleTTL
	}
	return &SearchTracker{
		sessions: make(map[string]*searchSession),
		idleTTL:  idleTTL,
		now:      time.Now,
	}
}

// Run executes search under a new generation for sessionID and publishes its
// result. It returns ErrStaleSearch when a newer search started meanwhile.
func (t *SearchTracker) Run(ctx context.Context, sessionID string, search func(ctx context.Context) (*entities.SearchResult, error)) (*entities.SearchResult, error) {
	searchCtx, generation, done := t.begin(ctx, sessionID)
	defer done()

	result, err := search(searchCtx)
	if err != nil {
		if !t.isCurrent(sessionID, generation) {
			return nil, ErrStaleSearch
		}
		return nil, err
	}

	if err := t.publish(sessionID, generation, result); err != nil {
		return nil, err
	}
	return result, nil
}

// Latest returns the most recently published result for sessionID.
func (t *SearchTracker) Latest(sessionID string) (*entities.SearchResult, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[sessionID]
	if !ok || s.latest == nil {
		return nil, false
	}
	return s.latest, true
}

// Len reports how many sessions the tracker currently holds.
func (t *SearchTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

func (t *SearchTracker) begin(ctx context.Context, sessionID string) (context.Context, uint64, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.evictIdle(now)

	s, ok := t.sessions[sessionID]
	if !ok {
		s = &searchSession{}
		t.sessions[sessionID] = s
	}
	if s.cancel != nil {
		s.cancel()
	}

	searchCtx, cancel := context.WithCancel(ctx)
	s.generation++
	s.cancel = cancel
	s.touchedAt = now
	generation := s.generation

	done := func() {
		cancel()
		t.mu.Lock()
		defer t.mu.Unlock()
		if cur, ok := t.sessions[sessionID]; ok && cur.generation == generation {
			cur.cancel = nil
		}
	}
	return searchCtx, generation, done
}

func (t *SearchTracker) publish(sessionID string, generation uint64, result *entities.SearchResult) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[sessionID]
	if !ok || s.generation != generation {
		return ErrStaleSearch
	}
	result.Generation = generation
	s.latest = result
	s.touchedAt = t.now()
	return nil
}

func (t *SearchTracker) isCurrent(sessionID string, generation uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[sessionID]
	return ok && s.generation == generation
}

// evictIdle must be called with t.mu held.
func (t *SearchTracker) evictIdle(now time.Time) {
	for id, s := range t.sessions {
		if s.cancel == nil && now.Sub(s.touchedAt) > t.idleTTL {
			delete(t.sessions, id)
		}
	}
}
