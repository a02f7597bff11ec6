package conversation

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore keeps sessions in a map for tests and local runs. The single
// mutex gives UpdateSession the same per-session atomicity as the Redis
// store.
type InMemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore creates an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// WithClock overrides the timestamp source.
func (s *InMemoryStore) WithClock(now func() time.Time) *InMemoryStore {
	s.now = now
	return s
}

func (s *InMemoryStore) FindOrCreate(_ context.Context, sessionID string, callerCtx Context) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[sessionID]; ok {
		return sess.Clone(), nil
	}
	sess := NewSession(sessionID, callerCtx, s.now().UTC())
	s.sessions[sessionID] = sess
	return sess.Clone(), nil
}

func (s *InMemoryStore) Get(_ context.Context, sessionID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess.Clone(), nil
}

func (s *InMemoryStore) AppendMessage(ctx context.Context, sessionID string, role Role, content string) error {
	return s.UpdateSession(ctx, sessionID, func(sess *Session) error {
		sess.Append(role, content, s.now().UTC())
		return nil
	})
}

func (s *InMemoryStore) GetState(ctx context.Context, sessionID string) (BookingState, error) {
	sess, err := s.Get(ctx, sessionID)
	if err != nil {
		return BookingState{}, err
	}
	return sess.State, nil
}

func (s *InMemoryStore) SetState(ctx context.Context, sessionID string, state BookingState) error {
	return s.UpdateSession(ctx, sessionID, func(sess *Session) error {
		sess.State = state
		return nil
	})
}

func (s *InMemoryStore) UpdateSession(_ context.Context, sessionID string, fn func(*Session) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	next := current.Clone()
	if err := fn(next); err != nil {
		return err
	}
	next.UpdatedAt = s.now().UTC()
	s.sessions[sessionID] = next
	return nil
}
