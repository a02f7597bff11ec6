package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// sessionTTL is how long an untouched session survives. Every write slides
// the window.
const sessionTTL = 24 * time.Hour

// maxUpdateRetries bounds the optimistic-lock loop in UpdateSession. Turns
// for one session are near-serial, so a failed EXEC is contention noise, not
// the steady state.
const maxUpdateRetries = 32

func sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

// RedisStore keeps live sessions in Redis, one JSON document per session.
type RedisStore struct {
	redis  *redis.Client
	tracer trace.Tracer
	ttl    time.Duration
	now    func() time.Time
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a session store over the given client. A zero ttl
// means the 24 hour default.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if client == nil {
		panic("conversation: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = sessionTTL
	}
	return &RedisStore{
		redis:  client,
		tracer: otel.Tracer("pawbook.internal.conversation.sessions"),
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock overrides the timestamp source.
func (s *RedisStore) WithClock(now func() time.Time) *RedisStore {
	s.now = now
	return s
}

func (s *RedisStore) FindOrCreate(ctx context.Context, sessionID string, callerCtx Context) (*Session, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.find_or_create_session")
	defer span.End()

	fresh := NewSession(sessionID, callerCtx, s.now().UTC())
	data, err := json.Marshal(fresh)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: failed to marshal session: %w", err)
	}

	// SET NX keeps the first writer's document; every concurrent creator
	// reads that same session back.
	if err := s.redis.SetNX(ctx, sessionKey(sessionID), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: failed to create session %s: %w", sessionID, err)
	}
	return s.Get(ctx, sessionID)
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.load_session")
	defer span.End()

	data, err := s.redis.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: failed to load session %s: %w", sessionID, err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: failed to decode session %s: %w", sessionID, err)
	}
	return &sess, nil
}

func (s *RedisStore) AppendMessage(ctx context.Context, sessionID string, role Role, content string) error {
	return s.UpdateSession(ctx, sessionID, func(sess *Session) error {
		sess.Append(role, content, s.now().UTC())
		return nil
	})
}

func (s *RedisStore) GetState(ctx context.Context, sessionID string) (BookingState, error) {
	sess, err := s.Get(ctx, sessionID)
	if err != nil {
		return BookingState{}, err
	}
	return sess.State, nil
}

func (s *RedisStore) SetState(ctx context.Context, sessionID string, state BookingState) error {
	return s.UpdateSession(ctx, sessionID, func(sess *Session) error {
		sess.State = state
		return nil
	})
}

// UpdateSession reads, mutates and writes one session under WATCH. A racing
// writer fails the EXEC and the whole read-modify-write runs again against
// the fresh document.
func (s *RedisStore) UpdateSession(ctx context.Context, sessionID string, fn func(*Session) error) error {
	ctx, span := s.tracer.Start(ctx, "conversation.update_session")
	defer span.End()

	key := sessionKey(sessionID)
	apply := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrSessionNotFound
			}
			return fmt.Errorf("conversation: failed to load session %s: %w", sessionID, err)
		}

		var sess Session
		if err := json.Unmarshal(data, &sess); err != nil {
			return fmt.Errorf("conversation: failed to decode session %s: %w", sessionID, err)
		}
		if err := fn(&sess); err != nil {
			return err
		}
		sess.UpdatedAt = s.now().UTC()

		out, err := json.Marshal(&sess)
		if err != nil {
			return fmt.Errorf("conversation: failed to marshal session %s: %w", sessionID, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, s.ttl)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		err := s.redis.Watch(ctx, apply, key)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		span.RecordError(err)
		return err
	}

	err := fmt.Errorf("conversation: session %s update kept colliding: %w", sessionID, redis.TxFailedErr)
	span.RecordError(err)
	return err
}
