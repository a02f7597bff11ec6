package conversation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, 0).WithClock(fixedNow), mr
}

func TestRedisStoreFindOrCreate(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	first, err := store.FindOrCreate(ctx, "sess-1", Context{UserID: "user-1", Source: "chat"})
	if err != nil {
		t.Fatalf("FindOrCreate() error = %v", err)
	}
	if first.State.Status != StatusIdle {
		t.Errorf("new session status = %s", first.State.Status)
	}
	if ttl := mr.TTL("session:sess-1"); ttl <= 0 {
		t.Errorf("session key has no expiry, ttl = %v", ttl)
	}

	again, err := store.FindOrCreate(ctx, "sess-1", Context{UserID: "someone-else"})
	if err != nil {
		t.Fatalf("FindOrCreate() second call error = %v", err)
	}
	if again.Context.UserID != "user-1" {
		t.Errorf("existing session context replaced: %+v", again.Context)
	}
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	if _, err := store.FindOrCreate(ctx, "sess-1", Context{}); err != nil {
		t.Fatalf("FindOrCreate() error = %v", err)
	}
	if err := store.AppendMessage(ctx, "sess-1", RoleUser, "book me in"); err != nil {
		t.Fatalf("AppendMessage() error = %v", err)
	}
	want := BookingState{Status: StatusCollectingPhone, Temp: TempData{OwnerName: "Jane", PetName: "Rex"}}
	if err := store.SetState(ctx, "sess-1", want); err != nil {
		t.Fatalf("SetState() error = %v", err)
	}

	state, err := store.GetState(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if state != want {
		t.Errorf("state = %+v, want %+v", state, want)
	}

	sess, err := store.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(sess.Messages) != 1 || sess.Messages[0].Content != "book me in" {
		t.Errorf("messages = %+v", sess.Messages)
	}
	if !sess.UpdatedAt.Equal(testNow) {
		t.Errorf("updated at = %v", sess.UpdatedAt)
	}
}

func TestRedisStoreMissingSession(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	if _, err := store.Get(ctx, "nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get() error = %v, want ErrSessionNotFound", err)
	}
	err := store.UpdateSession(ctx, "nope", func(*Session) error { return nil })
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("UpdateSession() error = %v, want ErrSessionNotFound", err)
	}
}

func TestRedisStoreConcurrentAppends(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	if _, err := store.FindOrCreate(ctx, "sess-1", Context{}); err != nil {
		t.Fatalf("FindOrCreate() error = %v", err)
	}

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- store.AppendMessage(ctx, "sess-1", RoleUser, fmt.Sprintf("message %d", i))
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("AppendMessage() error = %v", err)
		}
	}

	sess, err := store.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(sess.Messages) != writers {
		t.Errorf("message count = %d, want %d; a concurrent write was lost", len(sess.Messages), writers)
	}
}

func TestRedisStoreUpdateAbandonedOnError(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	if _, err := store.FindOrCreate(ctx, "sess-1", Context{}); err != nil {
		t.Fatalf("FindOrCreate() error = %v", err)
	}
	boom := errors.New("boom")
	err := store.UpdateSession(ctx, "sess-1", func(sess *Session) error {
		sess.Append(RoleUser, "should not stick", testNow)
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("UpdateSession() error = %v, want boom", err)
	}

	sess, err := store.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(sess.Messages) != 0 {
		t.Errorf("failed update persisted %d messages", len(sess.Messages))
	}
}
