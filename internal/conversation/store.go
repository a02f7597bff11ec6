package conversation

import "context"

// Store keeps live sessions. Implementations must make UpdateSession an
// atomic read-modify-write per session; the rest of the package builds every
// turn on that guarantee.
type Store interface {
	// FindOrCreate returns the session, creating an idle one on first use.
	// Creation is idempotent: concurrent calls for the same id all observe
	// the same session.
	FindOrCreate(ctx context.Context, sessionID string, callerCtx Context) (*Session, error)

	// Get returns the session or ErrSessionNotFound.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// AppendMessage adds one transcript entry.
	AppendMessage(ctx context.Context, sessionID string, role Role, content string) error

	// GetState returns the current dialogue state.
	GetState(ctx context.Context, sessionID string) (BookingState, error)

	// SetState replaces the dialogue state.
	SetState(ctx context.Context, sessionID string, state BookingState) error

	// UpdateSession applies fn to the stored session and persists the
	// result, retried against concurrent writers. fn returning an error
	// abandons the update.
	UpdateSession(ctx context.Context, sessionID string, fn func(*Session) error) error
}
