package conversation

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TranscriptArchive mirrors session transcripts into PostgreSQL so they
// outlive the Redis TTL. Writes are best effort: the caller logs failures
// and moves on, and a nil archive swallows every call.
type TranscriptArchive struct {
	db *sql.DB
}

// NewTranscriptArchive creates an archive over the given database. A nil db
// yields a nil archive, which is safe to call.
func NewTranscriptArchive(db *sql.DB) *TranscriptArchive {
	if db == nil {
		return nil
	}
	return &TranscriptArchive{db: db}
}

// ArchivedConversation is one row of the archive listing.
type ArchivedConversation struct {
	ID            uuid.UUID  `json:"id"`
	SessionID     string     `json:"session_id"`
	UserID        string     `json:"user_id,omitempty"`
	Source        string     `json:"source"`
	MessageCount  int        `json:"message_count"`
	UserMessages  int        `json:"user_message_count"`
	BotMessages   int        `json:"bot_message_count"`
	StartedAt     time.Time  `json:"started_at"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
}

// EnsureConversation creates the archive row for a session on first sight
// and returns its id. Existing rows just get their timestamp refreshed.
func (a *TranscriptArchive) EnsureConversation(ctx context.Context, sessionID string, callerCtx Context) (uuid.UUID, error) {
	if a == nil || a.db == nil {
		return uuid.Nil, nil
	}

	var existing uuid.UUID
	err := a.db.QueryRowContext(ctx,
		`SELECT id FROM conversations WHERE session_id = $1`,
		sessionID,
	).Scan(&existing)

	if err == nil {
		a.db.ExecContext(ctx,
			`UPDATE conversations SET updated_at = $1 WHERE id = $2`,
			time.Now().UTC(), existing,
		)
		return existing, nil
	}
	if err != sql.ErrNoRows {
		return uuid.Nil, fmt.Errorf("conversation: failed to check archive: %w", err)
	}

	source := callerCtx.Source
	if source == "" {
		source = "chat"
	}

	newID := uuid.New()
	now := time.Now().UTC()
	_, err = a.db.ExecContext(ctx, `
		INSERT INTO conversations (
			id, session_id, user_id, source,
			message_count, user_message_count, bot_message_count,
			started_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, newID, sessionID, callerCtx.UserID, source, 0, 0, 0, now, now, now)
	if err != nil {
		// A concurrent writer may have archived the session first.
		if strings.Contains(err.Error(), "duplicate key") {
			return a.EnsureConversation(ctx, sessionID, callerCtx)
		}
		return uuid.Nil, fmt.Errorf("conversation: failed to create archive row: %w", err)
	}
	return newID, nil
}

// AppendMessage archives one transcript entry and bumps the counters.
func (a *TranscriptArchive) AppendMessage(ctx context.Context, sessionID string, callerCtx Context, msg Message) error {
	if a == nil || a.db == nil {
		return nil
	}

	if _, err := a.EnsureConversation(ctx, sessionID, callerCtx); err != nil {
		return err
	}

	timestamp := msg.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	result, err := a.db.ExecContext(ctx, `
		INSERT INTO conversation_messages (
			id, session_id, role, content, created_at
		) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`, uuid.New(), sessionID, string(msg.Role), msg.Content, timestamp)
	if err != nil {
		return fmt.Errorf("conversation: failed to archive message: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("conversation: failed to read archive result: %w", err)
	}
	if rows == 0 {
		return nil
	}

	set := `message_count = message_count + 1`
	switch msg.Role {
	case RoleUser:
		set += `, user_message_count = user_message_count + 1`
	case RoleBot:
		set += `, bot_message_count = bot_message_count + 1`
	}
	_, err = a.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE conversations SET
			%s,
			last_message_at = $1,
			updated_at = $1
		WHERE session_id = $2
	`, set), timestamp, sessionID)
	if err != nil {
		return fmt.Errorf("conversation: failed to update archive counters: %w", err)
	}
	return nil
}

// RecentConversations lists the latest archived conversations, newest first.
func (a *TranscriptArchive) RecentConversations(ctx context.Context, limit int) ([]ArchivedConversation, error) {
	if a == nil || a.db == nil {
		return []ArchivedConversation{}, nil
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := a.db.QueryContext(ctx, `
		SELECT id, session_id, user_id, source,
		       message_count, user_message_count, bot_message_count,
		       started_at, last_message_at
		FROM conversations
		ORDER BY updated_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("conversation: failed to list archive: %w", err)
	}
	defer rows.Close()

	out := []ArchivedConversation{}
	for rows.Next() {
		var c ArchivedConversation
		var lastMessage sql.NullTime
		if err := rows.Scan(
			&c.ID, &c.SessionID, &c.UserID, &c.Source,
			&c.MessageCount, &c.UserMessages, &c.BotMessages,
			&c.StartedAt, &lastMessage,
		); err != nil {
			return nil, fmt.Errorf("conversation: failed to scan archive row: %w", err)
		}
		if lastMessage.Valid {
			t := lastMessage.Time
			c.LastMessageAt = &t
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("conversation: failed to read archive rows: %w", err)
	}
	return out, nil
}
