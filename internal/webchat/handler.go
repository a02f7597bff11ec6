// Package webchat is the WebSocket transport for the embeddable chat
// widget. Each connection maps to one conversation session; turns run
// through the same service as the REST endpoint.
package webchat

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"github.com/pawbook/pawbook/internal/conversation"
	"github.com/pawbook/pawbook/pkg/logging"
)

// Frame types exchanged with the widget.
const (
	frameMessage = "message"
	framePing    = "ping"
	framePong    = "pong"
	frameSession = "session"
	frameHistory = "history"
	frameError   = "error"
)

// InboundFrame is what the widget sends.
type InboundFrame struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	Text      string `json:"text,omitempty"`
}

// OutboundFrame is what goes back to the widget.
type OutboundFrame struct {
	Type      string         `json:"type"`
	Role      string         `json:"role,omitempty"`
	Text      string         `json:"text,omitempty"`
	SessionID string         `json:"session_id,omitempty"`
	Timestamp string         `json:"timestamp,omitempty"`
	Messages  []HistoryEntry `json:"messages,omitempty"`
}

// HistoryEntry is one replayed transcript message.
type HistoryEntry struct {
	Role      string `json:"role"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// Handler manages widget connections and relays turns to the conversation
// service.
type Handler struct {
	svc    *conversation.Service
	logger *logging.Logger
	now    func() time.Time

	mu    sync.Mutex
	conns map[string]*wsConn // session id -> live connection
}

// wsConn wraps a connection with a write lock so pushes from outside the
// read loop cannot interleave with replies.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsConn) send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return websocket.JSON.Send(c.conn, v)
}

// NewHandler creates the widget gateway.
func NewHandler(svc *conversation.Service, logger *logging.Logger) *Handler {
	if svc == nil {
		panic("webchat: conversation service cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		svc:    svc,
		logger: logger,
		now:    time.Now,
		conns:  make(map[string]*wsConn),
	}
}

// WithClock overrides the timestamp source on outbound frames.
func (h *Handler) WithClock(now func() time.Time) *Handler {
	h.now = now
	return h
}

// generateSessionID creates a random session identifier.
func generateSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return uuid.New().String()
	}
	return hex.EncodeToString(b)
}

// HandleWebSocket handles GET /api/chat/ws. Query params: session (resume an
// existing session), user (caller identity passthrough).
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		sessionID = generateSessionID()
	}
	callerCtx := conversation.Context{
		UserID: r.URL.Query().Get("user"),
		Source: "webchat",
	}

	// Register before the session frame goes out: once the widget sees its
	// id the connection must be reachable through Push.
	wsc := &wsConn{conn: conn}
	h.register(sessionID, wsc)
	defer h.unregister(sessionID, wsc)

	_ = wsc.send(OutboundFrame{Type: frameSession, SessionID: sessionID})
	h.replayHistory(r.Context(), wsc, sessionID)
	h.logger.Info("webchat connection opened", "session_id", sessionID)

	for {
		var msg InboundFrame
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("webchat connection closed", "session_id", sessionID, "error", err)
			return
		}

		switch {
		case msg.Type == framePing:
			_ = wsc.send(OutboundFrame{Type: framePong})
		case msg.Type == frameMessage && strings.TrimSpace(msg.Text) != "":
			h.processTurn(r.Context(), wsc, sessionID, callerCtx, msg.Text)
		}
	}
}

func (h *Handler) processTurn(ctx context.Context, wsc *wsConn, sessionID string, callerCtx conversation.Context, text string) {
	resp, err := h.svc.ProcessMessage(ctx, &conversation.MessageRequest{
		SessionID: sessionID,
		Message:   text,
		Context:   callerCtx,
	})
	if err != nil {
		h.logger.Error("webchat turn failed", "error", err, "session_id", sessionID)
		_ = wsc.send(OutboundFrame{
			Type: frameError,
			Text: "Sorry, something went wrong. Please try again.",
		})
		return
	}

	_ = wsc.send(OutboundFrame{
		Type:      frameMessage,
		Role:      string(conversation.RoleBot),
		Text:      resp.Reply,
		SessionID: resp.SessionID,
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
}

// replayHistory sends the stored transcript so a reconnecting widget can
// redraw the thread. A fresh session simply has nothing to replay.
func (h *Handler) replayHistory(ctx context.Context, wsc *wsConn, sessionID string) {
	sess, err := h.svc.GetSession(ctx, sessionID)
	if err != nil {
		return
	}

	entries := make([]HistoryEntry, 0, len(sess.Messages))
	for _, m := range sess.Messages {
		if m.Role == conversation.RoleSystem {
			continue
		}
		entries = append(entries, HistoryEntry{
			Role:      string(m.Role),
			Text:      m.Content,
			Timestamp: m.Timestamp.Format(time.RFC3339),
		})
	}
	if len(entries) == 0 {
		return
	}
	_ = wsc.send(OutboundFrame{Type: frameHistory, Messages: entries})
}

// register tracks the connection; a reconnect for the same session replaces
// the previous connection, which gets closed.
func (h *Handler) register(sessionID string, wsc *wsConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.conns[sessionID]; ok && old != wsc {
		old.conn.Close()
	}
	h.conns[sessionID] = wsc
}

func (h *Handler) unregister(sessionID string, wsc *wsConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[sessionID] == wsc {
		delete(h.conns, sessionID)
	}
}

// Push delivers a frame to a session's live connection. It reports false
// when the session has no open connection.
func (h *Handler) Push(sessionID string, frame OutboundFrame) bool {
	h.mu.Lock()
	wsc, ok := h.conns[sessionID]
	h.mu.Unlock()
	if !ok {
		return false
	}
	return wsc.send(frame) == nil
}
