// Package notify streams sync engine events to WebSocket clients, so a
// browser or another tool can show live note and sync status.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/dmitrijs2005/gophnotes/internal/client/engine"
	"github.com/dmitrijs2005/gophnotes/internal/logging"
)

type MessageType string

const (
	MessageTypeConnected     MessageType = "connected"
	MessageTypeNotesChanged  MessageType = "notes_changed"
	MessageTypeSyncStarted   MessageType = "sync_started"
	MessageTypeSyncFinished  MessageType = "sync_finished"
	MessageTypeOnlineChanged MessageType = "online_changed"
)

// Message is the JSON frame sent to clients.
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

type NotesChangedData struct {
	NoteID string `json:"note_id,omitempty"`
}

type SyncFinishedData struct {
	Skipped  bool   `json:"skipped"`
	Replayed int    `json:"replayed"`
	Failed   int    `json:"failed"`
	Deferred int    `json:"deferred"`
	Error    string `json:"error,omitempty"`
}

type OnlineChangedData struct {
	Online bool `json:"online"`
}

const (
	broadcastBuffer = 100
	writeTimeout    = 5 * time.Second
)

// Hub fans messages out to every connected WebSocket client.
type Hub struct {
	log logging.Logger

	clients   map[*websocket.Conn]struct{}
	clientsMu sync.RWMutex
	closed    bool
	// conns tracks the per-connection read loops.
	conns sync.WaitGroup

	broadcast chan Message
}

func NewHub(log logging.Logger) *Hub {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Hub{
		log:       log.With("module", "notify"),
		clients:   make(map[*websocket.Conn]struct{}),
		broadcast: make(chan Message, broadcastBuffer),
	}
}

// Handler serves /ws and /health.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.handleWebSocket)
	mux.HandleFunc("/health", h.handleHealth)
	return mux
}

// Broadcast queues msg for every client. It drops msg when the queue is full.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		h.log.Warn(context.Background(), "broadcast channel full, dropping message", "type", msg.Type)
	}
}

// Publish converts an engine event and broadcasts it.
func (h *Hub) Publish(ev engine.Event) {
	msg, err := toMessage(ev)
	if err != nil {
		h.log.Error(context.Background(), "failed to encode event", "error", err)
		return
	}
	h.Broadcast(msg)
}

// Forward publishes events until the channel closes or ctx is done.
func (h *Hub) Forward(ctx context.Context, events <-chan engine.Event) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			h.Publish(ev)
		case <-ctx.Done():
			return
		}
	}
}

// Run delivers broadcast messages until ctx is done, then disconnects every
// client.
func (h *Hub) Run(ctx context.Context) {
	defer h.closeAll()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-h.broadcast:
			h.send(msg)
		}
	}
}

// ListenAndServe serves Handler on addr and runs the hub until ctx is done.
func (h *Hub) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return h.Serve(ctx, ln)
}

// Serve serves Handler on ln and runs the hub until ctx is done. It returns
// once every client has been disconnected.
func (h *Hub) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      h.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
		h.conns.Wait()
	}()

	wg.Add(2)
	go func() {
		defer wg.Done()
		h.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	h.log.Info(ctx, "dashboard listening", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

func (h *Hub) send(msg Message) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error(context.Background(), "failed to marshal message", "error", err)
		return
	}

	h.clientsMu.RLock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clientsMu.RUnlock()

	for _, c := range clients {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := c.Write(ctx, websocket.MessageText, data)
		cancel()
		if err != nil {
			h.log.Debug(ctx, "failed to send to client", "error", err)
			h.removeClient(c)
		}
	}
}

func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"localhost:*", "127.0.0.1:*"},
	})
	if err != nil {
		h.log.Warn(r.Context(), "websocket upgrade failed", "error", err)
		return
	}

	welcome, _ := json.Marshal(Message{Type: MessageTypeConnected, Timestamp: time.Now().UTC()})
	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	err = conn.Write(ctx, websocket.MessageText, welcome)
	cancel()
	if err != nil {
		_ = conn.Close(websocket.StatusInternalError, "")
		return
	}

	h.clientsMu.Lock()
	if h.closed {
		h.clientsMu.Unlock()
		_ = conn.Close(websocket.StatusGoingAway, "shutting down")
		return
	}
	h.clients[conn] = struct{}{}
	h.conns.Add(1)
	count := len(h.clients)
	h.clientsMu.Unlock()
	defer h.conns.Done()
	defer h.removeClient(conn)
	h.log.Info(r.Context(), "client connected", "clients", count)

	// Client frames are ignored; reading detects disconnects.
	for {
		if _, _, err := conn.Read(r.Context()); err != nil {
			return
		}
	}
}

func (h *Hub) removeClient(conn *websocket.Conn) {
	h.clientsMu.Lock()
	if _, ok := h.clients[conn]; !ok {
		h.clientsMu.Unlock()
		return
	}
	delete(h.clients, conn)
	count := len(h.clients)
	h.clientsMu.Unlock()

	_ = conn.Close(websocket.StatusNormalClosure, "")
	h.log.Info(context.Background(), "client disconnected", "clients", count)
}

// closeAll disconnects every client and refuses new ones.
func (h *Hub) closeAll() {
	h.clientsMu.Lock()
	h.closed = true
	clients := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
		delete(h.clients, c)
	}
	h.clientsMu.Unlock()

	for _, c := range clients {
		_ = c.Close(websocket.StatusGoingAway, "shutting down")
	}
}

func (h *Hub) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"clients": h.ClientCount(),
	})
}

func toMessage(ev engine.Event) (Message, error) {
	var (
		typ  MessageType
		data any
	)
	switch e := ev.(type) {
	case engine.NotesChanged:
		typ, data = MessageTypeNotesChanged, NotesChangedData{NoteID: e.NoteID}
	case engine.SyncStarted:
		typ = MessageTypeSyncStarted
	case engine.SyncFinished:
		d := SyncFinishedData{
			Skipped: e.Report.Skipped, Replayed: e.Report.Replayed,
			Failed: e.Report.Failed, Deferred: e.Report.Deferred,
		}
		if e.Err != nil {
			d.Error = e.Err.Error()
		}
		typ, data = MessageTypeSyncFinished, d
	case engine.OnlineChanged:
		typ, data = MessageTypeOnlineChanged, OnlineChangedData{Online: e.Online}
	default:
		return Message{}, fmt.Errorf("unknown event %T", ev)
	}

	msg := Message{Type: typ, Timestamp: ev.Time()}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return Message{}, err
		}
		msg.Data = raw
	}
	return msg, nil
}
