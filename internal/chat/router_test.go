package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sunity/api/internal/models"
)

type memStore struct {
	mu        sync.Mutex
	direct    []*models.DirectMessage
	events    []*models.EventMessage
	failSaves int
	pingErr   error
}

func (s *memStore) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pingErr
}

func (s *memStore) SaveDirectMessage(_ context.Context, m *models.DirectMessage) (*models.DirectMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSaves > 0 {
		s.failSaves--
		return nil, errors.New("insert failed")
	}
	m.ID = int64(len(s.direct) + 1)
	s.direct = append(s.direct, m)
	return m, nil
}

func (s *memStore) SaveEventMessage(_ context.Context, m *models.EventMessage) (*models.EventMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSaves > 0 {
		s.failSaves--
		return nil, errors.New("insert failed")
	}
	m.ID = int64(len(s.events) + 1)
	s.events = append(s.events, m)
	return m, nil
}

func (s *memStore) directCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.direct)
}

func (s *memStore) eventCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func newTestHub(t *testing.T, store *memStore) (*Hub, *httptest.Server) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := NewHub(store, ConnOptions{MaxMessageBytes: 4096, RateBurst: 100, RateInterval: time.Millisecond}, logger)
	upgrader := NewUpgrader([]string{"http://localhost:8100"}, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/direct", func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Direct.Serve(r.Context(), ws, r.URL.Query().Get("user"), r.URL.Query().Get("peer"))
	})
	mux.HandleFunc("/event", func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		id, _ := strconv.ParseInt(r.URL.Query().Get("event"), 10, 64)
		hub.Events.Serve(r.Context(), ws, EventKey{EventID: id, UserID: r.URL.Query().Get("user")})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", path, err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func registered[K comparable](reg *Registry[K], key K) func() bool {
	return func() bool {
		_, ok := reg.Lookup(key)
		return ok
	}
}

func send(t *testing.T, ws *websocket.Conn, body string) {
	t.Helper()
	if err := ws.WriteJSON(map[string]string{"message": body}); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func readOutbound(t *testing.T, ws *websocket.Conn) Outbound {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var out Outbound
	if err := ws.ReadJSON(&out); err != nil {
		t.Fatalf("read: %v", err)
	}
	return out
}

func expectSilence(t *testing.T, ws *websocket.Conn) {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(150 * time.Millisecond))
	if _, msg, err := ws.ReadMessage(); err == nil {
		t.Fatalf("unexpected frame %s", msg)
	}
}

func TestDirectDeliveryAndEcho(t *testing.T) {
	store := &memStore{}
	hub, srv := newTestHub(t, store)

	ana := dial(t, srv, "/direct?user=ana&peer=beto")
	beto := dial(t, srv, "/direct?user=beto&peer=ana")
	waitFor(t, "ana registered", registered(hub.Direct.Registry(), "ana"))
	waitFor(t, "beto registered", registered(hub.Direct.Registry(), "beto"))

	before := time.Now().UTC().Add(-time.Millisecond)
	send(t, ana, "hola")

	got := readOutbound(t, beto)
	if got.Type != TypeDirectMessage || got.Message != "hola" || got.SenderID != "ana" || got.RecipientID != "beto" {
		t.Errorf("beto received %+v", got)
	}
	if got.SentAt.Before(before) {
		t.Errorf("sent_at %v is before send time %v", got.SentAt, before)
	}

	echo := readOutbound(t, ana)
	if echo.ID != got.ID || echo.Message != "hola" {
		t.Errorf("echo = %+v, want same message as delivered", echo)
	}
	if store.directCount() != 1 {
		t.Errorf("stored %d messages, want 1", store.directCount())
	}
}

func TestDirectOfflinePeerStillPersists(t *testing.T) {
	store := &memStore{}
	hub, srv := newTestHub(t, store)

	ana := dial(t, srv, "/direct?user=ana&peer=beto")
	waitFor(t, "ana registered", registered(hub.Direct.Registry(), "ana"))

	send(t, ana, "¿vienes mañana?")
	if echo := readOutbound(t, ana); echo.Message != "¿vienes mañana?" {
		t.Errorf("echo = %+v", echo)
	}
	if store.directCount() != 1 {
		t.Fatalf("stored %d messages, want 1", store.directCount())
	}
	if store.direct[0].RecipientID != "beto" {
		t.Errorf("recipient = %q, want beto", store.direct[0].RecipientID)
	}
}

func TestBlankAndMalformedFramesIgnored(t *testing.T) {
	store := &memStore{}
	hub, srv := newTestHub(t, store)

	ana := dial(t, srv, "/direct?user=ana&peer=beto")
	waitFor(t, "ana registered", registered(hub.Direct.Registry(), "ana"))

	send(t, ana, "   ")
	ana.WriteMessage(websocket.TextMessage, []byte("not json"))
	ana.WriteJSON(map[string]string{"mensaje": "listo"})

	if got := readOutbound(t, ana); got.Message != "listo" {
		t.Errorf("first echoed message = %q, want listo", got.Message)
	}
	if store.directCount() != 1 {
		t.Errorf("stored %d messages, want 1", store.directCount())
	}
}

func TestEventBroadcastIsolation(t *testing.T) {
	store := &memStore{}
	hub, srv := newTestHub(t, store)
	reg := hub.Events.Registry()

	u1 := dial(t, srv, "/event?event=1&user=u1")
	u2 := dial(t, srv, "/event?event=1&user=u2")
	u3 := dial(t, srv, "/event?event=2&user=u3")
	waitFor(t, "u1", registered(reg, EventKey{1, "u1"}))
	waitFor(t, "u2", registered(reg, EventKey{1, "u2"}))
	waitFor(t, "u3", registered(reg, EventKey{2, "u3"}))

	send(t, u1, "partido a las 8")

	for name, ws := range map[string]*websocket.Conn{"u1": u1, "u2": u2} {
		got := readOutbound(t, ws)
		if got.Type != TypeEventMessage || got.EventID != 1 || got.SenderID != "u1" {
			t.Errorf("%s received %+v", name, got)
		}
	}
	expectSilence(t, u3)

	if n := hub.Events.Broadcast(&models.EventMessage{ID: 9, EventID: 2, SenderID: "u3", Body: "hola", SentAt: time.Now().UTC()}); n != 1 {
		t.Errorf("Broadcast() to event 2 delivered %d, want 1", n)
	}
}

func TestSaveFailureKeepsConnectionOpen(t *testing.T) {
	store := &memStore{failSaves: 1}
	hub, srv := newTestHub(t, store)

	ana := dial(t, srv, "/direct?user=ana&peer=beto")
	waitFor(t, "ana registered", registered(hub.Direct.Registry(), "ana"))

	send(t, ana, "se pierde")
	send(t, ana, "llega")

	if got := readOutbound(t, ana); got.Message != "llega" {
		t.Errorf("echo = %q, want llega", got.Message)
	}
}

func TestStoreDownClosesConnection(t *testing.T) {
	store := &memStore{failSaves: 1, pingErr: errors.New("connection refused")}
	hub, srv := newTestHub(t, store)

	ana := dial(t, srv, "/direct?user=ana&peer=beto")
	waitFor(t, "ana registered", registered(hub.Direct.Registry(), "ana"))

	send(t, ana, "hola")

	ana.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := ana.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseInternalServerErr) {
		t.Fatalf("read error = %v, want close 1011", err)
	}
	waitFor(t, "registry cleanup", func() bool { return hub.Direct.Registry().Len() == 0 })
}

func TestReplacedSessionDoesNotEvictSuccessor(t *testing.T) {
	store := &memStore{}
	hub, srv := newTestHub(t, store)
	reg := hub.Direct.Registry()

	first := dial(t, srv, "/direct?user=ana&peer=beto")
	waitFor(t, "first registered", registered(reg, "ana"))
	original, _ := reg.Lookup("ana")

	second := dial(t, srv, "/direct?user=ana&peer=beto")
	waitFor(t, "second registered", func() bool {
		cur, ok := reg.Lookup("ana")
		return ok && cur != original
	})

	first.Close()
	time.Sleep(50 * time.Millisecond)
	if _, ok := reg.Lookup("ana"); !ok {
		t.Fatal("closing the replaced socket removed the live registration")
	}

	beto := dial(t, srv, "/direct?user=beto&peer=ana")
	waitFor(t, "beto registered", registered(reg, "beto"))
	send(t, beto, "¿sigues ahí?")
	if got := readOutbound(t, second); got.Message != "¿sigues ahí?" {
		t.Errorf("second socket received %+v", got)
	}
}

func TestHubShutdown(t *testing.T) {
	store := &memStore{}
	hub, srv := newTestHub(t, store)

	ana := dial(t, srv, "/direct?user=ana&peer=beto")
	u1 := dial(t, srv, "/event?event=1&user=u1")
	waitFor(t, "ana", registered(hub.Direct.Registry(), "ana"))
	waitFor(t, "u1", registered(hub.Events.Registry(), EventKey{1, "u1"}))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := hub.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	for _, ws := range []*websocket.Conn{ana, u1} {
		ws.SetReadDeadline(time.Now().Add(2 * time.Second))
		if _, _, err := ws.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseGoingAway) {
			t.Errorf("read error = %v, want close 1001", err)
		}
	}
	stats := hub.Stats()
	if stats["direct"] != 0 || stats["event"] != 0 {
		t.Errorf("Stats() after shutdown = %v", stats)
	}
}

func TestUpgraderOrigins(t *testing.T) {
	up := NewUpgrader([]string{"http://localhost:8100", "bogus"}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://localhost:8100", true},
		{"HTTP://LOCALHOST:8100", true},
		{"http://evil.test", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/chat/ws/x", nil)
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		if got := up.CheckOrigin(r); got != tt.want {
			t.Errorf("CheckOrigin(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
}

func TestDecodeInbound(t *testing.T) {
	raw, _ := json.Marshal(map[string]string{"message": "a", "mensaje": "b"})
	if body, ok := decodeInbound(raw); !ok || body != "a" {
		t.Errorf("decodeInbound() = %q, %v; want message field to win", body, ok)
	}
	if _, ok := decodeInbound([]byte("[")); ok {
		t.Error("decodeInbound() accepted malformed JSON")
	}
}

func TestOverLongMessageRejected(t *testing.T) {
	store := &memStore{}
	hub, srv := newTestHub(t, store)

	ana := dial(t, srv, "/direct?user=ana&peer=beto")
	waitFor(t, "ana registered", registered(hub.Direct.Registry(), "ana"))

	send(t, ana, strings.Repeat("a", models.MaxMessageLength+1))
	send(t, ana, strings.Repeat("ñ", models.MaxMessageLength))

	got := readOutbound(t, ana)
	if len([]rune(got.Message)) != models.MaxMessageLength {
		t.Errorf("first echo has %d characters, want the %d-character message", len([]rune(got.Message)), models.MaxMessageLength)
	}
	if store.directCount() != 1 {
		t.Errorf("stored %d messages, want 1", store.directCount())
	}
}

func TestKickClosesDepartedParticipant(t *testing.T) {
	store := &memStore{}
	hub, srv := newTestHub(t, store)
	reg := hub.Events.Registry()

	u1 := dial(t, srv, "/event?event=1&user=u1")
	u2 := dial(t, srv, "/event?event=1&user=u2")
	u1other := dial(t, srv, "/event?event=2&user=u1")
	waitFor(t, "u1", registered(reg, EventKey{1, "u1"}))
	waitFor(t, "u2", registered(reg, EventKey{1, "u2"}))
	waitFor(t, "u1 in event 2", registered(reg, EventKey{2, "u1"}))

	if n := hub.CloseEventSession(1, "u1"); n != 1 {
		t.Fatalf("CloseEventSession() closed %d sockets, want 1", n)
	}

	u1.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := u1.ReadMessage(); !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		t.Fatalf("read error = %v, want close 1008", err)
	}
	waitFor(t, "u1 released", func() bool {
		_, ok := reg.Lookup(EventKey{1, "u1"})
		return !ok
	})

	send(t, u2, "¿quién queda?")
	if got := readOutbound(t, u2); got.Message != "¿quién queda?" {
		t.Errorf("u2 received %+v", got)
	}
	if store.eventCount() != 1 {
		t.Errorf("stored %d event messages, want 1", store.eventCount())
	}
	expectSilence(t, u1other)
	if n := hub.CloseEventSession(1, "nobody"); n != 0 {
		t.Errorf("CloseEventSession(nobody) = %d, want 0", n)
	}
}

func TestSessionsRejectedAfterShutdown(t *testing.T) {
	store := &memStore{}
	hub, srv := newTestHub(t, store)

	if err := hub.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	late := dial(t, srv, "/direct?user=ana&peer=beto")
	late.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := late.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Fatalf("read error = %v, want close 1001", err)
	}
	if n := hub.Direct.Registry().Len(); n != 0 {
		t.Errorf("registry holds %d sockets after shutdown", n)
	}
}
