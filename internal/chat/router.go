package chat

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sunity/api/internal/models"
)

// Pinger reports whether the message store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// session binds one socket to its registry key. persist stores an inbound
// body and returns the frame to fan out; deliver sends that frame to the live
// channels that should see it.
type session[K comparable] struct {
	key     K
	persist func(ctx context.Context, body string, sentAt time.Time) ([]byte, error)
	deliver func(self Channel, payload []byte) int
}

// Router runs chat sessions for one route. A session registers its socket,
// persists each inbound message before delivering it, and releases the
// socket when it ends, however it ends.
type Router[K comparable] struct {
	name     string
	registry *Registry[K]
	pinger   Pinger
	opts     ConnOptions
	logger   *slog.Logger
	now      func() time.Time
	live     sync.Map // *Conn -> K, includes replaced sockets

	// mu guards closing; sessions.Add only happens while closing is false.
	mu       sync.Mutex
	closing  bool
	sessions sync.WaitGroup
}

func newRouter[K comparable](name string, pinger Pinger, opts ConnOptions, logger *slog.Logger) *Router[K] {
	return &Router[K]{
		name:     name,
		registry: NewRegistry[K](),
		pinger:   pinger,
		opts:     opts,
		logger:   logger.With("route", name),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (r *Router[K]) Registry() *Registry[K] {
	return r.registry
}

// serve blocks until the session ends. Sockets upgraded after shutdown has
// begun are closed with 1001 right away.
func (r *Router[K]) serve(ctx context.Context, ws *websocket.Conn, s session[K]) {
	key := s.key
	conn := NewConn(ws, r.name, r.opts, r.logger)

	// Joining live under mu guarantees shutdown's sweep sees this socket.
	r.mu.Lock()
	if r.closing {
		r.mu.Unlock()
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		_ = ws.Close()
		return
	}
	r.sessions.Add(1)
	r.live.Store(conn, key)
	r.mu.Unlock()
	defer r.sessions.Done()

	if prev := r.registry.Register(key, conn); prev != nil {
		r.logger.Info("Chat connection replaced", "key", key)
	} else {
		r.logger.Info("Chat connection opened", "key", key)
	}
	connectionsGauge.WithLabelValues(r.name).Set(float64(r.registry.Len()))

	defer func() {
		r.live.Delete(conn)
		r.registry.Release(key, conn)
		connectionsGauge.WithLabelValues(r.name).Set(float64(r.registry.Len()))
		r.logger.Info("Chat connection closed", "key", key)
	}()

	conn.Run(func(frame []byte) {
		r.handleFrame(ctx, conn, s, frame)
	})
}

func (r *Router[K]) handleFrame(ctx context.Context, conn *Conn, s session[K], frame []byte) {
	key := s.key
	body, ok := decodeInbound(frame)
	if !ok {
		r.logger.Warn("Discarding malformed chat frame", "key", key)
		messagesTotal.WithLabelValues(r.name, outcomeInvalid).Inc()
		return
	}
	if isBlank(body) {
		messagesTotal.WithLabelValues(r.name, outcomeIgnored).Inc()
		return
	}
	if models.MessageTooLong(body) {
		r.logger.Warn("Discarding over-long chat message", "key", key, "max_chars", models.MaxMessageLength)
		messagesTotal.WithLabelValues(r.name, outcomeInvalid).Inc()
		return
	}

	payload, err := s.persist(ctx, body, r.now())
	if err != nil {
		if pingErr := r.pinger.Ping(ctx); pingErr != nil {
			r.logger.Error("Message store unreachable, closing chat connection",
				"key", key,
				"error", err,
				"ping_error", pingErr,
			)
			messagesTotal.WithLabelValues(r.name, outcomeStoreDown).Inc()
			conn.CloseWith(websocket.CloseInternalServerErr, "message store unavailable")
			return
		}
		r.logger.Error("Failed to persist chat message, dropping it", "key", key, "error", err)
		messagesTotal.WithLabelValues(r.name, outcomeDropped).Inc()
		return
	}

	s.deliver(conn, payload)
	messagesTotal.WithLabelValues(r.name, outcomeDelivered).Inc()
}

// shutdown closes every socket, replaced ones included, and waits for the
// sessions to release them.
func (r *Router[K]) shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closing = true
	r.mu.Unlock()

	r.live.Range(func(k, _ interface{}) bool {
		k.(*Conn).CloseWith(websocket.CloseGoingAway, "server shutting down")
		return true
	})
	done := make(chan struct{})
	go func() {
		r.sessions.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// closeKey closes every socket opened under key, including one that was
// replaced by a newer connection, and reports how many it closed.
func (r *Router[K]) closeKey(key K, code int, text string) int {
	n := 0
	r.live.Range(func(c, k interface{}) bool {
		if k.(K) == key {
			c.(*Conn).CloseWith(code, text)
			n++
		}
		return true
	})
	return n
}
