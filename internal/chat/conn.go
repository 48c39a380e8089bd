package chat

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 256
)

var (
	ErrConnClosed     = errors.New("connection closed")
	ErrSendBufferFull = errors.New("send buffer full")
)

// ConnOptions bounds what a single client may push at the server.
type ConnOptions struct {
	MaxMessageBytes int64
	RateBurst       int
	RateInterval    time.Duration
}

// Conn is one WebSocket client. It owns a read pump and a write pump; all
// writes to the socket go through the write pump.
type Conn struct {
	ws      *websocket.Conn
	route   string
	send    chan []byte
	done    chan struct{}
	once    sync.Once
	limiter *rate.Limiter
	opts    ConnOptions
	logger  *slog.Logger

	closeCode int
	closeText string
}

func NewConn(ws *websocket.Conn, route string, opts ConnOptions, logger *slog.Logger) *Conn {
	var limiter *rate.Limiter
	if opts.RateBurst > 0 && opts.RateInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.RateInterval), opts.RateBurst)
	}
	return &Conn{
		ws:      ws,
		route:   route,
		send:    make(chan []byte, sendBuffer),
		done:    make(chan struct{}),
		limiter: limiter,
		opts:    opts,
		logger:  logger.With("remote_addr", ws.RemoteAddr().String()),
	}
}

// Send queues payload for the write pump without blocking.
func (c *Conn) Send(payload []byte) error {
	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}
	select {
	case c.send <- payload:
		return nil
	case <-c.done:
		return ErrConnClosed
	default:
		return ErrSendBufferFull
	}
}

func (c *Conn) Close() {
	c.CloseWith(websocket.CloseNormalClosure, "")
}

// CloseWith stops the connection, sending the given close code once queued
// messages are flushed. Only the first call has an effect.
func (c *Conn) CloseWith(code int, text string) {
	c.once.Do(func() {
		c.closeCode = code
		c.closeText = text
		close(c.done)
	})
}

// Run pumps the connection until either side closes it. onFrame is called
// from the read pump, one frame at a time, in arrival order.
func (c *Conn) Run(onFrame func(frame []byte)) {
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		c.writePump()
	}()

	c.readPump(onFrame)
	c.Close()
	<-writerDone
}

func (c *Conn) readPump(onFrame func([]byte)) {
	if c.opts.MaxMessageBytes > 0 {
		c.ws.SetReadLimit(c.opts.MaxMessageBytes)
	}
	if err := c.ws.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Debug("Failed to set read deadline", "error", err)
	}
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msgType, frame, err := c.ws.ReadMessage()
		if err != nil {
			c.logReadError(err)
			return
		}
		select {
		case <-c.done:
			return
		default:
		}
		if msgType != websocket.TextMessage {
			continue
		}
		if c.limiter != nil && !c.limiter.Allow() {
			c.logger.Warn("Chat rate limit exceeded, dropping frame",
				"burst", c.opts.RateBurst,
				"interval", c.opts.RateInterval,
			)
			messagesTotal.WithLabelValues(c.route, "rate_limited").Inc()
			continue
		}
		onFrame(frame)
	}
}

func (c *Conn) logReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		c.logger.Warn("Chat frame exceeded size limit", "limit", c.opts.MaxMessageBytes)
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
		c.logger.Debug("Chat client closed connection", "error", err)
	case websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
		c.logger.Info("Chat connection dropped", "error", err)
	default:
		c.logger.Debug("Chat read stopped", "error", err)
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			if !c.write(websocket.TextMessage, msg) {
				return
			}
		case <-ticker.C:
			if !c.write(websocket.PingMessage, nil) {
				return
			}
		case <-c.done:
			c.flush()
			c.write(websocket.CloseMessage, websocket.FormatCloseMessage(c.closeCode, c.closeText))
			return
		}
	}
}

// flush writes whatever is still queued, one frame per message.
func (c *Conn) flush() {
	for {
		select {
		case msg := <-c.send:
			if !c.write(websocket.TextMessage, msg) {
				return
			}
		default:
			return
		}
	}
}

func (c *Conn) write(msgType int, data []byte) bool {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return false
	}
	if err := c.ws.WriteMessage(msgType, data); err != nil {
		if !errors.Is(err, websocket.ErrCloseSent) {
			c.logger.Debug("Chat write failed", "error", err)
		}
		return false
	}
	return true
}
