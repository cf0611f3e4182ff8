// Package ws implements the realtime transport over a websocket connection.
// Reconnection lives entirely here: the application layer registers a status
// callback and only mirrors what the transport reports.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/hireway/session-gateway/internal/api/metrics"
	"github.com/hireway/session-gateway/internal/core/domain"
)

const (
	handshakeTimeout = 10 * time.Second
	initialBackoff   = time.Second
	maxBackoff       = 30 * time.Second
)

// envelope is the wire frame shared with the chat server: a named event plus
// an opaque JSON payload.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Transport is a websocket-backed realtime connection. Register handlers
// with OnEvent/OnStatus before calling Dial; Close stops the read pump and
// any pending reconnect attempt.
type Transport struct {
	url    string
	dialer *websocket.Dialer
	log    zerolog.Logger

	mu       sync.Mutex
	conn     *websocket.Conn
	token    string
	closed   bool
	handlers map[string][]func(json.RawMessage)
	statusFn func(domain.ConnectionStatus, error)
}

func NewTransport(url string, log zerolog.Logger) *Transport {
	return &Transport{
		url:      url,
		dialer:   &websocket.Dialer{HandshakeTimeout: handshakeTimeout},
		log:      log.With().Str("component", "ws").Logger(),
		handlers: make(map[string][]func(json.RawMessage)),
	}
}

// OnEvent registers a handler for a named event. Handlers run on the read
// pump goroutine and must not block.
func (t *Transport) OnEvent(name string, fn func(data json.RawMessage)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers[name] = append(t.handlers[name], fn)
}

// OnStatus registers the connection-state callback.
func (t *Transport) OnStatus(fn func(status domain.ConnectionStatus, err error)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.statusFn = fn
}

// Dial establishes the connection and starts the read pump. On failure the
// transport schedules its own reconnect loop and returns the first error;
// status callbacks carry the ongoing state.
func (t *Transport) Dial(ctx context.Context, token string) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return domain.ErrNotConnected
	}
	t.token = token
	t.mu.Unlock()

	if err := t.connect(ctx); err != nil {
		t.emitStatus(domain.StatusReconnecting, err)
		go t.reconnectLoop(ctx)
		return err
	}
	return nil
}

func (t *Transport) connect(ctx context.Context) error {
	t.mu.Lock()
	token := t.token
	t.mu.Unlock()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, resp, err := t.dialer.DialContext(ctx, t.url, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return err
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		_ = conn.Close()
		return domain.ErrNotConnected
	}
	t.conn = conn
	t.mu.Unlock()

	t.emitStatus(domain.StatusConnected, nil)
	go t.readPump(ctx, conn)
	return nil
}

// readPump reads frames until the connection drops, then hands over to the
// reconnect loop unless the transport was closed deliberately.
func (t *Transport) readPump(ctx context.Context, conn *websocket.Conn) {
	for {
		var env envelope
		if err := conn.ReadJSON(&env); err != nil {
			t.mu.Lock()
			closed := t.closed
			if t.conn == conn {
				t.conn = nil
			}
			t.mu.Unlock()

			if closed || ctx.Err() != nil {
				t.emitStatus(domain.StatusDisconnected, nil)
				return
			}
			t.log.Warn().Err(err).Msg("connection lost")
			t.emitStatus(domain.StatusReconnecting, err)
			go t.reconnectLoop(ctx)
			return
		}
		t.dispatch(env)
	}
}

func (t *Transport) dispatch(env envelope) {
	t.mu.Lock()
	fns := append(([]func(json.RawMessage))(nil), t.handlers[env.Event]...)
	t.mu.Unlock()

	if len(fns) == 0 {
		t.log.Debug().Str("event", env.Event).Msg("unhandled event")
		return
	}
	for _, fn := range fns {
		fn(env.Data)
	}
}

// reconnectLoop retries with capped exponential backoff until it succeeds,
// the context is cancelled, or the transport is closed.
func (t *Transport) reconnectLoop(ctx context.Context) {
	backoff := initialBackoff
	for {
		select {
		case <-ctx.Done():
			t.emitStatus(domain.StatusDisconnected, nil)
			return
		case <-time.After(backoff):
		}

		t.mu.Lock()
		closed := t.closed
		t.mu.Unlock()
		if closed {
			return
		}

		metrics.ReconnectsTotal.Inc()
		if err := t.connect(ctx); err != nil {
			t.log.Warn().Err(err).Dur("backoff", backoff).Msg("reconnect failed")
			t.emitStatus(domain.StatusReconnecting, err)
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		return
	}
}

// Emit sends one named event to the server.
func (t *Transport) Emit(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return domain.ErrNotConnected
	}
	return t.conn.WriteJSON(envelope{Event: event, Data: data})
}

// Close shuts the connection down for good. Idempotent.
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()

	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		return conn.Close()
	}
	t.emitStatus(domain.StatusDisconnected, nil)
	return nil
}

func (t *Transport) emitStatus(status domain.ConnectionStatus, err error) {
	t.mu.Lock()
	fn := t.statusFn
	t.mu.Unlock()
	if fn != nil {
		fn(status, err)
	}
}
