// Copyright (c) 2025 Fixonway
// SPDX-License-Identifier: AGPL-3.0-or-later

package realtime

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	// Time allowed to write a frame to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong from the peer.
	pongWait = 60 * time.Second

	// Send pings with this period (must be less than pongWait).
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound frame size. History responses are paged server-side,
	// so anything larger is a protocol violation.
	maxMessageSize = 256 * 1024

	// Outbound queue depth. Emits beyond this while disconnected are dropped
	// with ErrBackpressure rather than blocking the event loop.
	sendQueueSize = 64
)

var (
	// ErrClosed is returned by Emit after Close.
	ErrClosed = errors.New("realtime: channel closed")

	// ErrBackpressure is returned by Emit when the outbound queue is full.
	ErrBackpressure = errors.New("realtime: send queue full")
)

// =============================================================================
// WEBSOCKET CHANNEL
// =============================================================================

// ConnConfig configures the websocket channel.
type ConnConfig struct {
	// URL is the websocket endpoint, e.g. wss://api.fixonway.com/ws.
	URL string

	// Token authenticates the connection once at dial time; individual
	// events carry no credentials.
	Token string

	// HandshakeTimeout bounds a single dial attempt. Zero means 10s.
	HandshakeTimeout time.Duration

	// ReconnectEvery paces reconnection attempts. Zero means one attempt
	// per 2 seconds.
	ReconnectEvery time.Duration
}

// Conn is the production Channel: one gorilla/websocket connection with
// automatic reconnection. Subscriptions survive reconnects; in-flight
// request state does not, which the chat core already tolerates via its
// stale-response filtering.
type Conn struct {
	cfg     ConnConfig
	mux     *mux
	out     chan []byte
	limiter *rate.Limiter

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	state    State
	stateFns []func(State)
	closed   bool
}

// Dial creates the channel and starts its connect loop. Dialing is lazy:
// the returned Conn is usable immediately and frames emitted before the
// handshake completes are queued. Call once per application lifetime.
func Dial(cfg ConnConfig) *Conn {
	if cfg.HandshakeTimeout == 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	if cfg.ReconnectEvery == 0 {
		cfg.ReconnectEvery = 2 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Conn{
		cfg:     cfg,
		mux:     newMux(),
		out:     make(chan []byte, sendQueueSize),
		limiter: rate.NewLimiter(rate.Every(cfg.ReconnectEvery), 1),
		ctx:     ctx,
		cancel:  cancel,
		state:   StateConnecting,
	}

	go c.run()
	return c
}

// Emit queues an event for delivery to the server.
func (c *Conn) Emit(event string, payload any) error {
	frame, err := encodeEnvelope(event, payload)
	if err != nil {
		return err
	}

	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}

	select {
	case c.out <- frame:
		return nil
	default:
		return ErrBackpressure
	}
}

// Subscribe registers a handler for an inbound event.
func (c *Conn) Subscribe(event string, h Handler) Subscription {
	return c.mux.subscribe(event, h)
}

// OnStateChange registers a connectivity callback.
func (c *Conn) OnStateChange(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stateFns = append(c.stateFns, fn)
}

// State returns the current connectivity state.
func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close tears down the connection and drops all subscriptions. The channel
// cannot be reused afterwards.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.setState(StateClosed)
	c.mux.clear()
	return nil
}

// =============================================================================
// CONNECT LOOP
// =============================================================================

// run dials, pumps, and redials until Close. Each failed or dropped
// connection waits on the rate limiter before the next attempt so a flapping
// server is not hammered.
func (c *Conn) run() {
	dialer := &websocket.Dialer{HandshakeTimeout: c.cfg.HandshakeTimeout}
	header := http.Header{}
	if c.cfg.Token != "" {
		header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	for {
		if err := c.limiter.Wait(c.ctx); err != nil {
			return
		}

		c.setState(StateConnecting)
		ws, resp, err := dialer.DialContext(c.ctx, c.cfg.URL, header)
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			c.setState(StateDisconnected)
			continue
		}

		c.setState(StateConnected)

		done := make(chan struct{})
		go c.writePump(ws, done)
		c.readPump(ws)
		close(done)
		ws.Close()

		if c.ctx.Err() != nil {
			return
		}
		c.setState(StateDisconnected)
	}
}

// readPump reads frames and dispatches them until the connection errors.
func (c *Conn) readPump(ws *websocket.Conn) {
	ws.SetReadLimit(maxMessageSize)
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, frame, err := ws.ReadMessage()
		if err != nil {
			return
		}

		var env envelope
		if err := decodeEnvelope(frame, &env); err != nil {
			// Malformed frame: skip it rather than drop the connection.
			continue
		}
		c.mux.dispatch(env.Event, env.Data)
	}
}

// writePump drains the outbound queue and keeps the connection alive with
// pings. One writePump exists per physical connection; the shared queue
// carries over frames queued while disconnected.
func (c *Conn) writePump(ws *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case frame := <-c.out:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-done:
			return

		case <-c.ctx.Done():
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			ws.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// setState records a transition and notifies listeners outside the lock.
func (c *Conn) setState(s State) {
	c.mu.Lock()
	if c.state == s {
		c.mu.Unlock()
		return
	}
	c.state = s
	fns := make([]func(State), len(c.stateFns))
	copy(fns, c.stateFns)
	c.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}
