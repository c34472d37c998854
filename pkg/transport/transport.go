// Package transport implements the duplex RPC channel to the kernel helper:
// JSON frames over a websocket with echo correlation, automatic reconnection
// and prolonged-disconnection supervision, plus a unary HTTP fallback for
// binary payloads.
package transport

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/tinyland-inc/ntbridge/pkg/logger"
)

const component = "transport"

const (
	// DefaultCallTimeout bounds Call round-trips.
	DefaultCallTimeout = 10 * time.Second
	// DefaultSendTimeout bounds binary send round-trips over the socket.
	DefaultSendTimeout = 15 * time.Second

	reconnectDelay = 1 * time.Second
	monitorTick    = 5 * time.Second
)

// ErrCallTimeout is returned when no correlated response arrives in time.
var ErrCallTimeout = errors.New("timeout waiting for helper response")

// ErrClosed is returned for operations on a closed client.
var ErrClosed = errors.New("transport closed")

// RequestFailedError reports a non-2xx status from the unary HTTP channel.
type RequestFailedError struct {
	Status int
	Body   string
}

func (e *RequestFailedError) Error() string {
	return fmt.Sprintf("helper request failed: status %d: %s", e.Status, e.Body)
}

// Frame is one decoded inbound frame from the helper.
type Frame struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// Echo returns the correlation id of the frame, if any.
func (f *Frame) Echo() string {
	if f.Data == nil {
		return ""
	}
	echo, _ := f.Data["echo"].(string)
	return echo
}

// Listener receives every inbound frame. Listeners run on their own
// goroutines; a panicking listener is recovered and logged.
type Listener func(frame *Frame)

type disconnectWatcher struct {
	timeout   time.Duration
	callback  func(elapsed time.Duration)
	triggered bool
}

// Client is the duplex RPC client. One Client owns one socket; all methods
// are safe for concurrent use.
type Client struct {
	wsURL   string
	httpURL string
	http    *resty.Client

	mu            sync.Mutex
	conn          *websocket.Conn
	connected     bool
	lastConnected time.Time
	loggedConnErr bool

	listenerMu sync.RWMutex
	listeners  map[string]Listener

	watcherMu sync.Mutex
	watchers  map[string]*disconnectWatcher

	closeOnce sync.Once
	closed    chan struct{}
}

// NewClient creates a client and starts its connection and supervision
// loops. The client keeps reconnecting until Close is called.
func NewClient(wsURL, httpURL string) *Client {
	c := &Client{
		wsURL:         wsURL,
		httpURL:       httpURL,
		http:          resty.New().SetHeader("Content-Type", "application/json"),
		listeners:     map[string]Listener{},
		watchers:      map[string]*disconnectWatcher{},
		lastConnected: time.Now(),
		closed:        make(chan struct{}),
	}
	go c.run()
	go c.monitor()
	return c
}

// Close tears the client down. Pending calls run to their own timeouts.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.mu.Lock()
		if c.conn != nil {
			c.conn.Close()
		}
		c.mu.Unlock()
	})
}

// IsConnected reports the current socket state, best-effort.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// WaitConnected blocks until the socket is open or ctx ends.
func (c *Client) WaitConnected(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		if c.IsConnected() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.closed:
			return ErrClosed
		case <-ticker.C:
		}
	}
}

// AddListener registers a frame listener and returns its id.
func (c *Client) AddListener(l Listener) string {
	id := uuid.NewString()
	c.listenerMu.Lock()
	c.listeners[id] = l
	c.listenerMu.Unlock()
	return id
}

// RemoveListener unregisters a frame listener.
func (c *Client) RemoveListener(id string) {
	c.listenerMu.Lock()
	delete(c.listeners, id)
	c.listenerMu.Unlock()
}

// OnDisconnect registers a watcher fired once per disconnection episode
// after the connection has been down for at least timeout.
func (c *Client) OnDisconnect(timeout time.Duration, callback func(elapsed time.Duration)) string {
	id := uuid.NewString()
	c.watcherMu.Lock()
	c.watchers[id] = &disconnectWatcher{timeout: timeout, callback: callback}
	c.watcherMu.Unlock()
	return id
}

// OffDisconnect unregisters a disconnect watcher.
func (c *Client) OffDisconnect(id string) {
	c.watcherMu.Lock()
	delete(c.watchers, id)
	c.watcherMu.Unlock()
}

// Call invokes a kernel function over the duplex channel. A zero timeout
// selects DefaultCallTimeout. The returned value is the response frame's
// result field.
func (c *Client) Call(ctx context.Context, fn string, args []any, timeout time.Duration) (any, error) {
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	if args == nil {
		args = []any{}
	}
	data, err := c.wsSend(ctx, map[string]any{
		"type": "call",
		"data": map[string]any{"func": fn, "args": args},
	}, timeout)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", fn, err)
	}
	return data["result"], nil
}

// SendPB sends a binary command over the duplex channel and returns the
// reply payload.
func (c *Client) SendPB(ctx context.Context, cmd string, pb []byte) ([]byte, error) {
	data, err := c.wsSend(ctx, map[string]any{
		"type": "send",
		"data": map[string]any{"cmd": cmd, "pb": hex.EncodeToString(pb)},
	}, DefaultSendTimeout)
	if err != nil {
		return nil, fmt.Errorf("send %s: %w", cmd, err)
	}
	return decodePBReply(data)
}

// SendPBHTTP sends a binary command as a single unary HTTP request. A
// non-2xx response is a hard RequestFailedError.
func (c *Client) SendPBHTTP(ctx context.Context, cmd string, pb []byte) ([]byte, error) {
	payload := map[string]any{
		"type": "send",
		"data": map[string]any{
			"cmd":  cmd,
			"pb":   hex.EncodeToString(pb),
			"echo": uuid.NewString(),
		},
	}
	body, err := json.Marshal(flattenWireValue(payload))
	if err != nil {
		return nil, fmt.Errorf("send %s: encode: %w", cmd, err)
	}
	resp, err := c.http.R().SetContext(ctx).SetBody(body).Post(c.httpURL)
	if err != nil {
		return nil, fmt.Errorf("send %s: %w", cmd, err)
	}
	if resp.IsError() {
		return nil, &RequestFailedError{Status: resp.StatusCode(), Body: string(resp.Body())}
	}
	var frame Frame
	if err := json.Unmarshal(resp.Body(), &frame); err != nil {
		return nil, fmt.Errorf("send %s: decode reply: %w", cmd, err)
	}
	frame.Data, _ = convertWireValue(frame.Data).(map[string]any)
	return decodePBReply(frame.Data)
}

// BroadcastEvent announces an auxiliary event over the duplex channel.
// No response is expected.
func (c *Client) BroadcastEvent(eventType string, data map[string]any) error {
	echo := uuid.NewString()
	payload := map[string]any{
		"type": "broadcast_event",
		"data": map[string]any{
			"echo": echo,
			"type": eventType,
			"data": data,
		},
	}
	return c.write(payload)
}

func decodePBReply(data map[string]any) ([]byte, error) {
	raw, _ := data["pb"].(string)
	if raw == "" {
		return nil, nil
	}
	pb, err := hex.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("decode reply payload: %w", err)
	}
	return pb, nil
}

// wsSend performs one correlated round-trip over the socket.
func (c *Client) wsSend(ctx context.Context, payload map[string]any, timeout time.Duration) (map[string]any, error) {
	if err := c.WaitConnected(ctx); err != nil {
		return nil, err
	}

	data := payload["data"].(map[string]any)
	echo, _ := data["echo"].(string)
	if echo == "" {
		echo = uuid.NewString()
		data["echo"] = echo
	}

	reply := make(chan *Frame, 1)
	id := c.AddListener(func(f *Frame) {
		if f.Echo() == echo {
			select {
			case reply <- f:
			default:
			}
		}
	})
	defer c.RemoveListener(id)

	if err := c.write(payload); err != nil {
		return nil, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case f := <-reply:
		return f.Data, nil
	case <-timer.C:
		return nil, ErrCallTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.closed:
		return nil, ErrClosed
	}
}

func (c *Client) write(payload map[string]any) error {
	raw, err := json.Marshal(flattenWireValue(payload))
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ErrClosed
	}
	return c.conn.WriteMessage(websocket.TextMessage, raw)
}

// run dials, reads until failure, and redials after a fixed delay, forever.
func (c *Client) run() {
	for {
		select {
		case <-c.closed:
			return
		default:
		}

		conn, _, err := websocket.DefaultDialer.Dial(c.wsURL, nil)
		if err != nil {
			c.mu.Lock()
			logged := c.loggedConnErr
			c.loggedConnErr = true
			c.mu.Unlock()
			if !logged {
				logger.ErrorCF(component, "Helper connection failed, waiting for it to come up", map[string]any{
					"url":   c.wsURL,
					"error": err.Error(),
				})
			}
			select {
			case <-c.closed:
				return
			case <-time.After(reconnectDelay):
			}
			continue
		}

		logger.InfoCF(component, "Helper connected", map[string]any{"url": c.wsURL})
		c.mu.Lock()
		c.conn = conn
		c.connected = true
		c.lastConnected = time.Now()
		c.loggedConnErr = false
		c.mu.Unlock()

		c.readLoop(conn)

		c.mu.Lock()
		c.connected = false
		c.conn = nil
		logged := c.loggedConnErr
		c.loggedConnErr = true
		c.mu.Unlock()
		if !logged {
			logger.WarnC(component, "Helper connection closed, reconnecting")
		}
		conn.Close()

		select {
		case <-c.closed:
			return
		case <-time.After(reconnectDelay):
		}
	}
}

// readLoop decodes frames and fans them out to every listener. A malformed
// frame is logged and dropped; the connection stays open.
func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var frame Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			logger.ErrorCF(component, "Dropping malformed helper frame", map[string]any{"error": err.Error()})
			continue
		}
		frame.Data, _ = convertWireValue(frame.Data).(map[string]any)
		c.dispatch(&frame)
	}
}

func (c *Client) dispatch(frame *Frame) {
	c.listenerMu.RLock()
	listeners := make([]Listener, 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	c.listenerMu.RUnlock()

	for _, l := range listeners {
		go func(l Listener) {
			defer func() {
				if r := recover(); r != nil {
					logger.ErrorCF(component, "Frame listener panicked", map[string]any{"panic": r})
				}
			}()
			l(frame)
		}(l)
	}
}

// monitor drives disconnect supervision: while connected it refreshes the
// last-connected mark and un-latches all watchers; while disconnected it
// fires each watcher at most once per episode.
func (c *Client) monitor() {
	ticker := time.NewTicker(monitorTick)
	defer ticker.Stop()
	for {
		select {
		case <-c.closed:
			return
		case <-ticker.C:
		}
		c.superviseOnce()
	}
}

func (c *Client) superviseOnce() {
	c.mu.Lock()
	connected := c.connected
	if connected {
		c.lastConnected = time.Now()
	}
	elapsed := time.Since(c.lastConnected)
	c.mu.Unlock()

	c.watcherMu.Lock()
	defer c.watcherMu.Unlock()
	if connected {
		for _, w := range c.watchers {
			w.triggered = false
		}
		return
	}
	for _, w := range c.watchers {
		if !w.triggered && elapsed >= w.timeout {
			w.triggered = true
			logger.WarnCF(component, "Disconnect watcher fired", map[string]any{
				"elapsed": elapsed.String(),
				"timeout": w.timeout.String(),
			})
			go w.callback(elapsed)
		}
	}
}
