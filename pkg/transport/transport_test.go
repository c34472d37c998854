package transport

import (
	"context"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// newHelperServer runs a fake kernel helper speaking the frame protocol.
// handler is invoked for every inbound frame with the live connection.
func newHelperServer(t *testing.T, handler func(conn *websocket.Conn, frame map[string]any)) (*httptest.Server, string) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			var frame map[string]any
			if err := conn.ReadJSON(&frame); err != nil {
				return
			}
			handler(conn, frame)
		}
	}))
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	return srv, wsURL
}

func frameEcho(frame map[string]any) string {
	data, _ := frame["data"].(map[string]any)
	echo, _ := data["echo"].(string)
	return echo
}

func TestCallRoundTrip(t *testing.T) {
	srv, wsURL := newHelperServer(t, func(conn *websocket.Conn, frame map[string]any) {
		if frame["type"] != "call" {
			return
		}
		conn.WriteJSON(map[string]any{
			"type": "call_ret",
			"data": map[string]any{
				"echo":   frameEcho(frame),
				"result": "pong",
			},
		})
	})
	defer srv.Close()

	c := NewClient(wsURL, srv.URL)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	result, err := c.Call(ctx, "ping", []any{"x"}, 0)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if result != "pong" {
		t.Errorf("expected pong, got %v", result)
	}
}

func TestCallTimeout(t *testing.T) {
	srv, wsURL := newHelperServer(t, func(conn *websocket.Conn, frame map[string]any) {
		// Never reply.
	})
	defer srv.Close()

	c := NewClient(wsURL, srv.URL)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := c.Call(ctx, "ping", nil, 200*time.Millisecond)
	if !errors.Is(err, ErrCallTimeout) {
		t.Fatalf("expected ErrCallTimeout, got %v", err)
	}
}

func TestCallMismatchedEchoIgnored(t *testing.T) {
	srv, wsURL := newHelperServer(t, func(conn *websocket.Conn, frame map[string]any) {
		// A response carrying the wrong correlation id must not satisfy
		// the pending call.
		conn.WriteJSON(map[string]any{
			"type": "call_ret",
			"data": map[string]any{"echo": "someone-else", "result": "wrong"},
		})
	})
	defer srv.Close()

	c := NewClient(wsURL, srv.URL)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := c.Call(ctx, "ping", nil, 200*time.Millisecond)
	if !errors.Is(err, ErrCallTimeout) {
		t.Fatalf("expected ErrCallTimeout, got %v", err)
	}
}

func TestSendPBRoundTrip(t *testing.T) {
	reply := hex.EncodeToString([]byte{0x08, 0x01})
	srv, wsURL := newHelperServer(t, func(conn *websocket.Conn, frame map[string]any) {
		if frame["type"] != "send" {
			return
		}
		conn.WriteJSON(map[string]any{
			"type": "send_ret",
			"data": map[string]any{"echo": frameEcho(frame), "pb": reply},
		})
	})
	defer srv.Close()

	c := NewClient(wsURL, srv.URL)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pb, err := c.SendPB(ctx, "Test.Cmd", []byte{0x0a})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(pb) != 2 || pb[0] != 0x08 || pb[1] != 0x01 {
		t.Errorf("reply payload: %x", pb)
	}
}

func TestSendPBHTTPFallback(t *testing.T) {
	httpSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"type":"send_ret","data":{"echo":"e","pb":"0801"}}`))
	}))
	defer httpSrv.Close()

	c := NewClient("ws://127.0.0.1:1/ws", httpSrv.URL)
	defer c.Close()

	pb, err := c.SendPBHTTP(context.Background(), "Test.Cmd", []byte{0x0a})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(pb) != 2 || pb[0] != 0x08 {
		t.Errorf("reply payload: %x", pb)
	}
}

func TestSendPBHTTPErrorStatus(t *testing.T) {
	httpSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer httpSrv.Close()

	c := NewClient("ws://127.0.0.1:1/ws", httpSrv.URL)
	defer c.Close()

	_, err := c.SendPBHTTP(context.Background(), "Test.Cmd", nil)
	var reqErr *RequestFailedError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected RequestFailedError, got %v", err)
	}
	if reqErr.Status != http.StatusBadGateway {
		t.Errorf("status: %d", reqErr.Status)
	}
}

func TestListenerReceivesPush(t *testing.T) {
	srv, wsURL := newHelperServer(t, func(conn *websocket.Conn, frame map[string]any) {
		if frame["type"] != "call" {
			return
		}
		// Reply, then push an unsolicited frame.
		conn.WriteJSON(map[string]any{
			"type": "call_ret",
			"data": map[string]any{"echo": frameEcho(frame), "result": true},
		})
		conn.WriteJSON(map[string]any{
			"type": "message_push",
			"data": map[string]any{"message": map[string]any{"msgId": "7001"}},
		})
	})
	defer srv.Close()

	c := NewClient(wsURL, srv.URL)
	defer c.Close()

	pushed := make(chan *Frame, 4)
	c.AddListener(func(f *Frame) {
		if f.Type == "message_push" {
			pushed <- f
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := c.Call(ctx, "subscribe", nil, 0); err != nil {
		t.Fatalf("call: %v", err)
	}

	select {
	case f := <-pushed:
		msg, _ := f.Data["message"].(map[string]any)
		if msg["msgId"] != "7001" {
			t.Errorf("push payload: %v", f.Data)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("push never delivered")
	}
}

func TestSuperviseOnceFiresOncePerEpisode(t *testing.T) {
	c := NewClient("ws://127.0.0.1:1/ws", "http://127.0.0.1:1/")
	defer c.Close()

	var fired atomic.Int32
	c.OnDisconnect(10*time.Millisecond, func(elapsed time.Duration) {
		fired.Add(1)
	})

	c.mu.Lock()
	c.connected = false
	c.lastConnected = time.Now().Add(-time.Second)
	c.mu.Unlock()

	c.superviseOnce()
	c.superviseOnce()
	time.Sleep(50 * time.Millisecond)
	if got := fired.Load(); got != 1 {
		t.Fatalf("expected exactly one firing per episode, got %d", got)
	}

	// A reconnection un-latches the watcher; the next outage fires again.
	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()
	c.superviseOnce()

	c.mu.Lock()
	c.connected = false
	c.lastConnected = time.Now().Add(-time.Second)
	c.mu.Unlock()
	c.superviseOnce()
	time.Sleep(50 * time.Millisecond)
	if got := fired.Load(); got != 2 {
		t.Fatalf("expected second firing after reconnect, got %d", got)
	}
}

func TestWireMapConversion(t *testing.T) {
	wire := map[string]any{
		"templParam": map[string]any{
			"__map__": []any{
				[]any{"invitor", "u_a"},
				[]any{"invitee", "u_b"},
			},
		},
		"plain": []any{"x", float64(1)},
	}
	converted, ok := convertWireValue(wire).(map[string]any)
	if !ok {
		t.Fatal("expected map result")
	}
	params, ok := converted["templParam"].(map[string]any)
	if !ok {
		t.Fatalf("expected converted map, got %T", converted["templParam"])
	}
	if params["invitor"] != "u_a" || params["invitee"] != "u_b" {
		t.Errorf("entries: %v", params)
	}
	if !reflect.DeepEqual(converted["plain"], []any{"x", float64(1)}) {
		t.Errorf("plain values must pass through: %v", converted["plain"])
	}
}

func TestWireMapFlatten(t *testing.T) {
	out := flattenWireValue(map[string]any{
		"args": []any{map[any]any{"k": "v"}},
	})
	args := out.(map[string]any)["args"].([]any)
	marker, ok := args[0].(map[string]any)
	if !ok {
		t.Fatalf("expected marker map, got %T", args[0])
	}
	pairs, ok := marker[mapMarker].([]any)
	if !ok || len(pairs) != 1 {
		t.Fatalf("marker shape: %v", marker)
	}
	pair := pairs[0].([]any)
	if pair[0] != "k" || pair[1] != "v" {
		t.Errorf("pair: %v", pair)
	}
}
