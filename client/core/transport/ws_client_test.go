package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wsScript 测试节点：读取订阅请求后依次发送帧
type wsScript struct {
	frames []wsFrame
	// hold 发送完后保持连接直到客户端关闭
	hold bool
	// abort 发送完后直接断开 TCP 连接
	abort bool

	mu      sync.Mutex
	path    string
	header  http.Header
	request []byte
}

type wsFrame struct {
	messageType int
	payload     string
}

func text(s string) wsFrame   { return wsFrame{websocket.TextMessage, s} }
func binary(s string) wsFrame { return wsFrame{websocket.BinaryMessage, s} }

func (s *wsScript) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	_, req, err := conn.ReadMessage()
	if err != nil {
		return
	}
	s.mu.Lock()
	s.path = r.URL.Path
	s.header = r.Header.Clone()
	s.request = req
	s.mu.Unlock()

	for _, f := range s.frames {
		if err := conn.WriteMessage(f.messageType, []byte(f.payload)); err != nil {
			return
		}
	}

	switch {
	case s.abort:
		_ = conn.UnderlyingConn().Close()
	case s.hold:
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	default:
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		time.Sleep(50 * time.Millisecond)
	}
}

func newTestSubscriber(t *testing.T, script *wsScript, opts ...Option) *WebSocketClient {
	t.Helper()
	ts := httptest.NewServer(script)
	t.Cleanup(ts.Close)
	c, err := NewWebSocketClient(ts.URL, opts...)
	require.NoError(t, err)
	return c
}

// collect 收集通知直到订阅结束
func collect(t *testing.T, sub *Subscription) []StreamNotification {
	t.Helper()
	var (
		mu  sync.Mutex
		got []StreamNotification
	)
	require.NoError(t, sub.Next(func(n StreamNotification) {
		mu.Lock()
		got = append(got, n)
		mu.Unlock()
	}))

	select {
	case <-sub.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("subscription did not finish")
	}

	mu.Lock()
	defer mu.Unlock()
	return got
}

func TestSubscribe_AckThenNotification(t *testing.T) {
	script := &wsScript{frames: []wsFrame{
		text(`{"jsonrpc":"2.0","id":0,"result":42}`),
		text(`{"jsonrpc":"2.0","method":"subscribeForHeadBlockHash","params":{"subscription":42,"result":{"data":"hello","metadata":null}}}`),
	}}
	c := newTestSubscriber(t, script)

	sub, err := c.Subscribe(context.Background(), SubscriptionRequest{Method: "subscribeForHeadBlockHash"}, DefaultStreamOptions)
	require.NoError(t, err)

	id, ok := sub.SubscriptionID()
	assert.False(t, ok)
	assert.Equal(t, int64(-1), id)

	got := collect(t, sub)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].Error)
	assert.JSONEq(t, `"hello"`, string(got[0].Data))
	assert.Nil(t, got[0].Metadata)

	id, ok = sub.SubscriptionID()
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)

	script.mu.Lock()
	defer script.mu.Unlock()
	assert.Equal(t, "/ws", script.path)
	var env map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(script.request, &env))
	assert.JSONEq(t, `"subscribeForHeadBlockHash"`, string(env["method"]))
	assert.JSONEq(t, `[]`, string(env["params"]))
	assert.JSONEq(t, `0`, string(env["id"]))
}

func TestSubscribe_Metadata(t *testing.T) {
	script := &wsScript{frames: []wsFrame{
		text(`{"params":{"result":{"data":{"number":5},"metadata":{"blockNumber":5,"blockHash":"ab"}}}}`),
	}}
	c := newTestSubscriber(t, script)

	sub, err := c.Subscribe(context.Background(), SubscriptionRequest{Method: "subscribeForHeadBlock", Params: []any{false}, WithMetadata: true}, DefaultStreamOptions)
	require.NoError(t, err)

	got := collect(t, sub)
	require.Len(t, got, 1)
	assert.JSONEq(t, `{"data":{"number":5},"metadata":{"blockNumber":5,"blockHash":"ab"}}`, string(got[0].Data))
	meta, err := DecodeMetadata(got[0].Metadata)
	require.NoError(t, err)
	assert.Equal(t, uint32(5), meta.BlockNumber)
}

func TestSubscribe_Once(t *testing.T) {
	script := &wsScript{hold: true, frames: []wsFrame{
		text(`{"params":{"result":{"data":1}}}`),
		text(`{"params":{"result":{"data":2}}}`),
		text(`{"params":{"result":{"data":3}}}`),
	}}
	c := newTestSubscriber(t, script)

	sub, err := c.Subscribe(context.Background(), SubscriptionRequest{Method: "subscribeForHeadBlockHash"}, StreamOptions{Once: true})
	require.NoError(t, err)

	got := collect(t, sub)
	require.Len(t, got, 1)
	assert.JSONEq(t, `1`, string(got[0].Data))
}

func TestSubscribe_FilterRejectsAllKeepsConnectionOpen(t *testing.T) {
	script := &wsScript{hold: true, frames: []wsFrame{
		text(`{"jsonrpc":"2.0","id":0,"result":42}`),
		text(`{"params":{"result":{"data":1}}}`),
		text(`{"params":{"result":{"data":2}}}`),
	}}
	c := newTestSubscriber(t, script)

	reject := func(json.RawMessage) bool { return false }
	sub, err := c.Subscribe(context.Background(), SubscriptionRequest{Method: "subscribeForHeadBlockHash"}, StreamOptions{Filter: reject})
	require.NoError(t, err)

	var calls atomic.Int32
	require.NoError(t, sub.Next(func(StreamNotification) { calls.Add(1) }))

	require.Eventually(t, func() bool {
		_, ok := sub.SubscriptionID()
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	select {
	case <-sub.Done():
		t.Fatal("subscription finished while the node kept the connection open")
	case <-time.After(200 * time.Millisecond):
	}
	assert.Equal(t, int32(0), calls.Load())
	id, ok := sub.SubscriptionID()
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)

	require.NoError(t, sub.Close())
	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("subscription did not finish after Close")
	}
	assert.Equal(t, int32(0), calls.Load())
}

func TestSubscribe_FilterSelects(t *testing.T) {
	script := &wsScript{frames: []wsFrame{
		text(`{"params":{"result":{"data":1}}}`),
		text(`{"params":{"result":{"data":2}}}`),
		text(`{"params":{"result":{"data":3}}}`),
	}}
	c := newTestSubscriber(t, script)

	odd := func(data json.RawMessage) bool {
		var n int
		return json.Unmarshal(data, &n) == nil && n%2 == 1
	}
	sub, err := c.Subscribe(context.Background(), SubscriptionRequest{Method: "subscribeForHeadBlockHash"}, StreamOptions{Filter: odd})
	require.NoError(t, err)

	got := collect(t, sub)
	require.Len(t, got, 2)
	assert.JSONEq(t, `1`, string(got[0].Data))
	assert.JSONEq(t, `3`, string(got[1].Data))
}

func TestSubscribe_ErrorFrame(t *testing.T) {
	script := &wsScript{frames: []wsFrame{
		text(`{"jsonrpc":"2.0","id":0,"error":{"code":-32602,"message":"Invalid params"}}`),
	}}
	c := newTestSubscriber(t, script)

	sub, err := c.Subscribe(context.Background(), SubscriptionRequest{Method: "subscribeForValidatorElectionByAddress"}, StreamOptions{Once: true})
	require.NoError(t, err)

	got := collect(t, sub)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].Error)
	assert.Equal(t, -32602, got[0].Error.Code)
	assert.Equal(t, "Invalid params", got[0].Error.Message)
	assert.Nil(t, got[0].Data)
}

func TestSubscribe_DropsMalformedFrames(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	script := &wsScript{frames: []wsFrame{
		text(`not json`),
		text(`{"result":"abc"}`),
		text(`{"result":7}`),
		text(`{"result":8}`),
		text(`{"params":{}}`),
		binary(`{"params":{"result":{"data":"bin"}}}`),
		binary("\xff\xfe"),
	}}
	c := newTestSubscriber(t, script, WithMetrics(m))

	sub, err := c.Subscribe(context.Background(), SubscriptionRequest{Method: "subscribeForHeadBlockHash"}, DefaultStreamOptions)
	require.NoError(t, err)

	got := collect(t, sub)
	require.Len(t, got, 1)
	assert.JSONEq(t, `"bin"`, string(got[0].Data))

	id, ok := sub.SubscriptionID()
	assert.True(t, ok)
	assert.Equal(t, int64(7), id)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.droppedFrames.WithLabelValues(dropMalformed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.droppedFrames.WithLabelValues(dropBadAck)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.droppedFrames.WithLabelValues(dropDuplicateAck)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.droppedFrames.WithLabelValues(dropNoResult)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.droppedFrames.WithLabelValues(dropUndecodable)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.activeSubs))
}

func TestSubscribe_AbnormalDisconnect(t *testing.T) {
	script := &wsScript{abort: true, frames: []wsFrame{
		text(`{"params":{"result":{"data":1}}}`),
	}}
	c := newTestSubscriber(t, script)

	sub, err := c.Subscribe(context.Background(), SubscriptionRequest{Method: "subscribeForHeadBlockHash"}, DefaultStreamOptions)
	require.NoError(t, err)

	got := collect(t, sub)
	require.Len(t, got, 2)
	assert.JSONEq(t, `1`, string(got[0].Data))
	require.NotNil(t, got[1].Error)
	assert.Equal(t, CodeTransport, got[1].Error.Code)
}

func TestSubscribe_CloseIsIdempotent(t *testing.T) {
	script := &wsScript{hold: true}
	c := newTestSubscriber(t, script)

	sub, err := c.Subscribe(context.Background(), SubscriptionRequest{Method: "subscribeForHeadBlockHash"}, DefaultStreamOptions)
	require.NoError(t, err)
	require.NoError(t, sub.Next(func(StreamNotification) {
		t.Error("no notification expected")
	}))

	assert.NoError(t, sub.Close())
	assert.NotPanics(t, func() { _ = sub.Close() })

	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("done not closed")
	}

	// 关闭后再次注册回调是空操作
	assert.NoError(t, sub.Next(func(StreamNotification) {}))
}

func TestSubscribe_AuthHeaderAndSharedIDs(t *testing.T) {
	script := &wsScript{}
	ids := NewIDCounter()
	ids.Next()
	c := newTestSubscriber(t, script, WithAuth(&Auth{Username: "user", Password: "pass"}), WithIDCounter(ids))

	sub, err := c.Subscribe(context.Background(), SubscriptionRequest{Method: "subscribeForHeadBlockHash", Params: []any{nil, "x"}}, DefaultStreamOptions)
	require.NoError(t, err)
	collect(t, sub)

	assert.Equal(t, uint64(1), sub.Context().Body.ID)
	assert.True(t, strings.HasPrefix(sub.Context().URL, "ws://"))

	script.mu.Lock()
	defer script.mu.Unlock()
	assert.Equal(t, "Basic dXNlcjpwYXNz", script.header.Get("Authorization"))
	var env map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(script.request, &env))
	assert.JSONEq(t, `[null,"x"]`, string(env["params"]))
}

func TestSubscribe_DialFailure(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c, err := NewWebSocketClient(url)
	require.NoError(t, err)

	sub, err := c.Subscribe(context.Background(), SubscriptionRequest{Method: "subscribeForHeadBlockHash"}, DefaultStreamOptions)
	assert.Nil(t, sub)
	var cerr *CallError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, CodeTransport, cerr.Code)
}

func TestSubscribe_InvalidRequest(t *testing.T) {
	c := newTestSubscriber(t, &wsScript{})

	_, err := c.Subscribe(context.Background(), SubscriptionRequest{}, DefaultStreamOptions)
	assert.ErrorIs(t, err, ErrEmptyMethod)
}

func TestWebsocketURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"http://localhost:8648", "ws://localhost:8648/ws", false},
		{"https://node.example.com/rpc", "wss://node.example.com/ws", false},
		{"http://127.0.0.1:8648/", "ws://127.0.0.1:8648/ws", false},
		{"ftp://node", "", true},
		{"http://", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			u, err := websocketURL(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, u.String())
		})
	}
}

func TestClassifyFrame(t *testing.T) {
	tests := []struct {
		name         string
		payload      string
		withMetadata bool
		wantKind     frameKind
		wantData     string
		wantMetadata string
	}{
		{"ack", `{"result":1}`, false, frameAck, "", ""},
		{"error", `{"error":{"code":1,"message":"m"}}`, false, frameError, "", ""},
		{"data", `{"params":{"result":{"data":[1]}}}`, false, frameNotification, `[1]`, ""},
		{"missing data", `{"params":{"result":{"metadata":null}}}`, false, frameNotification, `null`, ""},
		{"metadata", `{"params":{"result":{"data":1,"metadata":{"blockNumber":1}}}}`, true, frameNotification, `{"data":1,"metadata":{"blockNumber":1}}`, `{"blockNumber":1}`},
		{"null metadata", `{"params":{"result":{"data":1,"metadata":null}}}`, true, frameNotification, `{"data":1,"metadata":null}`, ""},
		{"no params", `{"method":"x"}`, false, frameDrop, "", ""},
		{"array", `[1,2]`, false, frameDrop, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := classifyFrame([]byte(tt.payload), tt.withMetadata)
			require.Equal(t, tt.wantKind, f.kind, f.kind.String())
			if tt.wantData != "" {
				assert.JSONEq(t, tt.wantData, string(f.data))
			}
			if tt.wantMetadata != "" {
				assert.JSONEq(t, tt.wantMetadata, string(f.metadata))
			} else {
				assert.Nil(t, f.metadata)
			}
		})
	}
}
