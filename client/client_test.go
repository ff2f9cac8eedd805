package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/albatross-rpc/client/core/transport"
)

// fakeNode 同时提供 JSON-RPC 与 /ws 订阅
type fakeNode struct {
	// closeAfterRequest 订阅请求后立即正常关闭连接
	closeAfterRequest bool

	mu  sync.Mutex
	ids []uint64
}

func (n *fakeNode) record(raw []byte) {
	var env struct {
		ID uint64 `json:"id"`
	}
	_ = json.Unmarshal(raw, &env)
	n.mu.Lock()
	n.ids = append(n.ids, env.ID)
	n.mu.Unlock()
}

func (n *fakeNode) seen() []uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]uint64(nil), n.ids...)
}

func (n *fakeNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/ws" {
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
		n.record(req)
		if n.closeAfterRequest {
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			time.Sleep(50 * time.Millisecond)
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"jsonrpc":"2.0","id":1,"result":7}`))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}

	body, _ := io.ReadAll(r.Body)
	n.record(body)
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, `{"jsonrpc":"2.0","id":0,"result":{"data":1234,"metadata":null}}`)
}

func newTestClient(t *testing.T) (*Client, *fakeNode) {
	t.Helper()
	return newTestClientFor(t, &fakeNode{})
}

func newTestClientFor(t *testing.T, node *fakeNode) (*Client, *fakeNode) {
	t.Helper()
	ts := httptest.NewServer(node)
	t.Cleanup(ts.Close)

	c, err := New(ts.URL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, node
}

func TestNew_Endpoints(t *testing.T) {
	c, err := New("https://node.example:8648")
	require.NoError(t, err)
	assert.Equal(t, "https://node.example:8648", c.Endpoint())
	assert.True(t, strings.HasPrefix(c.StreamURL(), "wss://node.example:8648/ws"))

	_, err = New("not a url")
	assert.Error(t, err)
}

func TestClient_SharedIDsAcrossGateways(t *testing.T) {
	c, node := newTestClient(t)
	ctx := context.Background()

	res, err := c.Blockchain().GetBlockNumber(ctx)
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, uint32(1234), res.Data)

	stream, err := c.Blockchain().SubscribeForBlockHashes(ctx, transport.StreamOptions{})
	require.NoError(t, err)
	defer stream.Close()

	require.Eventually(t, func() bool { return len(node.seen()) == 2 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, []uint64{0, 1}, node.seen())
	assert.Equal(t, uint64(2), c.IDs().Peek())
}

func TestClient_CloseEndsSubscriptions(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	sub, err := c.Subscribe(ctx, transport.SubscriptionRequest{Method: "subscribeForHeadBlockHash"}, transport.StreamOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, c.OpenSubscriptions())

	require.NoError(t, c.Close())
	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("subscription still open after client close")
	}
	require.Eventually(t, func() bool { return c.OpenSubscriptions() == 0 }, time.Second, 10*time.Millisecond)

	require.NoError(t, c.Close())

	_, err = c.Call(ctx, transport.CallRequest{Method: "getBlockNumber"}, transport.CallOptions{})
	assert.ErrorIs(t, err, ErrClosed)
	_, err = c.Subscribe(ctx, transport.SubscriptionRequest{Method: "subscribeForHeadBlockHash"}, transport.StreamOptions{})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestClient_SubscriptionClosedByCaller(t *testing.T) {
	c, _ := newTestClient(t)

	sub, err := c.Subscribe(context.Background(), transport.SubscriptionRequest{Method: "subscribeForHeadBlockHash"}, transport.StreamOptions{})
	require.NoError(t, err)
	require.NoError(t, sub.Close())

	require.Eventually(t, func() bool { return c.OpenSubscriptions() == 0 }, time.Second, 10*time.Millisecond)
}

func TestClient_RemoteCloseBeforeNext(t *testing.T) {
	c, _ := newTestClientFor(t, &fakeNode{closeAfterRequest: true})

	sub, err := c.Subscribe(context.Background(), transport.SubscriptionRequest{Method: "subscribeForHeadBlockHash"}, transport.StreamOptions{})
	require.NoError(t, err)

	// 没有读循环，远端关闭不可见，订阅仍计入直到 Close
	select {
	case <-sub.Done():
		t.Fatal("subscription finished without reading")
	case <-time.After(200 * time.Millisecond):
	}
	assert.Equal(t, 1, c.OpenSubscriptions())

	require.NoError(t, c.Close())
	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("subscription still open after client close")
	}
	assert.Equal(t, 0, c.OpenSubscriptions())
}

func TestClient_RemoteCloseAfterNextIsPruned(t *testing.T) {
	c, _ := newTestClientFor(t, &fakeNode{closeAfterRequest: true})

	sub, err := c.Subscribe(context.Background(), transport.SubscriptionRequest{Method: "subscribeForHeadBlockHash"}, transport.StreamOptions{})
	require.NoError(t, err)
	require.NoError(t, sub.Next(func(transport.StreamNotification) {}))

	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("remote close not observed by the read loop")
	}
	assert.Equal(t, 0, c.OpenSubscriptions())
}
