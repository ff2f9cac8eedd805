package transport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingServer 记录请求体并返回固定响应
type recordingServer struct {
	mu       sync.Mutex
	bodies   [][]byte
	headers  []http.Header
	status   int
	response string
	delay    time.Duration
}

func (s *recordingServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	s.mu.Lock()
	s.bodies = append(s.bodies, body)
	s.headers = append(s.headers, r.Header.Clone())
	status, response, delay := s.status, s.response, s.delay
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = io.WriteString(w, response)
}

func (s *recordingServer) envelope(t *testing.T, i int) map[string]json.RawMessage {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.Greater(t, len(s.bodies), i)
	var env map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(s.bodies[i], &env))
	return env
}

func newTestCaller(t *testing.T, srv *recordingServer, opts ...Option) *JSONRPCClient {
	t.Helper()
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	c, err := NewJSONRPCClient(ts.URL, opts...)
	require.NoError(t, err)
	return c
}

func TestCall_ResultNormalization(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		response     string
		withMetadata bool
		wantData     string
		wantMetadata string
		wantCode     int
		wantMessage  string
	}{
		{
			name:     "data without metadata",
			response: `{"jsonrpc":"2.0","id":0,"result":{"data":12345,"metadata":null}}`,
			wantData: `12345`,
		},
		{
			name:         "null metadata yields bare data",
			response:     `{"jsonrpc":"2.0","id":0,"result":{"data":"abc","metadata":null}}`,
			withMetadata: true,
			wantData:     `"abc"`,
		},
		{
			name:         "metadata surfaced with full result",
			response:     `{"jsonrpc":"2.0","id":0,"result":{"data":5,"metadata":{"blockNumber":10,"blockHash":"aa"}}}`,
			withMetadata: true,
			wantData:     `{"data":5,"metadata":{"blockNumber":10,"blockHash":"aa"}}`,
			wantMetadata: `{"blockNumber":10,"blockHash":"aa"}`,
		},
		{
			name:     "metadata ignored when not requested",
			response: `{"jsonrpc":"2.0","id":0,"result":{"data":5,"metadata":{"blockNumber":10,"blockHash":"aa"}}}`,
			wantData: `5`,
		},
		{
			name:     "missing data field",
			response: `{"jsonrpc":"2.0","id":0,"result":{}}`,
			wantData: `null`,
		},
		{
			name:     "non-object result returned as is",
			response: `{"jsonrpc":"2.0","id":0,"result":[1,2]}`,
			wantData: `[1,2]`,
		},
		{
			name:        "rpc error with string data",
			response:    `{"jsonrpc":"2.0","id":0,"error":{"code":-32601,"message":"Method not found","data":"getFoo"}}`,
			wantCode:    -32601,
			wantMessage: "Method not found: getFoo",
		},
		{
			name:        "rpc error without data",
			response:    `{"jsonrpc":"2.0","id":0,"error":{"code":-32000,"message":"boom"}}`,
			wantCode:    -32000,
			wantMessage: "boom: null",
		},
		{
			name:        "rpc error with object data",
			response:    `{"jsonrpc":"2.0","id":0,"error":{"code":-32602,"message":"Invalid params","data":{"index": 1}}}`,
			wantCode:    -32602,
			wantMessage: `Invalid params: {"index":1}`,
		},
		{
			name:        "unauthorized ignores body",
			status:      http.StatusUnauthorized,
			response:    `{"jsonrpc":"2.0","id":0,"result":{"data":1}}`,
			wantCode:    401,
			wantMessage: MessageUnauthorized,
		},
		{
			name:        "non-2xx status",
			status:      http.StatusServiceUnavailable,
			response:    `down`,
			wantCode:    503,
			wantMessage: "Response status code not OK: 503 Service Unavailable",
		},
		{
			name:        "non-json body",
			response:    `hello`,
			wantCode:    CodeUnexpectedFormat,
			wantMessage: "Unexpected format of data hello",
		},
		{
			name:        "neither result nor error",
			response:    `{"jsonrpc":"2.0","id":0}`,
			wantCode:    CodeUnexpectedFormat,
			wantMessage: `Unexpected format of data {"jsonrpc":"2.0","id":0}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := &recordingServer{status: tt.status, response: tt.response}
			c := newTestCaller(t, srv)

			res, err := c.Call(context.Background(), CallRequest{Method: "getBlockNumber", WithMetadata: tt.withMetadata}, DefaultCallOptions)
			require.NoError(t, err)

			if tt.wantMessage != "" {
				require.NotNil(t, res.Error)
				assert.False(t, res.OK())
				assert.Nil(t, res.Data)
				assert.Equal(t, tt.wantCode, res.Error.Code)
				assert.Equal(t, tt.wantMessage, res.Error.Message)
				return
			}

			require.Nil(t, res.Error)
			assert.JSONEq(t, tt.wantData, string(res.Data))
			if tt.wantMetadata == "" {
				assert.Nil(t, res.Metadata)
			} else {
				assert.JSONEq(t, tt.wantMetadata, string(res.Metadata))
			}
		})
	}
}

func TestCall_EnvelopeAndIDs(t *testing.T) {
	srv := &recordingServer{response: `{"jsonrpc":"2.0","id":0,"result":{"data":true}}`}
	c := newTestCaller(t, srv)
	ctx := context.Background()

	first, err := c.Call(ctx, CallRequest{Method: "getBlockByNumber", Params: []any{1, nil, 3}}, DefaultCallOptions)
	require.NoError(t, err)
	second, err := c.Call(ctx, CallRequest{Method: "getPeerCount"}, DefaultCallOptions)
	require.NoError(t, err)

	assert.Equal(t, uint64(0), first.Context.Body.ID)
	assert.Equal(t, uint64(1), second.Context.Body.ID)
	assert.NotEqual(t, first.Context.CorrelationID, second.Context.CorrelationID)

	env := srv.envelope(t, 0)
	assert.JSONEq(t, `"2.0"`, string(env["jsonrpc"]))
	assert.JSONEq(t, `"getBlockByNumber"`, string(env["method"]))
	assert.JSONEq(t, `[1,null,3]`, string(env["params"]))
	assert.JSONEq(t, `0`, string(env["id"]))

	env = srv.envelope(t, 1)
	assert.JSONEq(t, `[]`, string(env["params"]))
	assert.JSONEq(t, `1`, string(env["id"]))
}

func TestCall_SharedIDCounter(t *testing.T) {
	srv := &recordingServer{response: `{"result":{"data":1}}`}
	ids := NewIDCounter()
	a := newTestCaller(t, srv, WithIDCounter(ids))
	b := newTestCaller(t, srv, WithIDCounter(ids))

	ra, err := a.Call(context.Background(), CallRequest{Method: "a"}, DefaultCallOptions)
	require.NoError(t, err)
	rb, err := b.Call(context.Background(), CallRequest{Method: "b"}, DefaultCallOptions)
	require.NoError(t, err)

	assert.Equal(t, uint64(0), ra.Context.Body.ID)
	assert.Equal(t, uint64(1), rb.Context.Body.ID)
	assert.Equal(t, uint64(2), ids.Peek())
}

func TestCall_Headers(t *testing.T) {
	tests := []struct {
		name string
		auth *Auth
		want string
	}{
		{"no auth", nil, ""},
		{"basic", &Auth{Username: "user", Password: "pass"}, "Basic dXNlcjpwYXNz"},
		{"bearer", &Auth{Secret: "s3cret"}, "Bearer s3cret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := &recordingServer{response: `{"result":{"data":1}}`}
			c := newTestCaller(t, srv, WithAuth(tt.auth))

			res, err := c.Call(context.Background(), CallRequest{Method: "getBlockNumber"}, DefaultCallOptions)
			require.NoError(t, err)
			require.True(t, res.OK())

			srv.mu.Lock()
			h := srv.headers[0]
			srv.mu.Unlock()
			assert.Equal(t, "application/json", h.Get("Content-Type"))
			assert.Equal(t, tt.want, h.Get("Authorization"))
			assert.Equal(t, tt.want, res.Context.Headers.Get("Authorization"))
		})
	}
}

func TestCall_Timeout(t *testing.T) {
	srv := &recordingServer{response: `{"result":{"data":1}}`, delay: 2 * time.Second}
	c := newTestCaller(t, srv)

	start := time.Now()
	res, err := c.Call(context.Background(), CallRequest{Method: "getBlockNumber"}, CallOptions{Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	assert.Less(t, time.Since(start), time.Second)
	require.NotNil(t, res.Error)
	assert.True(t, res.Error.IsTimeout())
	assert.Equal(t, CodeTimeout, res.Error.Code)
	assert.Equal(t, "Request timed out after 50ms", res.Error.Message)
}

func TestCall_NoTimeout(t *testing.T) {
	srv := &recordingServer{response: `{"result":{"data":1}}`, delay: 100 * time.Millisecond}
	c := newTestCaller(t, srv, WithDefaultTimeout(10*time.Millisecond))

	res, err := c.Call(context.Background(), CallRequest{Method: "getBlockNumber"}, CallOptions{Timeout: NoTimeout})
	require.NoError(t, err)
	require.Nil(t, res.Error)
	assert.JSONEq(t, `1`, string(res.Data))
}

func TestCall_Canceled(t *testing.T) {
	srv := &recordingServer{response: `{"result":{"data":1}}`, delay: 2 * time.Second}
	c := newTestCaller(t, srv)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	res, err := c.Call(ctx, CallRequest{Method: "getBlockNumber"}, DefaultCallOptions)
	require.NoError(t, err)
	require.NotNil(t, res.Error)
	assert.Equal(t, CodeTransport, res.Error.Code)
}

func TestCall_ConnectionRefused(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c, err := NewJSONRPCClient(url)
	require.NoError(t, err)

	res, err := c.Call(context.Background(), CallRequest{Method: "getBlockNumber"}, DefaultCallOptions)
	require.NoError(t, err)
	require.NotNil(t, res.Error)
	assert.Equal(t, CodeTransport, res.Error.Code)
	assert.True(t, res.Error.IsTransport())
}

func TestCall_InvalidRequest(t *testing.T) {
	srv := &recordingServer{response: `{"result":{"data":1}}`}
	c := newTestCaller(t, srv)

	_, err := c.Call(context.Background(), CallRequest{Method: "  "}, DefaultCallOptions)
	assert.ErrorIs(t, err, ErrEmptyMethod)

	_, err = c.Call(context.Background(), CallRequest{Method: "x", Params: []any{func() {}}}, DefaultCallOptions)
	assert.Error(t, err)

	// 非法请求不消耗 ID
	assert.Equal(t, uint64(0), c.IDs().Peek())
}

func TestCall_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	srv := &recordingServer{response: `{"result":{"data":1}}`}
	c := newTestCaller(t, srv, WithMetrics(m))

	for i := 0; i < 3; i++ {
		_, err := c.Call(context.Background(), CallRequest{Method: "getBlockNumber"}, DefaultCallOptions)
		require.NoError(t, err)
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(m.calls.WithLabelValues("getBlockNumber", outcomeOK)))
}

func TestCall_RateLimitWaitPastDeadline(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	srv := &recordingServer{response: `{"result":{"data":1}}`}
	c := newTestCaller(t, srv, WithRateLimit(0.01, 1), WithMetrics(m))

	first, err := c.Call(context.Background(), CallRequest{Method: "getBlockNumber"}, DefaultCallOptions)
	require.NoError(t, err)
	require.True(t, first.OK())

	start := time.Now()
	second, err := c.Call(context.Background(), CallRequest{Method: "getBlockNumber"}, CallOptions{Timeout: 50 * time.Millisecond})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)

	require.NotNil(t, second.Error)
	assert.Equal(t, CodeTimeout, second.Error.Code)
	assert.Equal(t, "Request timed out after 50ms", second.Error.Message)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues("getBlockNumber", outcomeTimeout)))

	// 限流期间的请求不会发出
	srv.mu.Lock()
	defer srv.mu.Unlock()
	assert.Len(t, srv.bodies, 1)
}

func TestCall_RateLimitCanceled(t *testing.T) {
	srv := &recordingServer{response: `{"result":{"data":1}}`}
	c := newTestCaller(t, srv, WithRateLimit(0.01, 1))

	_, err := c.Call(context.Background(), CallRequest{Method: "getBlockNumber"}, DefaultCallOptions)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := c.Call(ctx, CallRequest{Method: "getBlockNumber"}, CallOptions{Timeout: NoTimeout})
	require.NoError(t, err)
	require.NotNil(t, res.Error)
	assert.Equal(t, CodeTransport, res.Error.Code)
}

func TestRenderErrorData(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"absent", ``, "null"},
		{"null", `null`, "null"},
		{"string", `"bad params"`, "bad params"},
		{"number", `3`, "3"},
		{"object", `{ "field" : "fee" }`, `{"field":"fee"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, renderErrorData(json.RawMessage(tt.data)))
		})
	}
}

func TestNewMetrics_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewMetrics(reg)
	require.NoError(t, err)
	second, err := NewMetrics(reg)
	require.NoError(t, err)

	second.calls.WithLabelValues("getBlockNumber", outcomeOK).Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(first.calls.WithLabelValues("getBlockNumber", outcomeOK)))
	assert.Same(t, first.calls, second.calls)
}

func TestNewJSONRPCClient_InvalidURL(t *testing.T) {
	for _, raw := range []string{"ftp://node", "http://", "::bad"} {
		_, err := NewJSONRPCClient(raw)
		assert.Error(t, err, raw)
	}
}

func TestCallResult_Decode(t *testing.T) {
	res := &CallResult{Data: json.RawMessage(`{"blockNumber":7,"blockHash":"ff"}`)}
	var state BlockchainState
	require.NoError(t, res.Decode(&state))
	assert.Equal(t, uint32(7), state.BlockNumber)

	failed := &CallResult{Error: NewCallError(CodeTimeout, "late")}
	err := failed.Decode(&state)
	var cerr *CallError
	require.ErrorAs(t, err, &cerr)
	assert.True(t, cerr.IsTimeout())

	meta, err := DecodeMetadata(json.RawMessage(`{"blockNumber":3,"blockHash":"aa"}`))
	require.NoError(t, err)
	assert.Equal(t, "aa", meta.BlockHash)

	meta, err = DecodeMetadata(nil)
	require.NoError(t, err)
	assert.Nil(t, meta)
}
