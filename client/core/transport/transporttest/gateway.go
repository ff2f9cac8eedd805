// Package transporttest provides an in-memory transport.Gateway for testing façade code.
package transporttest

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/weisyn/albatross-rpc/client/core/transport"
)

// ErrNoStream 内存网关不建立真实的订阅连接
var ErrNoStream = errors.New("transporttest: subscriptions are recorded but not opened")

// Gateway 记录请求并返回预设响应
type Gateway struct {
	mu            sync.Mutex
	calls         []transport.CallRequest
	callOptions   []transport.CallOptions
	subscriptions []transport.SubscriptionRequest
	responses     map[string]*transport.CallResult
}

// New 创建内存网关
func New() *Gateway {
	return &Gateway{responses: make(map[string]*transport.CallResult)}
}

// Respond 为方法预设成功响应，data 为 JSON 文本
func (g *Gateway) Respond(method, data string) *Gateway {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.responses[method] = &transport.CallResult{Data: json.RawMessage(data)}
	return g
}

// RespondError 为方法预设失败响应
func (g *Gateway) RespondError(method string, code int, message string) *Gateway {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.responses[method] = &transport.CallResult{Error: transport.NewCallError(code, message)}
	return g
}

// Call 记录请求，未预设的方法返回 data=null
func (g *Gateway) Call(_ context.Context, req transport.CallRequest, opts transport.CallOptions) (*transport.CallResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := uint64(len(g.calls))
	g.calls = append(g.calls, req)
	g.callOptions = append(g.callOptions, opts)

	res := transport.CallResult{Data: json.RawMessage("null")}
	if preset, ok := g.responses[req.Method]; ok {
		res = *preset
	}
	res.Context = transport.RequestContext{
		Body: transport.Envelope{JSONRPC: "2.0", Method: req.Method, Params: req.Params, ID: id},
		URL:  "memory://gateway",
	}
	return &res, nil
}

// Subscribe 记录请求并返回 ErrNoStream
func (g *Gateway) Subscribe(_ context.Context, req transport.SubscriptionRequest, _ transport.StreamOptions) (*transport.Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.subscriptions = append(g.subscriptions, req)
	return nil, ErrNoStream
}

// Calls 已记录的调用
func (g *Gateway) Calls() []transport.CallRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]transport.CallRequest(nil), g.calls...)
}

// LastCall 最近一次调用，没有时返回零值
func (g *Gateway) LastCall() transport.CallRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.calls) == 0 {
		return transport.CallRequest{}
	}
	return g.calls[len(g.calls)-1]
}

// LastCallOptions 最近一次调用的选项
func (g *Gateway) LastCallOptions() transport.CallOptions {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.callOptions) == 0 {
		return transport.CallOptions{}
	}
	return g.callOptions[len(g.callOptions)-1]
}

// LastSubscription 最近一次订阅请求
func (g *Gateway) LastSubscription() transport.SubscriptionRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.subscriptions) == 0 {
		return transport.SubscriptionRequest{}
	}
	return g.subscriptions[len(g.subscriptions)-1]
}

var _ transport.Gateway = (*Gateway)(nil)
