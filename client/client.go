// Package client is the entry point for talking to an Albatross node over JSON-RPC and WebSocket.
package client

import (
	"context"
	"errors"
	"sync"

	"github.com/weisyn/albatross-rpc/client/core/blockchain"
	"github.com/weisyn/albatross-rpc/client/core/consensus"
	"github.com/weisyn/albatross-rpc/client/core/mempool"
	"github.com/weisyn/albatross-rpc/client/core/network"
	"github.com/weisyn/albatross-rpc/client/core/policy"
	"github.com/weisyn/albatross-rpc/client/core/transport"
	"github.com/weisyn/albatross-rpc/client/core/validator"
	"github.com/weisyn/albatross-rpc/client/core/wallet"
	"github.com/weisyn/albatross-rpc/client/core/zkp"
)

// ErrClosed 客户端已关闭
var ErrClosed = errors.New("client is closed")

// Client 节点客户端 - 统一的客户端入口
// 调用与订阅共用一个请求 ID 计数器，各门面服务共享同一个网关
type Client struct {
	calls   *transport.JSONRPCClient
	streams *transport.WebSocketClient
	ids     *transport.IDCounter

	mu     sync.Mutex
	open   map[*transport.Subscription]struct{}
	closed bool

	blockchain *blockchain.Service
	consensus  *consensus.Service
	mempool    *mempool.Service
	network    *network.Service
	policy     *policy.Service
	validator  *validator.Service
	wallet     *wallet.Service
	zkp        *zkp.Service
}

var _ transport.Gateway = (*Client)(nil)

// New 创建客户端
// nodeURL 为节点的 HTTP(S) 地址，订阅地址由它推导
func New(nodeURL string, opts ...transport.Option) (*Client, error) {
	ids := transport.NewIDCounter()
	opts = append([]transport.Option{transport.WithIDCounter(ids)}, opts...)

	calls, err := transport.NewJSONRPCClient(nodeURL, opts...)
	if err != nil {
		return nil, err
	}
	streams, err := transport.NewWebSocketClient(nodeURL, opts...)
	if err != nil {
		return nil, err
	}

	c := &Client{
		calls:   calls,
		streams: streams,
		ids:     calls.IDs(),
		open:    make(map[*transport.Subscription]struct{}),
	}
	c.blockchain = blockchain.NewService(c)
	c.consensus = consensus.NewService(c)
	c.mempool = mempool.NewService(c)
	c.network = network.NewService(c)
	c.policy = policy.NewService(c)
	c.validator = validator.NewService(c)
	c.wallet = wallet.NewService(c)
	c.zkp = zkp.NewService(c)
	return c, nil
}

// Call 发起一次 JSON-RPC 调用
func (c *Client) Call(ctx context.Context, req transport.CallRequest, opts transport.CallOptions) (*transport.CallResult, error) {
	if c.isClosed() {
		return nil, ErrClosed
	}
	return c.calls.Call(ctx, req, opts)
}

// Subscribe 打开订阅，客户端关闭时一并关闭
// 客户端不为订阅启动额外协程，已结束的订阅在下次 Subscribe 或 OpenSubscriptions 时移除
func (c *Client) Subscribe(ctx context.Context, req transport.SubscriptionRequest, opts transport.StreamOptions) (*transport.Subscription, error) {
	if c.isClosed() {
		return nil, ErrClosed
	}
	sub, err := c.streams.Subscribe(ctx, req, opts)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = sub.Close()
		return nil, ErrClosed
	}
	c.pruneLocked()
	c.open[sub] = struct{}{}
	c.mu.Unlock()
	return sub, nil
}

// pruneLocked 移除已结束的订阅，调用方需持有 mu
func (c *Client) pruneLocked() {
	for sub := range c.open {
		select {
		case <-sub.Done():
			delete(c.open, sub)
		default:
		}
	}
}

// Close 关闭所有仍然打开的订阅，可重复调用
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	subs := make([]*transport.Subscription, 0, len(c.open))
	for sub := range c.open {
		subs = append(subs, sub)
	}
	c.open = make(map[*transport.Subscription]struct{})
	c.mu.Unlock()

	var errs []error
	for _, sub := range subs {
		if err := sub.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OpenSubscriptions 当前未结束的订阅数
// 未调用 Next 的订阅在 Close 之前一直计入
func (c *Client) OpenSubscriptions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pruneLocked()
	return len(c.open)
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Endpoint 调用地址
func (c *Client) Endpoint() string { return c.calls.Endpoint() }

// StreamURL 订阅地址
func (c *Client) StreamURL() string { return c.streams.URL() }

// IDs 共享的请求 ID 计数器
func (c *Client) IDs() *transport.IDCounter { return c.ids }

// Blockchain 区块链查询与订阅
func (c *Client) Blockchain() *blockchain.Service { return c.blockchain }

// Consensus 交易构造与发送
func (c *Client) Consensus() *consensus.Service { return c.consensus }

// Mempool 交易池
func (c *Client) Mempool() *mempool.Service { return c.mempool }

// Network 对等网络
func (c *Client) Network() *network.Service { return c.network }

// Policy 共识参数
func (c *Client) Policy() *policy.Service { return c.policy }

// Validator 本地验证者
func (c *Client) Validator() *validator.Service { return c.validator }

// Wallet 节点托管钱包
func (c *Client) Wallet() *wallet.Service { return c.wallet }

// ZKP 零知识证明组件
func (c *Client) ZKP() *zkp.Service { return c.zkp }
