package client

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

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

// ErrNoNodeURL 未配置节点地址
var ErrNoNodeURL = errors.New("node url is required")

// Config 客户端配置
type Config struct {
	NodeURL          string         `json:"node_url"`
	Auth             transport.Auth `json:"auth"`
	Timeout          time.Duration  `json:"timeout"`
	RateLimit        float64        `json:"rate_limit"`
	RateBurst        int            `json:"rate_burst"`
	HandshakeTimeout time.Duration  `json:"handshake_timeout"`
	ReadLimit        int64          `json:"read_limit"`
}

// Options 转换为网关配置项
func (c Config) Options() []transport.Option {
	opts := []transport.Option{
		transport.WithAuth(&c.Auth),
		transport.WithDefaultTimeout(c.Timeout),
		transport.WithHandshakeTimeout(c.HandshakeTimeout),
		transport.WithReadLimit(c.ReadLimit),
	}
	// 调用与订阅共享同一个限流器
	if c.RateLimit > 0 {
		burst := c.RateBurst
		if burst < 1 {
			burst = 1
		}
		opts = append(opts, transport.WithLimiter(rate.NewLimiter(rate.Limit(c.RateLimit), burst)))
	}
	return opts
}

// ModuleParams 客户端模块的依赖
type ModuleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    Config

	Logger     *zap.Logger           `optional:"true"`
	Registerer prometheus.Registerer `optional:"true"`
}

// ModuleOutput 客户端模块的输出
type ModuleOutput struct {
	fx.Out

	Client     *Client
	Gateway    transport.Gateway
	Metrics    *transport.Metrics
	Blockchain *blockchain.Service
	Consensus  *consensus.Service
	Mempool    *mempool.Service
	Network    *network.Service
	Policy     *policy.Service
	Validator  *validator.Service
	Wallet     *wallet.Service
	ZKP        *zkp.Service
}

// Module 返回客户端模块
func Module() fx.Option {
	return fx.Module("albatross-client",
		fx.Provide(ProvideClient),
	)
}

// ProvideClient 按配置创建客户端，应用停止时关闭所有订阅
func ProvideClient(p ModuleParams) (ModuleOutput, error) {
	if p.Config.NodeURL == "" {
		return ModuleOutput{}, ErrNoNodeURL
	}

	opts := p.Config.Options()
	if p.Logger != nil {
		opts = append(opts, transport.WithLogger(p.Logger.Named("albatross-client")))
	}

	var metrics *transport.Metrics
	if p.Registerer != nil {
		m, err := transport.NewMetrics(p.Registerer)
		if err != nil {
			return ModuleOutput{}, err
		}
		metrics = m
		opts = append(opts, transport.WithMetrics(m))
	}

	c, err := New(p.Config.NodeURL, opts...)
	if err != nil {
		return ModuleOutput{}, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return c.Close()
		},
	})

	return ModuleOutput{
		Client:     c,
		Gateway:    c,
		Metrics:    metrics,
		Blockchain: c.Blockchain(),
		Consensus:  c.Consensus(),
		Mempool:    c.Mempool(),
		Network:    c.Network(),
		Policy:     c.Policy(),
		Validator:  c.Validator(),
		Wallet:     c.Wallet(),
		ZKP:        c.ZKP(),
	}, nil
}
