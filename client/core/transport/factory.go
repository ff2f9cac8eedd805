package transport

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// IDCounter 请求 ID 计数器
// 同一客户端实例的调用与订阅共用一个计数器，从 0 开始单调递增，不会复用
type IDCounter struct {
	next atomic.Uint64
}

// NewIDCounter 创建计数器
func NewIDCounter() *IDCounter {
	return &IDCounter{}
}

// Next 取下一个 ID
func (c *IDCounter) Next() uint64 {
	return c.next.Add(1) - 1
}

// Peek 下一个将被分配的 ID
func (c *IDCounter) Peek() uint64 {
	return c.next.Load()
}

// options 网关公共配置
type options struct {
	auth             *Auth
	logger           *zap.Logger
	metrics          *Metrics
	ids              *IDCounter
	httpClient       *http.Client
	defaultTimeout   time.Duration
	limiter          *rate.Limiter
	handshakeTimeout time.Duration
	readLimit        int64
}

// Option 网关配置项
type Option func(*options)

func defaultOptions() *options {
	return &options{
		logger:           zap.NewNop(),
		defaultTimeout:   DefaultTimeout,
		handshakeTimeout: 10 * time.Second,
	}
}

func applyOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.ids == nil {
		o.ids = NewIDCounter()
	}
	if o.httpClient == nil {
		// 超时由每次调用的 context 控制，这里不设置 http.Client.Timeout
		o.httpClient = &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	return o
}

// WithAuth 设置节点凭据
func WithAuth(auth *Auth) Option {
	return func(o *options) {
		if !auth.IsZero() {
			copied := *auth
			o.auth = &copied
		}
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics 设置指标收集器
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithIDCounter 共享请求 ID 计数器
func WithIDCounter(ids *IDCounter) Option {
	return func(o *options) {
		o.ids = ids
	}
}

// WithHTTPClient 使用自定义 HTTP 客户端
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithDefaultTimeout 设置调用默认超时，NoTimeout 表示默认不超时
func WithDefaultTimeout(d time.Duration) Option {
	return func(o *options) {
		if d != 0 {
			o.defaultTimeout = d
		}
	}
}

// WithRateLimit 客户端限流，rps<=0 不限流
// 限流只会推迟请求的发出，不会重试
func WithRateLimit(rps float64, burst int) Option {
	return func(o *options) {
		if rps <= 0 {
			o.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		o.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLimiter 使用外部限流器，调用网关与订阅网关可共享同一个
func WithLimiter(l *rate.Limiter) Option {
	return func(o *options) {
		o.limiter = l
	}
}

// WithHandshakeTimeout 设置 WebSocket 握手超时
func WithHandshakeTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.handshakeTimeout = d
		}
	}
}

// WithReadLimit 设置单帧最大字节数，0 不限制
func WithReadLimit(n int64) Option {
	return func(o *options) {
		o.readLimit = n
	}
}

func (o *options) dialer() *websocket.Dialer {
	return &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: o.handshakeTimeout,
	}
}
