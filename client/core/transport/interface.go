// Package transport provides the JSON-RPC call and WebSocket subscription gateways
// used to talk to an Albatross node.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Caller 单次请求/响应调用
type Caller interface {
	// Call 发起一次 JSON-RPC 调用
	// 只有参数本身不合法（程序错误）时才返回 error，其余失败都体现在 CallResult.Error 中
	Call(ctx context.Context, req CallRequest, opts CallOptions) (*CallResult, error)
}

// Subscriber 流式订阅
type Subscriber interface {
	// Subscribe 打开一条 WebSocket 连接并发送订阅请求
	Subscribe(ctx context.Context, req SubscriptionRequest, opts StreamOptions) (*Subscription, error)
}

// Gateway 门面层依赖的两个原语
type Gateway interface {
	Caller
	Subscriber
}

// CallRequest 调用请求
type CallRequest struct {
	Method string
	// Params 按位置排列的参数，nil 表示缺省，序列化为 null 以保持位置
	Params       []any
	WithMetadata bool
}

// DefaultTimeout 调用默认超时
const DefaultTimeout = 10 * time.Second

// NoTimeout 关闭调用超时
const NoTimeout time.Duration = -1

// CallOptions 单次调用选项
type CallOptions struct {
	// Timeout 0 使用网关默认值，NoTimeout 关闭计时器
	Timeout time.Duration
}

// DefaultCallOptions 默认调用选项
var DefaultCallOptions = CallOptions{}

// Envelope JSON-RPC 2.0 请求信封
type Envelope struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      uint64 `json:"id"`
}

// RequestContext 请求快照，用于诊断与重放
type RequestContext struct {
	Body          Envelope    `json:"body"`
	URL           string      `json:"url"`
	Headers       http.Header `json:"headers"`
	Timestamp     time.Time   `json:"timestamp"`
	CorrelationID string      `json:"correlation_id"`
}

// CallResult 统一的调用结果
//
// Data 与 Error 二者有且只有一个非 nil。
// Metadata 仅在调用方请求且节点返回非 null 时存在，此时 Data 为完整的 result 对象。
type CallResult struct {
	Data     json.RawMessage `json:"data,omitempty"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
	Error    *CallError      `json:"error,omitempty"`
	Context  RequestContext  `json:"context"`
}

// OK 调用是否成功
func (r *CallResult) OK() bool {
	return r != nil && r.Error == nil
}

// Decode 将 Data 解码到 v
func (r *CallResult) Decode(v any) error {
	if r.Error != nil {
		return r.Error
	}
	return json.Unmarshal(r.Data, v)
}

// SubscriptionRequest 订阅请求
type SubscriptionRequest struct {
	Method       string
	Params       []any
	WithMetadata bool
}

// FilterFunc 通知过滤器，返回 false 的通知被静默丢弃
type FilterFunc func(data json.RawMessage) bool

// StreamOptions 订阅选项
type StreamOptions struct {
	// Once 第一次投递后自动关闭
	Once   bool
	Filter FilterFunc
}

// DefaultStreamOptions 默认订阅选项：持续订阅，不过滤
var DefaultStreamOptions = StreamOptions{}

// StreamNotification 一次订阅通知
//
// Error 非 nil 时 Data 与 Metadata 均为 nil。
type StreamNotification struct {
	Data     json.RawMessage `json:"data,omitempty"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
	Error    *CallError      `json:"error,omitempty"`
}

// BlockchainState 节点随结果附带的链状态元数据
type BlockchainState struct {
	BlockNumber uint32 `json:"blockNumber"`
	BlockHash   string `json:"blockHash"`
}

// Decode 将 data 解码为 T
func Decode[T any](data json.RawMessage) (T, error) {
	var v T
	if len(data) == 0 {
		return v, fmt.Errorf("decode: empty payload")
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("decode: %w", err)
	}
	return v, nil
}

// DecodeMetadata 解码链状态元数据，没有元数据时返回 nil
func DecodeMetadata(metadata json.RawMessage) (*BlockchainState, error) {
	if isNullOrEmpty(metadata) {
		return nil, nil
	}
	state, err := Decode[BlockchainState](metadata)
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func isNullOrEmpty(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
