package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/weisyn/albatross-rpc/client/core/transport"
)

// Options 门面调用选项
type Options struct {
	WithMetadata bool
	Timeout      time.Duration
}

// Option 门面调用选项
type Option func(*Options)

// WithMetadata 请求节点附带链状态元数据
func WithMetadata() Option {
	return func(o *Options) { o.WithMetadata = true }
}

// WithTimeout 单次调用超时，transport.NoTimeout 关闭计时器
func WithTimeout(d time.Duration) Option {
	return func(o *Options) { o.Timeout = d }
}

// NewOptions 合并选项
func NewOptions(opts []Option) Options {
	var o Options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// Result 类型化的调用结果
type Result[T any] struct {
	Data     T
	Metadata *transport.BlockchainState
	Error    *transport.CallError
	Context  transport.RequestContext
}

// OK 调用是否成功
func (r *Result[T]) OK() bool {
	return r != nil && r.Error == nil
}

// Err 失败时返回 *transport.CallError，成功返回 nil
func (r *Result[T]) Err() error {
	if r.Error == nil {
		return nil
	}
	return r.Error
}

// Invoke 按注册表校验参数后发起调用
func Invoke(ctx context.Context, c transport.Caller, name string, opts []Option, args ...any) (*transport.CallResult, error) {
	m, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	o := NewOptions(opts)
	req, err := m.CallRequest(o.WithMetadata, args...)
	if err != nil {
		return nil, err
	}
	return c.Call(ctx, req, transport.CallOptions{Timeout: o.Timeout})
}

// InvokeAs 发起调用并把 data 解码为 T
func InvokeAs[T any](ctx context.Context, c transport.Caller, name string, opts []Option, args ...any) (*Result[T], error) {
	res, err := Invoke(ctx, c, name, opts, args...)
	if err != nil {
		return nil, err
	}
	return Typed[T](res)
}

// Typed 把 CallResult 转换为类型化结果
// 带元数据时 Data 为完整 result 对象，这里取出其中的 data 字段
func Typed[T any](res *transport.CallResult) (*Result[T], error) {
	out := &Result[T]{Error: res.Error, Context: res.Context}
	if res.Error != nil {
		return out, nil
	}

	data := res.Data
	if res.Metadata != nil {
		meta, err := transport.DecodeMetadata(res.Metadata)
		if err != nil {
			return nil, fmt.Errorf("%s: metadata: %w", res.Context.Body.Method, err)
		}
		out.Metadata = meta

		inner, err := unwrapData(res.Data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", res.Context.Body.Method, err)
		}
		data = inner
	}

	if err := decodeInto(data, &out.Data); err != nil {
		return nil, fmt.Errorf("%s: %w", res.Context.Body.Method, err)
	}
	return out, nil
}

// Notification 类型化的订阅通知
type Notification[T any] struct {
	Data     T
	Metadata *transport.BlockchainState
	Error    *transport.CallError
}

// Stream 类型化订阅句柄
type Stream[T any] struct {
	*transport.Subscription
	withMetadata bool
}

// Next 注册类型化回调，无法解码的通知以 CodeMalformedFrame 错误投递
func (s *Stream[T]) Next(callback func(Notification[T])) error {
	if callback == nil {
		return transport.ErrNilCallback
	}
	return s.Subscription.Next(func(n transport.StreamNotification) {
		callback(decodeNotification[T](n, s.withMetadata))
	})
}

// Subscribe 按注册表校验参数后订阅
func Subscribe[T any](ctx context.Context, s transport.Subscriber, name string, stream transport.StreamOptions, opts []Option, args ...any) (*Stream[T], error) {
	m, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	o := NewOptions(opts)
	req, err := m.SubscriptionRequest(o.WithMetadata, args...)
	if err != nil {
		return nil, err
	}
	sub, err := s.Subscribe(ctx, req, stream)
	if err != nil {
		return nil, err
	}
	return &Stream[T]{Subscription: sub, withMetadata: o.WithMetadata}, nil
}

// Filter 把类型化谓词转换为原始过滤器，无法解码的通知被拒绝
func Filter[T any](withMetadata bool, keep func(T) bool) transport.FilterFunc {
	if keep == nil {
		return nil
	}
	return func(raw json.RawMessage) bool {
		n := decodeNotification[T](transport.StreamNotification{Data: raw}, withMetadata)
		return n.Error == nil && keep(n.Data)
	}
}

func decodeNotification[T any](n transport.StreamNotification, withMetadata bool) Notification[T] {
	out := Notification[T]{Error: n.Error}
	if n.Error != nil {
		return out
	}

	data := n.Data
	if withMetadata {
		meta, err := transport.DecodeMetadata(n.Metadata)
		if err != nil {
			out.Error = transport.NewCallError(transport.CodeMalformedFrame, err.Error())
			return out
		}
		out.Metadata = meta
		if data, err = unwrapData(n.Data); err != nil {
			out.Error = transport.NewCallError(transport.CodeMalformedFrame, err.Error())
			return out
		}
	}

	if err := decodeInto(data, &out.Data); err != nil {
		out.Error = transport.NewCallError(transport.CodeMalformedFrame, err.Error())
	}
	return out
}

// unwrapData 取出 {data, metadata} 中的 data
func unwrapData(raw json.RawMessage) (json.RawMessage, error) {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("unwrap data: %w", err)
	}
	return envelope.Data, nil
}

func decodeInto(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}
