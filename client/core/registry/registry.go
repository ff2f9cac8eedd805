// Package registry describes the node's RPC method table and builds positional
// requests from it.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/weisyn/albatross-rpc/client/core/transport"
)

var (
	// ErrUnknownMethod 方法不在注册表中
	ErrUnknownMethod = errors.New("unknown rpc method")
	// ErrArity 参数个数不匹配
	ErrArity = errors.New("wrong number of params")
	// ErrKind 以调用方式使用订阅方法，或反之
	ErrKind = errors.New("wrong method kind")
)

// Kind 方法类型
type Kind int

const (
	// KindCall 请求/响应
	KindCall Kind = iota
	// KindSubscription 流式订阅
	KindSubscription
)

func (k Kind) String() string {
	if k == KindSubscription {
		return "subscription"
	}
	return "call"
}

// Param 位置参数描述
type Param struct {
	Name     string
	Optional bool
}

// Method 方法描述
type Method struct {
	Name   string
	Area   string
	Kind   Kind
	Params []Param
	// Result 响应 data 的结构，仅用于展示
	Result string
}

// Required 必填参数个数
func (m Method) Required() int {
	n := 0
	for _, p := range m.Params {
		if !p.Optional {
			n++
		}
	}
	return n
}

// Signature 形如 getBlockByHash(hash, includeTransactions?)
func (m Method) Signature() string {
	names := make([]string, len(m.Params))
	for i, p := range m.Params {
		names[i] = p.Name
		if p.Optional {
			names[i] += "?"
		}
	}
	return fmt.Sprintf("%s(%s)", m.Name, strings.Join(names, ", "))
}

// CallRequest 构建调用请求
// 缺省的可选参数以 nil 补齐，序列化后为 null
func (m Method) CallRequest(withMetadata bool, args ...any) (transport.CallRequest, error) {
	if m.Kind != KindCall {
		return transport.CallRequest{}, fmt.Errorf("%s is a %s: %w", m.Name, m.Kind, ErrKind)
	}
	params, err := m.bind(args)
	if err != nil {
		return transport.CallRequest{}, err
	}
	return transport.CallRequest{Method: m.Name, Params: params, WithMetadata: withMetadata}, nil
}

// SubscriptionRequest 构建订阅请求
func (m Method) SubscriptionRequest(withMetadata bool, args ...any) (transport.SubscriptionRequest, error) {
	if m.Kind != KindSubscription {
		return transport.SubscriptionRequest{}, fmt.Errorf("%s is a %s: %w", m.Name, m.Kind, ErrKind)
	}
	params, err := m.bind(args)
	if err != nil {
		return transport.SubscriptionRequest{}, err
	}
	return transport.SubscriptionRequest{Method: m.Name, Params: params, WithMetadata: withMetadata}, nil
}

func (m Method) bind(args []any) ([]any, error) {
	if len(args) < m.Required() || len(args) > len(m.Params) {
		return nil, fmt.Errorf("%s takes %d..%d params, got %d: %w",
			m.Signature(), m.Required(), len(m.Params), len(args), ErrArity)
	}
	params := make([]any, len(m.Params))
	copy(params, args)
	return params, nil
}

var table = func() map[string]Method {
	out := make(map[string]Method, len(methods))
	for _, m := range methods {
		if _, dup := out[m.Name]; dup {
			panic("registry: duplicate method " + m.Name)
		}
		// 可选参数只能出现在末尾，否则按位置补齐会错位
		for i := m.Required(); i < len(m.Params); i++ {
			if !m.Params[i].Optional {
				panic("registry: optional param before required one in " + m.Name)
			}
		}
		out[m.Name] = m
	}
	return out
}()

// Lookup 按名称查找方法
func Lookup(name string) (Method, error) {
	m, ok := table[name]
	if !ok {
		return Method{}, fmt.Errorf("%q: %w", name, ErrUnknownMethod)
	}
	return m, nil
}

// All 按区域与名称排序的全部方法
func All() []Method {
	out := make([]Method, 0, len(table))
	for _, m := range table {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Area != out[j].Area {
			return out[i].Area < out[j].Area
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// parse 解析参数列表，名称以 ? 结尾表示可选
func parse(names []string) []Param {
	params := make([]Param, len(names))
	for i, n := range names {
		params[i] = Param{Name: strings.TrimSuffix(n, "?"), Optional: strings.HasSuffix(n, "?")}
	}
	return params
}

func call(area, name, result string, params ...string) Method {
	return Method{Name: name, Area: area, Kind: KindCall, Params: parse(params), Result: result}
}

func subscription(area, name, result string, params ...string) Method {
	return Method{Name: name, Area: area, Kind: KindSubscription, Params: parse(params), Result: result}
}
