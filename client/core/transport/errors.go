package transport

import (
	"errors"
	"fmt"
)

// 客户端侧错误码
//
// HTTP 状态码与节点返回的 JSON-RPC 错误码原样透传，下面只定义客户端自己产生的码。
const (
	// CodeUnexpectedFormat 响应体既不是 result 也不是 error
	CodeUnexpectedFormat = -1
	// CodeTransport 连接失败、被重置或被中止
	CodeTransport = 1000
	// CodeUnexpectedFrameType 无法解码的 WebSocket 负载
	CodeUnexpectedFrameType = 1001
	// CodeMalformedFrame WebSocket 负载不是合法 JSON
	CodeMalformedFrame = 1002
	// CodeTimeout 调用超过截止时间
	CodeTimeout = 1003
)

// MessageUnauthorized 401 响应的固定消息
const MessageUnauthorized = "Server requires authorization."

var (
	// ErrEmptyMethod 方法名为空
	ErrEmptyMethod = errors.New("method name is empty")
	// ErrNilCallback 订阅回调为空
	ErrNilCallback = errors.New("notification callback is nil")
)

// CallError 调用或订阅失败的统一表示
//
// 预期内的失败（HTTP 状态、节点错误、格式错误、超时）都以值的形式放在
// CallResult / StreamNotification 中返回，而不是通过 error 抛出。
type CallError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *CallError) Error() string {
	return fmt.Sprintf("JSON-RPC error %d: %s", e.Code, e.Message)
}

// NewCallError 创建调用错误
func NewCallError(code int, message string) *CallError {
	return &CallError{Code: code, Message: message}
}

// IsTimeout 是否为超时错误
func (e *CallError) IsTimeout() bool {
	return e != nil && e.Code == CodeTimeout
}

// IsTransport 是否为传输层错误（含超时）
func (e *CallError) IsTransport() bool {
	return e != nil && (e.Code == CodeTransport || e.Code == CodeTimeout)
}

func statusError(status int, statusText string) *CallError {
	if status == 401 {
		return NewCallError(status, MessageUnauthorized)
	}
	return NewCallError(status, fmt.Sprintf("Response status code not OK: %d %s", status, statusText))
}

func unexpectedFormatError(raw []byte) *CallError {
	return NewCallError(CodeUnexpectedFormat, fmt.Sprintf("Unexpected format of data %s", string(raw)))
}
