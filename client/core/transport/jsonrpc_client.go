package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JSONRPCClient JSON-RPC 2.0 调用网关
// 每次 Call 只发出一个 POST，不重试
type JSONRPCClient struct {
	endpoint string
	opts     *options
}

// NewJSONRPCClient 创建调用网关
func NewJSONRPCClient(nodeURL string, opts ...Option) (*JSONRPCClient, error) {
	u, err := validateHTTPURL(nodeURL)
	if err != nil {
		return nil, err
	}

	return &JSONRPCClient{
		endpoint: u.String(),
		opts:     applyOptions(opts),
	}, nil
}

// Endpoint 调用地址
func (c *JSONRPCClient) Endpoint() string {
	return c.endpoint
}

// IDs 请求 ID 计数器
func (c *JSONRPCClient) IDs() *IDCounter {
	return c.opts.ids
}

// wireRequest 发送到节点的请求体，params 预先序列化
type wireRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      uint64          `json:"id"`
}

// wireError 节点返回的错误对象
type wireError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Call 发起一次 JSON-RPC 调用
func (c *JSONRPCClient) Call(ctx context.Context, req CallRequest, opts CallOptions) (*CallResult, error) {
	if strings.TrimSpace(req.Method) == "" {
		return nil, ErrEmptyMethod
	}

	params := normalizeParams(req.Params)
	rawParams, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal params of %s: %w", req.Method, err)
	}

	id := c.opts.ids.Next()
	body, err := json.Marshal(&wireRequest{
		JSONRPC: "2.0",
		Method:  req.Method,
		Params:  rawParams,
		ID:      id,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	headers := buildHeaders(c.opts.auth, true)
	result := &CallResult{
		Context: RequestContext{
			Body: Envelope{
				JSONRPC: "2.0",
				Method:  req.Method,
				Params:  params,
				ID:      id,
			},
			URL:           c.endpoint,
			Headers:       headers.Clone(),
			Timestamp:     time.Now(),
			CorrelationID: uuid.NewString(),
		},
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = c.opts.defaultTimeout
	}

	callCtx, cancel := ctx, context.CancelFunc(func() {})
	if timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	start := time.Now()
	c.exchange(callCtx, timeout, body, headers, req.WithMetadata, result)
	elapsed := time.Since(start)

	c.opts.metrics.observeCall(req.Method, result, elapsed)
	c.logResult(result, elapsed)

	return result, nil
}

// exchange 执行一次 HTTP 往返并把结果写入 result
func (c *JSONRPCClient) exchange(ctx context.Context, timeout time.Duration, body []byte, headers http.Header, withMetadata bool, result *CallResult) {
	if c.opts.limiter != nil {
		if err := c.opts.limiter.Wait(ctx); err != nil {
			result.Error = limiterError(ctx, timeout, err)
			return
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		result.Error = NewCallError(CodeTransport, fmt.Sprintf("create http request: %v", err))
		return
	}
	httpReq.Header = headers

	httpResp, err := c.opts.httpClient.Do(httpReq)
	if err != nil {
		result.Error = transportError(ctx, timeout, err)
		return
	}
	defer func() {
		// 丢弃剩余内容以便复用连接
		_, _ = io.Copy(io.Discard, httpResp.Body)
		if err := httpResp.Body.Close(); err != nil {
			c.opts.logger.Debug("failed to close response body", zap.Error(err))
		}
	}()

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		result.Error = statusError(httpResp.StatusCode, http.StatusText(httpResp.StatusCode))
		return
	}

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		result.Error = transportError(ctx, timeout, err)
		return
	}

	result.Data, result.Metadata, result.Error = normalizeResponse(raw, withMetadata)
}

// normalizeResponse 将响应体归一化为 (data, metadata, error)，三者中 data 与 error 互斥
func normalizeResponse(raw []byte, withMetadata bool) (json.RawMessage, json.RawMessage, *CallError) {
	trimmed := bytes.TrimSpace(raw)

	var top map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &top); err != nil {
		return nil, nil, unexpectedFormatError(trimmed)
	}

	if res, ok := top["result"]; ok {
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(res, &inner); err != nil {
			// result 不是对象时原样作为 data
			return res, nil, nil
		}

		data, ok := inner["data"]
		if !ok {
			data = json.RawMessage("null")
		}
		metadata := inner["metadata"]
		if !withMetadata || isNullOrEmpty(metadata) {
			return data, nil, nil
		}
		return res, metadata, nil
	}

	if e, ok := top["error"]; ok {
		var we wireError
		if err := json.Unmarshal(e, &we); err != nil {
			return nil, nil, unexpectedFormatError(trimmed)
		}
		return nil, nil, NewCallError(we.Code, fmt.Sprintf("%s: %s", we.Message, renderErrorData(we.Data)))
	}

	return nil, nil, unexpectedFormatError(trimmed)
}

// renderErrorData 把错误附加数据渲染为文本：字符串去引号，其余保持 JSON
// 缺少 data 或 data 为 null 时渲染为 "null"，消息形如 "Method not found: null"
func renderErrorData(data json.RawMessage) string {
	if isNullOrEmpty(data) {
		return "null"
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, data); err != nil {
		return string(data)
	}
	return compact.String()
}

// transportError 区分超时与其他传输错误
func transportError(ctx context.Context, timeout time.Duration, err error) *CallError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		if timeout > 0 {
			return NewCallError(CodeTimeout, fmt.Sprintf("Request timed out after %dms", timeout.Milliseconds()))
		}
		return NewCallError(CodeTimeout, "Request timed out")
	}
	if errors.Is(err, context.Canceled) {
		return NewCallError(CodeTransport, "Request aborted: context canceled")
	}
	return NewCallError(CodeTransport, err.Error())
}

// limiterError 限流等待会越过截止时间时按超时处理
func limiterError(ctx context.Context, timeout time.Duration, err error) *CallError {
	if _, ok := ctx.Deadline(); ok && !errors.Is(ctx.Err(), context.Canceled) {
		return transportError(ctx, timeout, context.DeadlineExceeded)
	}
	return transportError(ctx, timeout, err)
}

func (c *JSONRPCClient) logResult(result *CallResult, elapsed time.Duration) {
	fields := []zap.Field{
		zap.String("method", result.Context.Body.Method),
		zap.Uint64("id", result.Context.Body.ID),
		zap.String("correlation_id", result.Context.CorrelationID),
		zap.Duration("elapsed", elapsed),
	}

	if result.Error == nil {
		c.opts.logger.Debug("json-rpc call succeeded", fields...)
		return
	}

	fields = append(fields,
		zap.Int("code", result.Error.Code),
		zap.String("error", result.Error.Message),
	)
	if result.Error.IsTransport() {
		c.opts.logger.Warn("json-rpc call failed", append(fields, zap.String("url", c.endpoint))...)
		return
	}
	c.opts.logger.Debug("json-rpc call returned error", fields...)
}
