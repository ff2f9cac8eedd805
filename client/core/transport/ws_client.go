package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// closeWriteWait 发送关闭帧的最长等待时间
const closeWriteWait = time.Second

// WebSocketClient WebSocket 订阅网关
// 每次 Subscribe 打开一条独立连接
type WebSocketClient struct {
	url  *url.URL
	opts *options
}

// NewWebSocketClient 创建订阅网关，nodeURL 为节点的 HTTP 地址
func NewWebSocketClient(nodeURL string, opts ...Option) (*WebSocketClient, error) {
	u, err := websocketURL(nodeURL)
	if err != nil {
		return nil, err
	}
	return &WebSocketClient{
		url:  u,
		opts: applyOptions(opts),
	}, nil
}

// URL 订阅地址
func (c *WebSocketClient) URL() string {
	return c.url.String()
}

// IDs 请求 ID 计数器
func (c *WebSocketClient) IDs() *IDCounter {
	return c.opts.ids
}

// Subscribe 建立连接并发送订阅请求
//
// ctx 只约束握手与发送。连接失败或发送失败时返回 *CallError（CodeTransport），不返回句柄。
// 返回的句柄在调用 Next 之前不会读取任何帧，也不会察觉远端关闭。
func (c *WebSocketClient) Subscribe(ctx context.Context, req SubscriptionRequest, opts StreamOptions) (*Subscription, error) {
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

	headers := buildHeaders(c.opts.auth, false)
	reqCtx := RequestContext{
		Body: Envelope{
			JSONRPC: "2.0",
			Method:  req.Method,
			Params:  params,
			ID:      id,
		},
		URL:           c.url.String(),
		Headers:       headers.Clone(),
		Timestamp:     time.Now(),
		CorrelationID: uuid.NewString(),
	}
	logger := c.opts.logger.With(
		zap.String("method", req.Method),
		zap.Uint64("id", id),
		zap.String("correlation_id", reqCtx.CorrelationID),
	)

	if c.opts.limiter != nil {
		if err := c.opts.limiter.Wait(ctx); err != nil {
			return nil, transportError(ctx, 0, err)
		}
	}

	conn, resp, err := c.opts.dialer().DialContext(ctx, c.url.String(), headers)
	if resp != nil && resp.Body != nil {
		defer func() {
			if err := resp.Body.Close(); err != nil {
				logger.Debug("failed to close handshake response body", zap.Error(err))
			}
		}()
	}
	if err != nil {
		logger.Warn("websocket dial failed", zap.String("url", c.url.Redacted()), zap.Error(err))
		if resp != nil {
			return nil, NewCallError(CodeTransport, fmt.Sprintf("dial %s: %v (status %d)", c.url.Redacted(), err, resp.StatusCode))
		}
		return nil, NewCallError(CodeTransport, fmt.Sprintf("dial %s: %v", c.url.Redacted(), err))
	}
	if c.opts.readLimit > 0 {
		conn.SetReadLimit(c.opts.readLimit)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
	}
	if err := conn.WriteMessage(websocket.TextMessage, body); err != nil {
		_ = conn.Close()
		logger.Warn("failed to send subscription request", zap.Error(err))
		return nil, NewCallError(CodeTransport, fmt.Sprintf("send subscription request: %v", err))
	}
	_ = conn.SetWriteDeadline(time.Time{})

	sub := newSubscription(conn, req, opts, reqCtx, logger, c.opts.metrics)
	c.opts.metrics.subscriptionOpened()
	logger.Debug("subscription opened")
	return sub, nil
}

// Subscription 订阅句柄
//
// 回调在读协程上顺序执行，同一订阅不会并发调用回调。
type Subscription struct {
	conn         *websocket.Conn
	method       string
	withMetadata bool
	stream       StreamOptions
	reqCtx       RequestContext
	logger       *zap.Logger
	metrics      *Metrics

	subscriptionID atomic.Int64

	mu       sync.Mutex
	callback func(StreamNotification)
	started  bool

	closing    atomic.Bool
	closeOnce  sync.Once
	finishOnce sync.Once
	done       chan struct{}
}

func newSubscription(conn *websocket.Conn, req SubscriptionRequest, stream StreamOptions, reqCtx RequestContext, logger *zap.Logger, metrics *Metrics) *Subscription {
	s := &Subscription{
		conn:         conn,
		method:       req.Method,
		withMetadata: req.WithMetadata,
		stream:       stream,
		reqCtx:       reqCtx,
		logger:       logger,
		metrics:      metrics,
		done:         make(chan struct{}),
	}
	s.subscriptionID.Store(-1)
	return s
}

// Next 注册回调并开始接收通知
// 再次调用会替换回调，读循环只启动一次
func (s *Subscription) Next(callback func(StreamNotification)) error {
	if callback == nil {
		return ErrNilCallback
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.callback = callback
	if s.started || s.closing.Load() {
		return nil
	}
	s.started = true
	go s.readLoop()
	return nil
}

// Close 关闭订阅，可重复调用
func (s *Subscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closing.Store(true)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		if werr := s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWriteWait)); werr != nil &&
			!errors.Is(werr, websocket.ErrCloseSent) {
			s.logger.Debug("failed to send close frame", zap.Error(werr))
		}
		err = s.conn.Close()
		s.finish()
	})
	return err
}

// Done 订阅结束时关闭
//
// 节点断开只能由读循环发现，Next 之前远端关闭连接不会使 Done 关闭，需调用 Close。
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// SubscriptionID 节点分配的订阅 ID，收到确认之前返回 (-1, false)
func (s *Subscription) SubscriptionID() (int64, bool) {
	id := s.subscriptionID.Load()
	return id, id >= 0
}

// Context 订阅请求快照
func (s *Subscription) Context() RequestContext {
	return s.reqCtx
}

func (s *Subscription) readLoop() {
	defer s.finish()

	for {
		messageType, payload, err := s.conn.ReadMessage()
		if err != nil {
			s.handleReadError(err)
			return
		}

		text, cerr := decodePayload(messageType, payload)
		if cerr != nil {
			s.drop(dropUndecodable, cerr)
			continue
		}

		f := classifyFrame(text, s.withMetadata)
		switch f.kind {
		case frameDrop:
			s.drop(f.dropReason, f.dropErr)

		case frameError:
			s.deliver(StreamNotification{Error: f.err})

		case frameAck:
			if !s.subscriptionID.CompareAndSwap(-1, f.subscriptionID) {
				s.drop(dropDuplicateAck, NewCallError(CodeMalformedFrame, fmt.Sprintf("Duplicate subscription id: %d", f.subscriptionID)))
				continue
			}
			s.logger.Debug("subscription acknowledged", zap.Int64("subscription_id", f.subscriptionID))

		case frameNotification:
			if s.stream.Filter != nil && !s.stream.Filter(f.data) {
				s.metrics.frameDropped(dropFiltered)
				continue
			}
			s.deliver(StreamNotification{Data: f.data, Metadata: f.metadata})
			if s.stream.Once {
				_ = s.Close()
				return
			}
		}
	}
}

func (s *Subscription) deliver(n StreamNotification) {
	if s.closing.Load() {
		return
	}

	s.mu.Lock()
	cb := s.callback
	s.mu.Unlock()

	if n.Error == nil {
		s.metrics.notificationDelivered(s.method)
	}
	cb(n)
}

func (s *Subscription) drop(reason string, cerr *CallError) {
	s.metrics.frameDropped(reason)
	fields := []zap.Field{zap.String("reason", reason)}
	if cerr != nil {
		fields = append(fields, zap.Int("code", cerr.Code), zap.String("error", cerr.Message))
	}
	s.logger.Debug("subscription frame dropped", fields...)
}

// handleReadError 本地关闭与对端正常关闭静默结束，其余错误投递给回调
func (s *Subscription) handleReadError(err error) {
	if s.closing.Load() {
		return
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		s.logger.Debug("subscription closed by node", zap.Error(err))
		_ = s.conn.Close()
		return
	}

	s.logger.Warn("subscription connection failed", zap.Error(err))
	s.deliver(StreamNotification{Error: NewCallError(CodeTransport, err.Error())})
	_ = s.conn.Close()
}

func (s *Subscription) finish() {
	s.finishOnce.Do(func() {
		s.closing.Store(true)
		close(s.done)
		s.metrics.subscriptionClosed()
	})
}
