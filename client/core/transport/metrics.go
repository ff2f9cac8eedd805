package transport

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// 调用结果分类标签
const (
	outcomeOK        = "ok"
	outcomeRPCError  = "rpc_error"
	outcomeHTTPError = "http_error"
	outcomeTimeout   = "timeout"
	outcomeTransport = "transport"
	outcomeFormat    = "format"
)

// 丢帧原因标签
const (
	dropUndecodable  = "undecodable"
	dropMalformed    = "malformed"
	dropBadAck       = "bad_ack"
	dropDuplicateAck = "duplicate_ack"
	dropNoResult     = "no_result"
	dropFiltered     = "filtered"
)

// Metrics 客户端指标
// 所有方法允许 nil 接收者，未配置指标时为空操作
type Metrics struct {
	calls         *prometheus.CounterVec
	callDuration  *prometheus.HistogramVec
	activeSubs    prometheus.Gauge
	notifications *prometheus.CounterVec
	droppedFrames *prometheus.CounterVec
}

// NewMetrics 创建并注册指标，reg 为 nil 时使用独立的注册表
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "albatross",
				Subsystem: "rpc_client",
				Name:      "calls_total",
				Help:      "Total number of JSON-RPC calls by method and outcome",
			},
			[]string{"method", "outcome"},
		),
		callDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "albatross",
				Subsystem: "rpc_client",
				Name:      "call_duration_seconds",
				Help:      "JSON-RPC call duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
			},
			[]string{"method"},
		),
		activeSubs: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "albatross",
				Subsystem: "rpc_client",
				Name:      "subscriptions_active",
				Help:      "Number of open subscriptions",
			},
		),
		notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "albatross",
				Subsystem: "rpc_client",
				Name:      "notifications_total",
				Help:      "Notifications delivered to subscription callbacks",
			},
			[]string{"method"},
		),
		droppedFrames: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "albatross",
				Subsystem: "rpc_client",
				Name:      "frames_dropped_total",
				Help:      "Inbound subscription frames dropped without delivery",
			},
			[]string{"reason"},
		),
	}

	var err error
	if m.calls, err = register(reg, m.calls); err != nil {
		return nil, err
	}
	if m.callDuration, err = register(reg, m.callDuration); err != nil {
		return nil, err
	}
	if m.activeSubs, err = register(reg, m.activeSubs); err != nil {
		return nil, err
	}
	if m.notifications, err = register(reg, m.notifications); err != nil {
		return nil, err
	}
	if m.droppedFrames, err = register(reg, m.droppedFrames); err != nil {
		return nil, err
	}
	return m, nil
}

// register 注册收集器，已注册过同名收集器时复用已有的那个
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *Metrics) observeCall(method string, result *CallResult, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(method, callOutcome(result)).Inc()
	m.callDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

func (m *Metrics) subscriptionOpened() {
	if m == nil {
		return
	}
	m.activeSubs.Inc()
}

func (m *Metrics) subscriptionClosed() {
	if m == nil {
		return
	}
	m.activeSubs.Dec()
}

func (m *Metrics) notificationDelivered(method string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(method).Inc()
}

func (m *Metrics) frameDropped(reason string) {
	if m == nil {
		return
	}
	m.droppedFrames.WithLabelValues(reason).Inc()
}

func callOutcome(result *CallResult) string {
	if result.Error == nil {
		return outcomeOK
	}
	switch code := result.Error.Code; {
	case code == CodeTimeout:
		return outcomeTimeout
	case code == CodeTransport:
		return outcomeTransport
	case code == CodeUnexpectedFormat:
		return outcomeFormat
	case code >= 400 && code < 600:
		return outcomeHTTPError
	default:
		return outcomeRPCError
	}
}
