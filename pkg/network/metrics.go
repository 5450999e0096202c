package network

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ZentaChain/zentalk-client/pkg/protocol"
)

var (
	exchangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zentalk_client_exchanges_total",
			Help: "Number of request/response exchanges by request and outcome",
		},
		[]string{"op", "outcome"},
	)
	exchangeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "zentalk_client_exchange_duration_seconds",
			Help:    "Time from connect to close of one exchange",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)
	bytesSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "zentalk_client_sent_bytes_total",
			Help: "Request bytes sent before unit padding",
		},
	)
	bytesReceived = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "zentalk_client_received_bytes_total",
			Help: "Response payload bytes received",
		},
	)

	registerOnce sync.Once
)

// RegisterMetrics registers the transport metrics with reg. Later calls are
// no-ops.
func RegisterMetrics(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		reg.MustRegister(exchangesTotal)
		reg.MustRegister(exchangeDuration)
		reg.MustRegister(bytesSent)
		reg.MustRegister(bytesReceived)
	})
}

func observeExchange(op string, err error, elapsed time.Duration) {
	exchangesTotal.WithLabelValues(op, outcomeLabel(err)).Inc()
	exchangeDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

func outcomeLabel(err error) string {
	if err == nil {
		return "ok"
	}
	switch protocol.KindOf(err) {
	case protocol.KindValidation:
		return "validation"
	case protocol.KindProtocol:
		return "protocol"
	case protocol.KindTransport:
		return "transport"
	default:
		return "error"
	}
}
