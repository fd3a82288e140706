// Package metrics holds the prometheus collectors for the gRPC API.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

type Metrics struct {
	requests  *prometheus.CounterVec
	durations *prometheus.HistogramVec
	conflicts prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roombook",
			Subsystem: "rpc",
			Name:      "requests_total",
			Help:      "Unary RPCs handled, by full method and status code.",
		}, []string{"method", "code"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "roombook",
			Subsystem: "rpc",
			Name:      "duration_seconds",
			Help:      "Unary RPC latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "roombook",
			Name:      "reservation_conflicts_total",
			Help:      "Reservation writes rejected because the slot was taken.",
		}),
	}
	reg.MustRegister(m.requests, m.durations, m.conflicts)
	return m
}

func (m *Metrics) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		m.durations.WithLabelValues(info.FullMethod).Observe(time.Since(start).Seconds())
		m.requests.WithLabelValues(info.FullMethod, status.Code(err).String()).Inc()
		return resp, err
	}
}

// ReservationConflict counts one rejected overlapping write. Safe on nil.
func (m *Metrics) ReservationConflict() {
	if m == nil {
		return
	}
	m.conflicts.Inc()
}
