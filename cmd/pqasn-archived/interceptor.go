package main

import (
	"context"
	"path"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pqasn",
				Subsystem: "archive",
				Name:      "rpcs_total",
				Help:      "Archive RPCs by method and status code.",
			},
			[]string{"method", "code"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "pqasn",
				Subsystem: "archive",
				Name:      "rpc_duration_seconds",
				Help:      "Archive RPC latency in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

// unaryInterceptor logs every RPC and records it in m (when non-nil).
func unaryInterceptor(logger zerolog.Logger, m *metrics) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		elapsed := time.Since(start)

		method := path.Base(info.FullMethod)
		code := status.Code(err)
		if m != nil {
			m.requests.WithLabelValues(method, code.String()).Inc()
			m.duration.WithLabelValues(method).Observe(elapsed.Seconds())
		}

		event := logger.Info()
		switch code {
		case codes.OK:
		case codes.NotFound, codes.InvalidArgument, codes.FailedPrecondition, codes.AlreadyExists:
			event = logger.Warn()
		default:
			event = logger.Error()
		}
		event.
			Str("method", method).
			Str("code", code.String()).
			Dur("duration", elapsed).
			Err(err).
			Msg("rpc")
		return resp, err
	}
}
