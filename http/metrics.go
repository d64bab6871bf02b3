package httpx

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	exchanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "webserver",
		Name:      "exchanges_total",
		Help:      "Request/response cycles by outcome.",
	}, []string{"result"})

	requestBytes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "webserver",
		Name:      "request_bytes_total",
		Help:      "Request bytes drained from clients.",
	})

	bodyBytes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "webserver",
		Name:      "response_body_bytes_total",
		Help:      "Body bytes written to clients.",
	})

	exchangeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "webserver",
		Name:      "exchange_duration_seconds",
		Help:      "Time from accept to close of one connection.",
		Buckets:   prometheus.DefBuckets,
	})
)

const (
	resultOK        = "ok"
	resultFileOpen  = "file_open_error"
	resultFileRead  = "file_read_error"
	resultWrite     = "write_error"
	resultCancelled = "cancelled"
	resultOther     = "error"
)

func resultLabel(err error) string {
	switch {
	case err == nil:
		return resultOK
	// a write cut short by shutdown also wraps ErrWrite
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return resultCancelled
	case errors.Is(err, ErrFileOpen):
		return resultFileOpen
	case errors.Is(err, ErrFileRead):
		return resultFileRead
	case errors.Is(err, ErrWrite):
		return resultWrite
	default:
		return resultOther
	}
}
