package main

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/erc7824/receipt-signer/pkg/sign"
)

const (
	TransportHTTP = "http"
	TransportWS   = "ws"
	TransportCLI  = "cli"
)

const (
	statusOK              = "ok"
	statusInvalidEncoding = "invalid_encoding"
	statusInvalidFormat   = "invalid_format"
	statusMismatch        = "mismatch"
	statusError           = "error"
)

// Metrics contains all Prometheus metrics for the application
type Metrics struct {
	SignRequests    *prometheus.CounterVec
	VerifyRequests  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	ConnectedClients prometheus.Gauge
	ReceiptsStored   prometheus.Counter
}

// NewMetrics initializes and registers Prometheus metrics
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(nil)
}

// NewMetricsWithRegistry initializes and registers Prometheus metrics with a custom registry
func NewMetricsWithRegistry(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		SignRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "receipt_signer_sign_requests_total",
				Help: "The total number of sign requests by transport and outcome",
			},
			[]string{"transport", "status"},
		),
		VerifyRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "receipt_signer_verify_requests_total",
				Help: "The total number of verify requests by transport and outcome",
			},
			[]string{"transport", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "receipt_signer_request_duration_seconds",
				Help:    "Time spent serving a request",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"transport", "method"},
		),
		ConnectedClients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "receipt_signer_connected_clients",
			Help: "The current number of connected WebSocket clients",
		}),
		ReceiptsStored: factory.NewCounter(prometheus.CounterOpts{
			Name: "receipt_signer_receipts_stored_total",
			Help: "The total number of receipts recorded in the store",
		}),
	}
}

// outcomeStatus classifies a sign or verify result for the status label.
func outcomeStatus(err error) string {
	switch {
	case err == nil:
		return statusOK
	case errors.Is(err, sign.ErrInvalidEncoding):
		return statusInvalidEncoding
	case errors.Is(err, sign.ErrInvalidSignatureFormat):
		return statusInvalidFormat
	case errors.Is(err, sign.ErrSignatureMismatch):
		return statusMismatch
	default:
		return statusError
	}
}
