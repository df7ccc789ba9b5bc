// Package metrics exposes Prometheus instrumentation for catalog fetches and
// ingredient resolutions, plus an optional /metrics HTTP server.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/FranksOps/forager/internal/product"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FetchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forager_catalog_requests_total",
			Help: "Total number of catalog search requests executed",
		},
		[]string{"status"},
	)

	FetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "forager_catalog_request_duration_seconds",
			Help:    "Duration of catalog search requests in seconds, retries included",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
	)

	FallbackDepth = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "forager_fallback_depth",
			Help:    "Number of search terms tried per ingredient resolution",
			Buckets: []float64{1, 2, 3, 4, 5},
		},
	)

	ResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forager_resolutions_total",
			Help: "Total ingredient resolutions by terminal status",
		},
		[]string{"status"},
	)

	BatchCost = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "forager_batch_total_cost",
			Help: "Total estimated cost of the most recent resolution batch",
		},
	)
)

// RecordFetch updates fetch metrics for one catalog request.
func RecordFetch(statusCode int, err error, duration time.Duration) {
	status := strconv.Itoa(statusCode)
	if err != nil && statusCode == 0 {
		status = "error"
	}

	FetchRequestsTotal.WithLabelValues(status).Inc()
	FetchDuration.Observe(duration.Seconds())
}

// RecordResolution updates resolution metrics for one finished ingredient.
func RecordResolution(res *product.ResolutionResult) {
	if res == nil {
		return
	}
	ResolutionsTotal.WithLabelValues(string(res.Status)).Inc()
	if len(res.Attempts) > 0 {
		FallbackDepth.Observe(float64(len(res.Attempts)))
	}
}

// RecordBatch updates batch-level metrics.
func RecordBatch(batch *product.ResolutionBatch) {
	if batch == nil {
		return
	}
	BatchCost.Set(batch.TotalCost)
}

// Server encapsulates an HTTP server for Prometheus metrics.
type Server struct {
	srv *http.Server
}

// Start begins listening on the specified port and exposes /metrics.
func Start(port int) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		// Suppress the error from intentional shutdown
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("metrics server failed: %v\n", err)
		}
	}()

	return &Server{srv: srv}
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
