// Package metrics exposes Prometheus counters for the discovery and
// extraction pipelines and serves them over HTTP.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/FranksOps/harrier/internal/product"
)

var (
	DiscoveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harrier_discoveries_total",
			Help: "Total number of endpoint discovery attempts",
		},
		[]string{"outcome"},
	)

	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harrier_extractions_total",
			Help: "Total number of listing extraction attempts",
		},
		[]string{"strategy", "outcome"},
	)

	ProductsExtractedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harrier_products_extracted_total",
			Help: "Total products extracted from listing pages",
		},
		[]string{"platform"},
	)

	SessionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "harrier_session_duration_seconds",
			Help:    "Duration of browser sessions in seconds",
			Buckets: []float64{1, 2, 5, 10, 20, 40, 60, 120},
		},
		[]string{"phase"},
	)

	SettleAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "harrier_settle_attempts",
			Help:    "Scroll and load-more rounds spent settling a page",
			Buckets: []float64{1, 2, 3, 4, 6, 8, 12},
		},
	)
)

// RecordDiscovery counts one discovery attempt. Outcomes are "ok",
// "degraded", and "error".
func RecordDiscovery(degraded bool, err error) {
	switch {
	case err != nil:
		DiscoveriesTotal.WithLabelValues("error").Inc()
	case degraded:
		DiscoveriesTotal.WithLabelValues("degraded").Inc()
	default:
		DiscoveriesTotal.WithLabelValues("ok").Inc()
	}
}

// RecordSettle observes how many settle rounds a page load needed.
func RecordSettle(attempts int) {
	SettleAttempts.Observe(float64(attempts))
}

// RecordExtraction counts one extraction result and the products it yielded.
func RecordExtraction(res *product.Result) {
	if res == nil {
		return
	}

	outcome := "ok"
	switch {
	case res.Error != "":
		outcome = "error"
	case res.LowConfidence:
		outcome = "low_confidence"
	case len(res.Products) == 0:
		outcome = "empty"
	}

	strategy := res.Strategy
	if strategy == "" {
		strategy = "none"
	}

	ExtractionsTotal.WithLabelValues(strategy, outcome).Inc()
	if len(res.Products) > 0 {
		ProductsExtractedTotal.WithLabelValues(res.Platform).Add(float64(len(res.Products)))
	}
	SessionDuration.WithLabelValues("extract").Observe(res.Duration.Seconds())
}

// Server encapsulates the HTTP server exposing /metrics and /health.
type Server struct {
	srv *http.Server
}

// Start begins listening on the specified port.
func Start(port int) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","time":%q}`, time.Now().UTC().Format(time.RFC3339))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintln(w, "harrier metrics server")
		fmt.Fprintln(w, "  /metrics - Prometheus exposition")
		fmt.Fprintln(w, "  /health  - liveness probe")
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
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
