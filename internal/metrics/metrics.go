// Package metrics provides Prometheus metrics for the filedeck client.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	listingRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filedeck_listing_requests_total",
			Help: "Total number of listing requests by view and outcome",
		},
		[]string{"view", "status"},
	)

	listingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "filedeck_listing_duration_seconds",
			Help:    "Listing request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"view"},
	)

	staleResponsesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "filedeck_stale_responses_total",
			Help: "Listing responses discarded because a newer navigation started",
		},
	)

	mutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filedeck_mutations_total",
			Help: "Total number of mutations by operation and outcome",
		},
		[]string{"op", "status"},
	)

	uploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filedeck_uploads_total",
			Help: "Total number of file uploads by outcome",
		},
		[]string{"status"},
	)

	uploadBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "filedeck_upload_bytes_total",
			Help: "Total bytes uploaded",
		},
	)

	changeNoticesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filedeck_change_notices_total",
			Help: "Change feed notices received by type",
		},
		[]string{"type"},
	)
)

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordListing records a resolved listing request.
func RecordListing(view string, duration time.Duration, err error) {
	listingRequestsTotal.WithLabelValues(view, status(err)).Inc()
	listingDuration.WithLabelValues(view).Observe(duration.Seconds())
}

// RecordStaleResponse records a discarded listing response.
func RecordStaleResponse() {
	staleResponsesTotal.Inc()
}

// RecordMutation records a mutation outcome.
func RecordMutation(op string, err error) {
	mutationsTotal.WithLabelValues(op, status(err)).Inc()
}

// RecordUpload records a single file upload.
func RecordUpload(size int64, err error) {
	uploadsTotal.WithLabelValues(status(err)).Inc()
	if err == nil && size > 0 {
		uploadBytesTotal.Add(float64(size))
	}
}

// RecordChangeNotice records a change feed message.
func RecordChangeNotice(kind string) {
	changeNoticesTotal.WithLabelValues(kind).Inc()
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr until ctx is canceled.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
