// Package metrics provides Prometheus metrics for the filepi server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filepi_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "filepi_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Content transfer metrics
	contentBytesDownloaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "filepi_content_bytes_downloaded_total",
			Help: "Total bytes served by file and stream endpoints",
		},
	)

	contentBytesUploaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "filepi_content_bytes_uploaded_total",
			Help: "Total bytes accepted by the upload endpoint",
		},
	)

	contentDownloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filepi_content_downloads_total",
			Help: "Total number of content downloads",
		},
		[]string{"status"},
	)

	contentUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filepi_content_uploads_total",
			Help: "Total number of content uploads",
		},
		[]string{"status"},
	)

	// Listing / traversal metrics
	listingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filepi_listings_total",
			Help: "Total directory listing, video and search requests",
		},
		[]string{"kind"},
	)

	walkDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "filepi_walk_duration_seconds",
			Help:    "Recursive traversal duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Thumbnail metrics
	thumbnailGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filepi_thumbnail_generations_total",
			Help: "Total thumbnail generations",
		},
		[]string{"status"},
	)

	thumbnailCacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filepi_thumbnail_cache_total",
			Help: "Thumbnail cache lookups",
		},
		[]string{"result"},
	)

	thumbnailCacheBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "filepi_thumbnail_cache_bytes",
			Help: "Current size of the in-memory thumbnail cache",
		},
	)

	// Mutation metrics
	mutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filepi_mutations_total",
			Help: "Total mutating operations",
		},
		[]string{"operation", "status"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records an HTTP request metric.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordContentDownload records a content download.
func RecordContentDownload(bytes int64, success bool) {
	contentBytesDownloaded.Add(float64(bytes))
	contentDownloadsTotal.WithLabelValues(statusLabel(success)).Inc()
}

// RecordContentUpload records a content upload.
func RecordContentUpload(bytes int64, success bool) {
	contentBytesUploaded.Add(float64(bytes))
	contentUploadsTotal.WithLabelValues(statusLabel(success)).Inc()
}

// RecordListing records a listing request by kind (files, videos, search).
func RecordListing(kind string) {
	listingsTotal.WithLabelValues(kind).Inc()
}

// RecordWalk records the duration of a recursive traversal.
func RecordWalk(duration time.Duration) {
	walkDuration.Observe(duration.Seconds())
}

// RecordThumbnailGeneration records a thumbnail generation outcome.
func RecordThumbnailGeneration(success bool) {
	thumbnailGenerationsTotal.WithLabelValues(statusLabel(success)).Inc()
}

// RecordThumbnailCacheLookup records a cache hit or miss.
func RecordThumbnailCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	thumbnailCacheHitsTotal.WithLabelValues(result).Inc()
}

// SetThumbnailCacheBytes sets the current thumbnail cache size.
func SetThumbnailCacheBytes(size int64) {
	thumbnailCacheBytes.Set(float64(size))
}

// RecordMutation records a mutating operation (createfolder, move).
func RecordMutation(operation string, success bool) {
	mutationsTotal.WithLabelValues(operation, statusLabel(success)).Inc()
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Middleware returns HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		RecordHTTPRequest(r.Method, r.URL.Path, rw.statusCode, time.Since(start))
	})
}
