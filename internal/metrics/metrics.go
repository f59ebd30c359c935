// Package metrics exposes Prometheus instrumentation for scan and catalog
// activity, served at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gin-gonic/gin"
)

var (
	// FilesScanned counts files visited by the drive scanner
	FilesScanned = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "vaultkeeper",
		Subsystem: "scanner",
		Name:      "files_scanned_total",
		Help:      "Total number of files visited by drive scans.",
	})

	// ScanFailures counts per-file extraction failures
	ScanFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "vaultkeeper",
		Subsystem: "scanner",
		Name:      "file_failures_total",
		Help:      "Total number of files that failed extraction during scans.",
	})

	// ScanDuration observes wall-clock scan duration per drive
	ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "vaultkeeper",
		Subsystem: "scanner",
		Name:      "scan_duration_seconds",
		Help:      "Duration of full drive scans.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 14), // 1s .. ~2h
	})

	// AssetsReconciled counts reconciler outcomes by result
	AssetsReconciled = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vaultkeeper",
		Subsystem: "catalog",
		Name:      "assets_reconciled_total",
		Help:      "Catalog reconciliation outcomes partitioned by result.",
	}, []string{"result"}) // created, updated, skipped, failed

	// ThumbnailsGenerated counts generated thumbnails by media type
	ThumbnailsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vaultkeeper",
		Subsystem: "catalog",
		Name:      "thumbnails_generated_total",
		Help:      "Thumbnails generated during reconciliation by media type.",
	}, []string{"media_type"})

	// DrivesRegistered tracks registered drives by status
	DrivesRegistered = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "vaultkeeper",
		Subsystem: "registry",
		Name:      "drives",
		Help:      "Number of registered drives partitioned by status.",
	}, []string{"status"})

	// LocationsOccupied tracks shelf slot usage by status
	LocationsOccupied = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "vaultkeeper",
		Subsystem: "registry",
		Name:      "locations",
		Help:      "Number of shelf locations partitioned by status.",
	}, []string{"status"})

	// HTTPRequests counts API requests by method, path, and status
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vaultkeeper",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests partitioned by method, route, and status code.",
	}, []string{"method", "route", "status"})
)

// Handler returns a gin handler serving the Prometheus exposition format
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
