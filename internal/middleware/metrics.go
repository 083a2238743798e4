package middleware

import (
	"net/http"
	"runtime"
	"sync/atomic"
	"time"
)

// Metrics stores application metrics
type Metrics struct {
	RequestsTotal      atomic.Uint64
	RequestsInProgress atomic.Int64
	RequestsSuccess    atomic.Uint64
	RequestsFailed     atomic.Uint64
	BatchesTotal       atomic.Uint64
	BatchesRunning     atomic.Int64
	BatchesFailed      atomic.Uint64
	FilesTotal         atomic.Uint64
	StartTime          time.Time
}

var globalMetrics = &Metrics{
	StartTime: time.Now(),
}

// BatchStarted records a batch entering the pipeline with n files.
func BatchStarted(n int) {
	globalMetrics.BatchesTotal.Add(1)
	globalMetrics.BatchesRunning.Add(1)
	globalMetrics.FilesTotal.Add(uint64(n))
}

// BatchFinished records the end of a batch.
func BatchFinished(err error) {
	globalMetrics.BatchesRunning.Add(-1)
	if err != nil {
		globalMetrics.BatchesFailed.Add(1)
	}
}

// GetMetrics returns current metrics
func GetMetrics() map[string]any {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return map[string]any{
		"requests_total":       globalMetrics.RequestsTotal.Load(),
		"requests_in_progress": globalMetrics.RequestsInProgress.Load(),
		"requests_success":     globalMetrics.RequestsSuccess.Load(),
		"requests_failed":      globalMetrics.RequestsFailed.Load(),
		"batches_total":        globalMetrics.BatchesTotal.Load(),
		"batches_running":      globalMetrics.BatchesRunning.Load(),
		"batches_failed":       globalMetrics.BatchesFailed.Load(),
		"files_total":          globalMetrics.FilesTotal.Load(),
		"uptime_seconds":       time.Since(globalMetrics.StartTime).Seconds(),
		"memory": map[string]any{
			"alloc_bytes":       m.Alloc,
			"total_alloc_bytes": m.TotalAlloc,
			"sys_bytes":         m.Sys,
			"num_gc":            m.NumGC,
		},
		"goroutines": runtime.NumGoroutine(),
	}
}

// MetricsMiddleware tracks request metrics
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		globalMetrics.RequestsTotal.Add(1)
		globalMetrics.RequestsInProgress.Add(1)
		defer globalMetrics.RequestsInProgress.Add(-1)

		wrapped := wrapWriter(w)
		next.ServeHTTP(wrapped, r)

		if wrapped.statusCode >= 200 && wrapped.statusCode < 400 {
			globalMetrics.RequestsSuccess.Add(1)
		} else {
			globalMetrics.RequestsFailed.Add(1)
		}
	})
}

// MetricsHandler returns metrics as JSON
func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, GetMetrics())
}
