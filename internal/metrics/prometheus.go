package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the emotion client
type Metrics struct {
	// Recording session metrics
	RecordingsStarted   prometheus.Counter
	RecordingsCompleted prometheus.Counter
	RecordingsFailed    prometheus.Counter
	ActiveRecordings    prometheus.Gauge
	RecordingDuration   prometheus.Histogram
	CaptureBytes        prometheus.Counter

	// Level meter metrics
	MeterWindows     prometheus.Counter
	SilentRecordings prometheus.Counter

	// Re-encoding metrics
	Reencodes         *prometheus.CounterVec
	ReencodeFallbacks prometheus.Counter
	ReencodeDuration  prometheus.Histogram

	// Upload metrics
	UploadRequests      prometheus.Counter
	UploadSuccesses     prometheus.Counter
	UploadFailures      prometheus.Counter
	UploadRetries       prometheus.Counter
	UploadDuration      prometheus.Histogram
	UploadBytes         prometheus.Histogram
	PreservedRecordings prometheus.Counter

	// Backend interaction metrics
	TextAnalyses   prometheus.Counter
	ChatMessages   prometheus.Counter
	BackendHealthy prometheus.Gauge

	// Diagnostics API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		// Recording session metrics
		RecordingsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "emotion_recordings_started_total",
			Help: "Total number of recording sessions started",
		}),
		RecordingsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "emotion_recordings_completed_total",
			Help: "Total number of recording sessions completed with a prediction",
		}),
		RecordingsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "emotion_recordings_failed_total",
			Help: "Total number of recording sessions that ended in an error",
		}),
		ActiveRecordings: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "emotion_active_recordings",
			Help: "Current number of in-flight recording sessions",
		}),
		RecordingDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "emotion_recording_duration_seconds",
			Help:    "Duration of finished recordings in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 8), // 0.5s to ~1 minute
		}),
		CaptureBytes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "emotion_capture_bytes_total",
			Help: "Total number of raw PCM bytes captured from the microphone",
		}),

		// Level meter metrics
		MeterWindows: promauto.NewCounter(prometheus.CounterOpts{
			Name: "emotion_meter_windows_total",
			Help: "Total number of level meter windows analyzed",
		}),
		SilentRecordings: promauto.NewCounter(prometheus.CounterOpts{
			Name: "emotion_silent_recordings_total",
			Help: "Total number of recordings flagged as silent before upload",
		}),

		// Re-encoding metrics
		Reencodes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "emotion_reencodes_total",
			Help: "Total number of captures re-encoded to PCM WAV",
		}, []string{"format"}),
		ReencodeFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "emotion_reencode_fallbacks_total",
			Help: "Total number of captures uploaded unmodified after a decode failure",
		}),
		ReencodeDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "emotion_reencode_duration_seconds",
			Help:    "Time spent decoding and re-encoding captures",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10), // 1ms to ~1s
		}),

		// Upload metrics
		UploadRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "emotion_upload_requests_total",
			Help: "Total number of prediction uploads attempted",
		}),
		UploadSuccesses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "emotion_upload_successes_total",
			Help: "Total number of prediction uploads that returned a result",
		}),
		UploadFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "emotion_upload_failures_total",
			Help: "Total number of prediction uploads that failed after retries",
		}),
		UploadRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "emotion_upload_retries_total",
			Help: "Total number of prediction upload retries",
		}),
		UploadDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "emotion_upload_duration_seconds",
			Help:    "Duration of prediction uploads",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~2 minutes
		}),
		UploadBytes: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "emotion_upload_size_bytes",
			Help:    "Size of uploaded audio containers in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 2, 12), // 1KB to ~4MB
		}),
		PreservedRecordings: promauto.NewCounter(prometheus.CounterOpts{
			Name: "emotion_preserved_recordings_total",
			Help: "Total number of containers preserved to disk after failed uploads",
		}),

		// Backend interaction metrics
		TextAnalyses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "emotion_text_analyses_total",
			Help: "Total number of text analysis requests sent",
		}),
		ChatMessages: promauto.NewCounter(prometheus.CounterOpts{
			Name: "emotion_chat_messages_total",
			Help: "Total number of wellness chat messages sent",
		}),
		BackendHealthy: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "emotion_backend_healthy",
			Help: "Whether the last backend health check succeeded (1) or failed (0)",
		}),

		// Diagnostics API metrics
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "emotion_http_requests_total",
			Help: "Total number of diagnostics HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "emotion_http_request_duration_seconds",
			Help:    "Duration of diagnostics HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		HTTPErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "emotion_http_errors_total",
			Help: "Total number of diagnostics HTTP errors",
		}, []string{"method", "endpoint", "error_type"}),
	}
}

// RecordRecordingStarted marks a new recording session
func (m *Metrics) RecordRecordingStarted() {
	m.RecordingsStarted.Inc()
	m.ActiveRecordings.Set(1)
}

// RecordRecordingCompleted records a finished recording session
func (m *Metrics) RecordRecordingCompleted(durationSeconds float64) {
	m.RecordingsCompleted.Inc()
	m.RecordingDuration.Observe(durationSeconds)
	m.ActiveRecordings.Set(0)
}

// RecordRecordingFailed records a recording session that ended in an error
func (m *Metrics) RecordRecordingFailed() {
	m.RecordingsFailed.Inc()
	m.ActiveRecordings.Set(0)
}

// RecordCaptureChunk counts raw bytes arriving from the microphone
func (m *Metrics) RecordCaptureChunk(sizeBytes int) {
	m.CaptureBytes.Add(float64(sizeBytes))
}

// RecordMeterWindows counts analyzed level meter windows
func (m *Metrics) RecordMeterWindows(count int) {
	m.MeterWindows.Add(float64(count))
}

// RecordSilentRecording counts a recording flagged as silent
func (m *Metrics) RecordSilentRecording() {
	m.SilentRecordings.Inc()
}

// RecordReencode records a successful re-encode of the given source format
func (m *Metrics) RecordReencode(format string, durationSeconds float64) {
	m.Reencodes.WithLabelValues(format).Inc()
	m.ReencodeDuration.Observe(durationSeconds)
}

// RecordReencodeFallback counts a capture passed through after a decode failure
func (m *Metrics) RecordReencodeFallback() {
	m.ReencodeFallbacks.Inc()
}

// RecordUploadRequest counts an attempted prediction upload
func (m *Metrics) RecordUploadRequest(sizeBytes int) {
	m.UploadRequests.Inc()
	m.UploadBytes.Observe(float64(sizeBytes))
}

// RecordUploadSuccess records a successful prediction upload
func (m *Metrics) RecordUploadSuccess(durationSeconds float64) {
	m.UploadSuccesses.Inc()
	m.UploadDuration.Observe(durationSeconds)
}

// RecordUploadFailure records a prediction upload that failed after retries
func (m *Metrics) RecordUploadFailure(durationSeconds float64) {
	m.UploadFailures.Inc()
	m.UploadDuration.Observe(durationSeconds)
}

// RecordUploadRetries adds to the retry counter
func (m *Metrics) RecordUploadRetries(count int) {
	m.UploadRetries.Add(float64(count))
}

// RecordPreservedRecording counts a container kept on disk after a failed upload
func (m *Metrics) RecordPreservedRecording() {
	m.PreservedRecordings.Inc()
}

// RecordTextAnalysis counts a text analysis request
func (m *Metrics) RecordTextAnalysis() {
	m.TextAnalyses.Inc()
}

// RecordChatMessage counts a wellness chat message
func (m *Metrics) RecordChatMessage() {
	m.ChatMessages.Inc()
}

// SetBackendHealthy publishes the result of the last health check
func (m *Metrics) SetBackendHealthy(healthy bool) {
	if healthy {
		m.BackendHealthy.Set(1)
	} else {
		m.BackendHealthy.Set(0)
	}
}

// RecordHTTPRequest records a diagnostics HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordHTTPError records a diagnostics HTTP error
func (m *Metrics) RecordHTTPError(method, endpoint, errorType string) {
	m.HTTPErrors.WithLabelValues(method, endpoint, errorType).Inc()
}
