package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce        sync.Once
	apiRequestsTotal    *prometheus.CounterVec
	apiLatencySeconds   *prometheus.HistogramVec
	apiErrorsTotal      *prometheus.CounterVec
	submissionsTotal    *prometheus.CounterVec
	retriesTotal        prometheus.Counter
	badgesAwardedTotal  *prometheus.CounterVec
	redemptionsTotal    *prometheus.CounterVec
	attachmentLatency   prometheus.Histogram
	attachmentsRejected *prometheus.CounterVec
	summaryCacheTotal   *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors for the API and the progress engine.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		submissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "progress_submissions_total",
			Help: "Submissions recorded, partitioned by graded outcome.",
		}, []string{"outcome"})

		retriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "progress_retries_total",
			Help: "Effective submissions superseded by a retry.",
		})

		badgesAwardedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "progress_badges_awarded_total",
			Help: "Badges granted, partitioned by badge id.",
		}, []string{"badge"})

		redemptionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "progress_redemptions_total",
			Help: "Reward redemption attempts, partitioned by result.",
		}, []string{"result"})

		attachmentLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "progress_attachment_upload_seconds",
			Help:    "Time spent validating and storing answer attachments.",
			Buckets: prometheus.DefBuckets,
		})

		attachmentsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "progress_attachments_rejected_total",
			Help: "Answer attachments rejected, partitioned by reason.",
		}, []string{"reason"})

		summaryCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "progress_summary_cache_total",
			Help: "Progress summary cache lookups, partitioned by result.",
		}, []string{"result"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			submissionsTotal,
			retriesTotal,
			badgesAwardedTotal,
			redemptionsTotal,
			attachmentLatency,
			attachmentsRejected,
			summaryCacheTotal,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// Submissions counts recorded submissions by outcome.
func Submissions() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsTotal
}

// Retries counts superseded submissions.
func Retries() prometheus.Counter {
	RegisterMetrics()
	return retriesTotal
}

// BadgesAwarded counts badge grants.
func BadgesAwarded() *prometheus.CounterVec {
	RegisterMetrics()
	return badgesAwardedTotal
}

// Redemptions counts redemption attempts by result.
func Redemptions() *prometheus.CounterVec {
	RegisterMetrics()
	return redemptionsTotal
}

// AttachmentLatency observes attachment handling time.
func AttachmentLatency() prometheus.Histogram {
	RegisterMetrics()
	return attachmentLatency
}

// AttachmentsRejected counts rejected attachments.
func AttachmentsRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return attachmentsRejected
}

// SummaryCache counts progress summary cache hits and misses.
func SummaryCache() *prometheus.CounterVec {
	RegisterMetrics()
	return summaryCacheTotal
}
