package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		imageJobsProcessedTotal,
		imageJobLeasesTotal,
		imageJobQueueDepth,
	)
}

var imageJobsProcessedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "image_jobs_processed_total",
		Help: "Total number of spot-image jobs processed, labeled by outcome.",
	},
	[]string{"outcome"}, // 'succeeded', 'retried', 'failed'
)

var imageJobLeasesTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "image_job_leases_total",
		Help: "Total number of job leases acquired across all workers.",
	},
)

var imageJobQueueDepth = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "image_job_queue_depth",
		Help: "Current number of spot-image jobs per status.",
	},
	[]string{"status"},
)

func IncImageJob(outcome string) {
	imageJobsProcessedTotal.WithLabelValues(norm(outcome)).Inc()
}

func AddJobLeases(n int) {
	imageJobLeasesTotal.Add(float64(n))
}

func SetJobQueueDepth(status string, n int) {
	imageJobQueueDepth.WithLabelValues(norm(status)).Set(float64(n))
}
