package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "media_pipeline"

// Job outcomes reported by the transcoding worker.
const (
	OutcomeProcessed   = "processed"
	OutcomePartial     = "partial"
	OutcomeSoftFailure = "soft_failure"
	OutcomeNotFound    = "not_found"
	OutcomeError       = "error"
)

// Metrics holds the Prometheus collectors of the API and the worker.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	jobs              *prometheus.CounterVec
	renditions        *prometheus.CounterVec
	transcodeDuration *prometheus.HistogramVec
	uploadLinks       *prometheus.CounterVec
}

// MustNew registers the collectors on reg, reusing already registered ones.
func MustNew(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "transcode_jobs_total",
			Help:      "Transcode jobs handled, by outcome.",
		}, []string{"outcome"}),
		renditions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "renditions_total",
			Help:      "Renditions attempted, by suffix and outcome.",
		}, []string{"suffix", "outcome"}),
		transcodeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "transcode_duration_seconds",
			Help:      "Time spent running the transcoder for one rendition.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
		}, []string{"suffix"}),
		uploadLinks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "upload_links_issued_total",
			Help:      "Signed upload links issued, by bucket.",
		}, []string{"bucket"}),
	}

	m.jobs = register(reg, m.jobs)
	m.renditions = register(reg, m.renditions)
	m.transcodeDuration = register(reg, m.transcodeDuration)
	m.uploadLinks = register(reg, m.uploadLinks)
	return m
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func (m *Metrics) IncJob(outcome string) {
	if m == nil {
		return
	}
	m.jobs.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncRendition(suffix string, ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "skipped"
	}
	m.renditions.WithLabelValues(suffix, outcome).Inc()
}

func (m *Metrics) ObserveTranscode(suffix string, d time.Duration) {
	if m == nil {
		return
	}
	m.transcodeDuration.WithLabelValues(suffix).Observe(d.Seconds())
}

func (m *Metrics) IncUploadLink(bucket string) {
	if m == nil {
		return
	}
	m.uploadLinks.WithLabelValues(bucket).Inc()
}

// Handler exposes the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
