// Package metrics instruments System's own operation volume (C13),
// grounded on the prometheus/client_golang usage found across the
// retrieval pack (mohammed-shakir/h3-spatial-cache, flybeeper/fanet-backend)
// for service-level counters and histograms.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the collectors System registers against a
// caller-supplied registry — never prometheus.DefaultRegisterer, so
// multiple System instances in one process (as in tests) never collide
// on duplicate registration.
type Metrics struct {
	UpsertsTotal           *prometheus.CounterVec
	DeletesTotal           *prometheus.CounterVec
	CellQueriesTotal       prometheus.Counter
	RasterizeDuration      prometheus.Histogram
}

// New registers and returns a Metrics bound to reg. A nil reg is
// replaced with a private prometheus.NewRegistry(), so callers that
// don't care about scraping still get working (if unexported) counters.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		UpsertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oir_upserts_total",
			Help: "Total upsert calls, labeled by result (ok/error).",
		}, []string{"result"}),
		DeletesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oir_deletes_total",
			Help: "Total delete calls, labeled by result (ok/error).",
		}, []string{"result"}),
		CellQueriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "oir_cell_queries_total",
			Help: "Total GetByCell calls.",
		}),
		RasterizeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "oir_rasterize_duration_seconds",
			Help:    "ProcessPolygon wall-clock duration.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.UpsertsTotal, m.DeletesTotal, m.CellQueriesTotal, m.RasterizeDuration)
	return m
}

// ObserveUpsert records the result of an upsert call.
func (m *Metrics) ObserveUpsert(err error) {
	if err != nil {
		m.UpsertsTotal.WithLabelValues("error").Inc()
		return
	}
	m.UpsertsTotal.WithLabelValues("ok").Inc()
}

// ObserveDelete records the result of a delete call.
func (m *Metrics) ObserveDelete(err error) {
	if err != nil {
		m.DeletesTotal.WithLabelValues("error").Inc()
		return
	}
	m.DeletesTotal.WithLabelValues("ok").Inc()
}
