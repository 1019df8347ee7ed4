package metrics

import "github.com/prometheus/client_golang/prometheus"

// IngestMetrics exposes counters/histograms for the lead ingestion pipeline
// and outbound campaign sends.
type IngestMetrics struct {
	rowsTotal     *prometheus.CounterVec
	batchesTotal  *prometheus.CounterVec
	insertLatency prometheus.Histogram
	sendsTotal    *prometheus.CounterVec
}

func NewIngestMetrics(reg prometheus.Registerer) *IngestMetrics {
	m := &IngestMetrics{
		rowsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadline",
			Subsystem: "ingest",
			Name:      "rows_total",
			Help:      "Total ingested rows by assigned status",
		}, []string{"status"}),
		batchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadline",
			Subsystem: "ingest",
			Name:      "batches_total",
			Help:      "Total upload batches by outcome",
		}, []string{"result"}),
		insertLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "leadline",
			Subsystem: "ingest",
			Name:      "insert_latency_seconds",
			Help:      "Latency of the batch insert call",
			Buckets:   prometheus.DefBuckets,
		}),
		sendsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadline",
			Subsystem: "campaigns",
			Name:      "sends_total",
			Help:      "Total campaign test sends by outcome",
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.rowsTotal, m.batchesTotal, m.insertLatency, m.sendsTotal)
	return m
}

func (m *IngestMetrics) ObserveRow(status string) {
	if m == nil {
		return
	}
	m.rowsTotal.WithLabelValues(status).Inc()
}

func (m *IngestMetrics) ObserveBatch(result string) {
	if m == nil {
		return
	}
	m.batchesTotal.WithLabelValues(result).Inc()
}

func (m *IngestMetrics) ObserveInsertLatency(seconds float64) {
	if m == nil {
		return
	}
	m.insertLatency.Observe(seconds)
}

func (m *IngestMetrics) ObserveSend(status string) {
	if m == nil {
		return
	}
	m.sendsTotal.WithLabelValues(status).Inc()
}
