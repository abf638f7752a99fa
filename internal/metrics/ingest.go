package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ingestion pipeline metrics.
var (
	IngestPagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "profscope",
			Name:      "ingest_pages_total",
			Help:      "Total ingested pages by outcome (success/partial/error)",
		},
		[]string{"status"},
	)

	IngestChunksIndexed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "profscope",
			Name:      "ingest_chunks_indexed_total",
			Help:      "Total chunks upserted into the vector index",
		},
	)

	IngestReviewsClassified = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "profscope",
			Name:      "ingest_reviews_classified_total",
			Help:      "Total reviews classified by sentiment label",
		},
		[]string{"sentiment"},
	)
)

// RegisterIngestMetrics registers ingestion metrics explicitly (no init()).
func RegisterIngestMetrics() {
	prometheus.MustRegister(IngestPagesTotal)
	prometheus.MustRegister(IngestChunksIndexed)
	prometheus.MustRegister(IngestReviewsClassified)
}
