// Package metrics holds the Prometheus instrumentation for the document
// pipeline and the signing workflow.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	DocumentsComposed  prometheus.Counter
	PagesProduced      prometheus.Counter
	HardBreaksTotal    prometheus.Counter
	PaginationDuration prometheus.Histogram
	ExportsTotal       *prometheus.CounterVec
	SignaturesRecorded *prometheus.CounterVec
	SignatureRejected  *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		DocumentsComposed: f.NewCounter(prometheus.CounterOpts{
			Name: "contratos_documents_composed_total",
			Help: "Documents composed from template plus placeholder dictionary.",
		}),
		PagesProduced: f.NewCounter(prometheus.CounterOpts{
			Name: "contratos_pages_produced_total",
			Help: "Page slices produced by the pagination engine.",
		}),
		HardBreaksTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "contratos_hard_breaks_total",
			Help: "Page breaks forced at the ideal offset because no whitespace band qualified.",
		}),
		PaginationDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "contratos_pagination_duration_seconds",
			Help:    "Wall time of raster pagination per document.",
			Buckets: prometheus.DefBuckets,
		}),
		ExportsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "contratos_exports_total",
			Help: "Document exports by outcome.",
		}, []string{"outcome"}),
		SignaturesRecorded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "contratos_signatures_recorded_total",
			Help: "Signatures recorded by party.",
		}, []string{"party"}),
		SignatureRejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "contratos_signature_rejections_total",
			Help: "Signature attempts rejected before submission, by reason code.",
		}, []string{"code"}),
	}
}
