package metrics

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusController exposes the metrics endpoint at a configurable path.
type PrometheusController struct {
	path string
}

func NewPrometheusController(path string) *PrometheusController {
	if path == "" {
		path = "/debug/prometheus"
	}
	return &PrometheusController{path: path}
}

func (c *PrometheusController) Key() string {
	return c.path
}

func (c *PrometheusController) Register(r *mux.Router) {
	r.Handle(c.path, promhttp.Handler()).Methods(http.MethodGet)
}

// ImportCollector aggregates counters for the client import pipeline.
type ImportCollector struct {
	RowsProcessed    prometheus.Counter
	Created          prometheus.Counter
	Updated          prometheus.Counter
	Failed           prometheus.Counter
	Skipped          prometheus.Counter
	PaymentAttempted prometheus.Counter
	PaymentAdded     prometheus.Counter
	Duration         prometheus.Histogram
}

func NewImportCollector(reg prometheus.Registerer) *ImportCollector {
	factory := promauto.With(reg)
	return &ImportCollector{
		RowsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "crm_import_rows_processed_total",
			Help: "Rows received by the client import pipeline.",
		}),
		Created: factory.NewCounter(prometheus.CounterOpts{
			Name: "crm_import_clients_created_total",
			Help: "Clients newly created by imports.",
		}),
		Updated: factory.NewCounter(prometheus.CounterOpts{
			Name: "crm_import_clients_updated_total",
			Help: "Existing clients updated by imports.",
		}),
		Failed: factory.NewCounter(prometheus.CounterOpts{
			Name: "crm_import_rows_failed_total",
			Help: "Rows rejected by the client import pipeline.",
		}),
		Skipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "crm_import_rows_skipped_total",
			Help: "Rows skipped by the client import pipeline.",
		}),
		PaymentAttempted: factory.NewCounter(prometheus.CounterOpts{
			Name: "crm_import_payment_attach_attempted_total",
			Help: "Payment-method attachments attempted after import.",
		}),
		PaymentAdded: factory.NewCounter(prometheus.CounterOpts{
			Name: "crm_import_payment_attach_added_total",
			Help: "Payment-method attachments persisted after import.",
		}),
		Duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "crm_import_duration_seconds",
			Help:    "Wall-clock duration of one import request.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
	}
}
