// README: Prometheus collectors for quotes, bookings and catalog reloads.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Quote results.
const (
	ResultOK          = "ok"
	ResultNoRule      = "no_rule"
	ResultInvalid     = "invalid"
	ResultConfigError = "config_error"
	ResultError       = "error"
)

var (
	Quotes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_quotes_total",
		Help: "Fare computations by result.",
	}, []string{"result"})

	QuoteDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pricing_quote_duration_seconds",
		Help:    "Time spent computing a fare, lookups included.",
		Buckets: prometheus.DefBuckets,
	})

	BookingsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookings_created_total",
		Help: "Bookings committed with a frozen fare.",
	})

	CatalogRules = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pricing_catalog_rules",
		Help: "Rules in the live pricing catalog.",
	})
)
