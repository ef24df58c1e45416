// Package metrics exposes conversion counters in the Prometheus format.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ginjaninja78/csv-customiser/internal/converter"
	"github.com/ginjaninja78/csv-customiser/internal/validation"
)

const namespace = "customiser"

// Recorder holds the conversion counters. It implements converter.Observer.
type Recorder struct {
	registry *prometheus.Registry

	conversions  *prometheus.CounterVec
	failures     *prometheus.CounterVec
	rows         prometheus.Counter
	outcomes     *prometheus.CounterVec
	destinations *prometheus.CounterVec
	warnings     *prometheus.CounterVec
}

var _ converter.Observer = (*Recorder)(nil)

// New creates a Recorder with its own registry. Go runtime and process
// collectors are registered alongside the conversion counters.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		conversions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversions_total",
			Help:      "Successful conversions by input and output format.",
		}, []string{"input", "output"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversion_failures_total",
			Help:      "Failed conversions by input format and reason.",
		}, []string{"input", "reason"}),
		rows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_processed_total",
			Help:      "Data rows transformed.",
		}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_outcomes_total",
			Help:      "Rows changed by each rule.",
		}, []string{"rule"}),
		destinations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "destinations_total",
			Help:      "Rows by shipping destination.",
		}, []string{"destination"}),
		warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discovery_warnings_total",
			Help:      "Column discovery findings by severity.",
		}, []string{"severity"}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.conversions,
		r.failures,
		r.rows,
		r.outcomes,
		r.destinations,
		r.warnings,
	)
	return r
}

// ObserveConversion records a successful conversion.
func (r *Recorder) ObserveConversion(inputFormat, outputFormat string, stats converter.Stats, warnings []validation.Warning) {
	r.conversions.WithLabelValues(inputFormat, outputFormat).Inc()
	r.rows.Add(float64(stats.Rows))

	r.outcomes.WithLabelValues("weight_assigned").Add(float64(stats.WeightsAssigned))
	r.outcomes.WithLabelValues("ioss_marked").Add(float64(stats.IOSSMarked))
	r.outcomes.WithLabelValues("phone_filled").Add(float64(stats.PhonesFilled))
	r.outcomes.WithLabelValues("name_blanked").Add(float64(stats.NamesBlanked))
	r.outcomes.WithLabelValues("price_redacted").Add(float64(stats.PricesRedacted))

	r.destinations.WithLabelValues(converter.DestinationUSA.String()).Add(float64(stats.USA))
	r.destinations.WithLabelValues(converter.DestinationUK.String()).Add(float64(stats.UK))
	r.destinations.WithLabelValues(converter.DestinationOther.String()).Add(float64(stats.Other))

	for _, w := range warnings {
		r.warnings.WithLabelValues(w.Severity).Inc()
	}
}

// ObserveFailure records a failed conversion.
func (r *Recorder) ObserveFailure(inputFormat string, err error) {
	r.failures.WithLabelValues(inputFormat, Reason(err)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Reason maps an error to a low-cardinality label value.
func Reason(err error) string {
	switch {
	case errors.Is(err, validation.ErrUnsupportedUpload):
		return "unsupported"
	case errors.Is(err, validation.ErrUploadTooLarge):
		return "too_large"
	case errors.Is(err, converter.ErrParse):
		return "parse"
	default:
		return "io"
	}
}
