// Package telemetry exports decoder events as Prometheus metrics.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/observe-l/idspolar/fec"
)

// PrometheusObserver implements fec.DecodeObserver.
type PrometheusObserver struct {
	latency   *prometheus.HistogramVec
	decodes   *prometheus.CounterVec
	survivors prometheus.Histogram
	valid     prometheus.Histogram
	obsLen    prometheus.Histogram
}

// NewPrometheusObserver builds the collectors and registers them with reg.
// A nil reg registers with the default registry.
func NewPrometheusObserver(reg prometheus.Registerer) *PrometheusObserver {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	o := &PrometheusObserver{
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "idspolar_decode_latency_seconds",
			Help:    "Latency of list decodes",
			Buckets: prometheus.ExponentialBuckets(1e-5, 4, 10),
		}, []string{"status"}),
		decodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "idspolar_decodes_total",
			Help: "Decodes by outcome",
		}, []string{"status"}),
		survivors: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "idspolar_decode_survivors",
			Help:    "Size of the final list",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8),
		}),
		valid: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "idspolar_decode_valid_survivors",
			Help:    "Survivors passing the checksum",
			Buckets: []float64{0, 1, 2, 4, 8, 16, 32},
		}),
		obsLen: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "idspolar_observation_length_ratio",
			Help:    "Received length over code length",
			Buckets: prometheus.LinearBuckets(0.8, 0.05, 9),
		}),
	}
	reg.MustRegister(o.latency, o.decodes, o.survivors, o.valid, o.obsLen)
	return o
}

func status(verified bool) string {
	if verified {
		return "verified"
	}
	return "unverified"
}

func (o *PrometheusObserver) ObserveDecode(e fec.DecodeEvent) {
	s := status(e.Verified)
	o.latency.WithLabelValues(s).Observe(e.Duration.Seconds())
	o.decodes.WithLabelValues(s).Inc()
	o.survivors.Observe(float64(e.Survivors))
	o.valid.Observe(float64(e.Valid))
	if e.N > 0 {
		o.obsLen.Observe(float64(e.Observations) / float64(e.N))
	}
}
