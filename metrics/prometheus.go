// Package metrics wires the client core's qos.Recorder interface to
// Prometheus, giving the pack's indirect prometheus/client_golang
// dependency a concrete, optional home. Nothing in qos or loop imports
// this package; embedders that want metrics construct a PrometheusRecorder
// and pass it to client.WithRecorder.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements qos.Recorder on top of a prometheus.Registerer.
type PrometheusRecorder struct {
	inflight  *prometheus.GaugeVec
	retries   *prometheus.CounterVec
	roundTrip *prometheus.HistogramVec
}

// NewPrometheusRecorder registers its collectors with reg and returns a
// Recorder ready to pass to client.WithRecorder. reg is typically
// prometheus.DefaultRegisterer.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	r := &PrometheusRecorder{
		inflight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "mqtt",
			Subsystem: "client",
			Name:      "inflight_messages",
			Help:      "Number of messages currently in the in-flight handshake store.",
		}, []string{"direction", "qos"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mqtt",
			Subsystem: "client",
			Name:      "retries_total",
			Help:      "Total number of message retransmissions due to an unanswered handshake.",
		}, []string{"direction", "qos"}),
		roundTrip: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mqtt",
			Subsystem: "client",
			Name:      "handshake_round_trip_seconds",
			Help:      "Time from a message's last transmission (first send or latest retry) to its handshake completing.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"direction", "qos"}),
	}
	reg.MustRegister(r.inflight, r.retries, r.roundTrip)
	return r
}

func (r *PrometheusRecorder) IncInflight(direction string, qos byte, delta int) {
	r.inflight.WithLabelValues(direction, qosLabel(qos)).Add(float64(delta))
}

func (r *PrometheusRecorder) IncRetry(direction string, qos byte) {
	r.retries.WithLabelValues(direction, qosLabel(qos)).Inc()
}

func (r *PrometheusRecorder) ObserveRoundTrip(direction string, qos byte, d time.Duration) {
	r.roundTrip.WithLabelValues(direction, qosLabel(qos)).Observe(d.Seconds())
}

func qosLabel(qos byte) string {
	return strconv.Itoa(int(qos))
}
