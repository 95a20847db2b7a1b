package qos

import "time"

// Recorder receives delivery-handshake events for observability. A nil
// Recorder is replaced with a no-op implementation by New — callers that
// want metrics wire in metrics.PrometheusRecorder.
type Recorder interface {
	// IncInflight adjusts the in-flight gauge for direction/qos by delta
	// (+1 when a message enters the store, -1 when it leaves).
	IncInflight(direction string, qos byte, delta int)
	// IncRetry counts one retransmission of an unacknowledged message.
	IncRetry(direction string, qos byte)
	// ObserveRoundTrip records the time from a message's last transmission
	// (its entry into the in-flight store, or its most recent retry) to its
	// handshake completing.
	ObserveRoundTrip(direction string, qos byte, d time.Duration)
}

type noopRecorder struct{}

func (noopRecorder) IncInflight(string, byte, int)          {}
func (noopRecorder) IncRetry(string, byte)                  {}
func (noopRecorder) ObserveRoundTrip(string, byte, time.Duration) {}
