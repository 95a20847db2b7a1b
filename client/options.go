package client

import (
	"time"

	"github.com/nimbusmq/core/qos"
	"github.com/nimbusmq/core/session"
)

type config struct {
	keepAlive    time.Duration
	cleanSession bool
	recorder     qos.Recorder
	will         *session.Will
}

func defaultConfig() *config {
	return &config{
		keepAlive:    60 * time.Second,
		cleanSession: true,
	}
}

// Option configures a Client at construction time.
type Option func(*config)

// WithKeepAlive sets the keep-alive interval (spec.md §4.3). Zero
// disables keep-alive entirely.
func WithKeepAlive(d time.Duration) Option {
	return func(c *config) { c.keepAlive = d }
}

// WithCleanSession sets the CONNECT clean-session flag (spec.md §4.1).
func WithCleanSession(clean bool) Option {
	return func(c *config) { c.cleanSession = clean }
}

// WithRecorder wires an observability Recorder (spec.md §9's "injected
// recorder" design note) into the client's QoS machine. The default is a
// no-op.
func WithRecorder(r qos.Recorder) Option {
	return func(c *config) { c.recorder = r }
}

// WithWill registers a last-will message to be sent with the CONNECT.
func WithWill(w *session.Will) Option {
	return func(c *config) { c.will = w }
}
