// Command mqttc is the thin CLI wrapper spec.md §6 names: it dials a
// single MQTT 3.1 connection, optionally subscribes or publishes once,
// and drives the connection loop until told to stop.
package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nimbusmq/core/callback"
	"github.com/nimbusmq/core/client"
	"github.com/nimbusmq/core/config"
	"github.com/nimbusmq/core/logging"
	"github.com/nimbusmq/core/packet"
	"github.com/nimbusmq/core/persist"
	"github.com/nimbusmq/core/transport"
)

const (
	exitOK           = 0
	exitConnectError = 1
	exitLoopError    = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to a YAML config file")
	subscribeTopic := flag.String("subscribe", "", "topic filter to subscribe to")
	publishTopic := flag.String("publish", "", "topic to publish to once after connecting")
	publishPayload := flag.String("payload", "", "payload for -publish")
	publishQoS := flag.Int("qos", 0, "QoS level for -subscribe/-publish (0, 1, or 2)")
	verbose := flag.Bool("v", false, "debug logging")
	resumeStore := flag.String("resume-store", "", "path to a Pebble database for non-clean-session resume")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := logging.NewSlogLogger(level, os.Stderr)

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Error("loading config", "error", err)
			return exitConnectError
		}
		cfg = loaded
	}
	if *resumeStore != "" {
		cfg.ResumeStorePath = *resumeStore
	}

	var store *persist.PebbleStore
	if cfg.ResumeStorePath != "" {
		var err error
		store, err = persist.NewPebbleStore(persist.PebbleStoreConfig{Path: cfg.ResumeStorePath})
		if err != nil {
			logger.Error("opening resume store", "path", cfg.ResumeStorePath, "error", err)
			return exitConnectError
		}
		defer store.Close()
	}

	conn, err := dial(cfg)
	if err != nil {
		logger.Error("dialing broker", "addr", cfg.Addr(), "error", err)
		return exitConnectError
	}
	defer conn.Close()

	tc := transport.NewConn(conn)

	opts := []client.Option{
		client.WithKeepAlive(cfg.KeepAlive),
		client.WithCleanSession(cfg.CleanSession),
	}
	c := client.New(tc, tc, cfg.ClientID, opts...)

	if store != nil && !cfg.CleanSession {
		if snap, err := store.Load(context.Background(), cfg.ClientID); err == nil {
			c.RestoreSession(snap)
			logger.Info("resumed session", "client_id", cfg.ClientID)
		} else if !errors.Is(err, persist.ErrNotFound) {
			logger.Warn("loading resume store", "error", err)
		}
	}

	connectErrCh := make(chan error, 1)
	c.SetOnConnect(func(r callback.ConnectResult) {
		if r.ReturnCode != packet.ConnAccepted {
			connectErrCh <- fmt.Errorf("broker refused connection: code %d", r.ReturnCode)
			return
		}
		connectErrCh <- nil
	})
	c.SetOnMessage(func(msg *packet.Message) {
		logger.Info("message received", "topic", msg.Topic, "qos", msg.QoS, "payload", string(msg.Payload))
	})
	c.SetOnDisconnect(func(err error) {
		logger.Warn("disconnected", "error", err)
	})

	if err := c.Connect(); err != nil {
		logger.Error("connect", "error", err)
		return exitConnectError
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := awaitConnack(c, connectErrCh, 10*time.Second); err != nil {
		logger.Error("connect", "error", err)
		return exitConnectError
	}
	logger.Info("connected", "client_id", cfg.ClientID, "addr", cfg.Addr())

	if *subscribeTopic != "" {
		if _, err := c.Subscribe(*subscribeTopic, packet.QoS(*publishQoS)); err != nil {
			logger.Error("subscribe", "error", err)
			return exitLoopError
		}
	}
	if *publishTopic != "" {
		if _, err := c.Publish(*publishTopic, []byte(*publishPayload), packet.QoS(*publishQoS), false); err != nil {
			logger.Error("publish", "error", err)
			return exitLoopError
		}
	}

	for {
		select {
		case <-ctx.Done():
			c.Disconnect()
			drainOutbound(c, logger)
			if store != nil && !cfg.CleanSession {
				if err := store.Save(context.Background(), cfg.ClientID, c.Snapshot()); err != nil {
					logger.Warn("saving resume store", "error", err)
				}
			}
			return exitOK
		default:
		}
		if err := c.LoopOnce(time.Second); err != nil {
			logger.Error("loop", "error", err)
			return exitLoopError
		}
	}
}

func dial(cfg config.Config) (net.Conn, error) {
	if !cfg.TLS.Enabled {
		return net.DialTimeout("tcp", cfg.Addr(), 10*time.Second)
	}

	tlsCfg := &tls.Config{InsecureSkipVerify: cfg.TLS.SkipVerify} //nolint:gosec // operator opt-in via config

	if cfg.TLS.CACert != "" {
		pem, err := os.ReadFile(cfg.TLS.CACert)
		if err != nil {
			return nil, fmt.Errorf("reading ca cert: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("parsing ca cert %s", cfg.TLS.CACert)
		}
		tlsCfg.RootCAs = pool
	}
	if cfg.TLS.ClientCert != "" && cfg.TLS.ClientKey != "" {
		cert, err := tls.LoadX509KeyPair(cfg.TLS.ClientCert, cfg.TLS.ClientKey)
		if err != nil {
			return nil, fmt.Errorf("loading client cert: %w", err)
		}
		tlsCfg.Certificates = []tls.Certificate{cert}
	}

	dialer := &net.Dialer{Timeout: 10 * time.Second}
	return tls.DialWithDialer(dialer, "tcp", cfg.Addr(), tlsCfg)
}

// awaitConnack pumps LoopOnce until the CONNACK callback fires or timeout
// elapses.
func awaitConnack(c *client.Client, connectErrCh chan error, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if err := c.LoopOnce(200 * time.Millisecond); err != nil {
			return err
		}
		select {
		case err := <-connectErrCh:
			return err
		default:
		}
	}
	return fmt.Errorf("timed out waiting for CONNACK")
}

// drainOutbound pumps LoopOnce briefly so a queued DISCONNECT actually
// reaches the wire before the process exits.
func drainOutbound(c *client.Client, logger logging.Logger) {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if err := c.LoopOnce(100 * time.Millisecond); err != nil {
			logger.Debug("drain loop ended", "error", err)
			return
		}
	}
}
