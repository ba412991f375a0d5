// Package natsbridge mirrors change-notifier events onto NATS subjects so
// external consumers can follow the platform without holding an HTTP
// stream. The in-process bus stays authoritative; the mirror is optional
// and ingestion never waits on it.
package natsbridge

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/priorityhub/inbox-platform/internal/bus"
	"github.com/priorityhub/inbox-platform/internal/model"
	"github.com/priorityhub/inbox-platform/pkg/logger"
)

// SubjectPrefix is the prefix for all mirrored event subjects.
const SubjectPrefix = "inbox.events"

// Config holds NATS connection configuration.
type Config struct {
	URL      string
	CAFile   string
	CertFile string
	KeyFile  string
	Token    string
}

// Bridge owns one NATS connection and one bus subscription.
type Bridge struct {
	conn   *nats.Conn
	sub    *bus.Subscription
	logger *logger.Logger
	done   chan struct{}
}

// Connect establishes the NATS connection and starts mirroring events from
// the notifier.
func Connect(cfg Config, notifier *bus.Bus, log *logger.Logger) (*Bridge, error) {
	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.ReconnectBufSize(8 * 1024 * 1024),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warnw("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Infow("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Errorw("NATS error", "error", err)
		}),
	}

	// Add TLS configuration if certificates are provided
	if cfg.CAFile != "" && cfg.CertFile != "" && cfg.KeyFile != "" {
		tlsConfig, err := createTLSConfig(cfg.CAFile, cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
		opts = append(opts, nats.Secure(tlsConfig))
	}

	// Add token authentication if provided
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	b := &Bridge{
		conn:   nc,
		sub:    notifier.Subscribe(256),
		logger: log,
		done:   make(chan struct{}),
	}
	go b.mirror()

	return b, nil
}

// Subject returns the mirrored subject for an event:
// inbox.events.<userID>.<kind>, with the kind's colon mapped to a dot.
func Subject(evt model.Event) string {
	kind := strings.ReplaceAll(string(evt.Type), ":", ".")
	return fmt.Sprintf("%s.%s.%s", SubjectPrefix, evt.UserID, kind)
}

func (b *Bridge) mirror() {
	defer close(b.done)

	for evt := range b.sub.Events() {
		data, err := json.Marshal(evt)
		if err != nil {
			b.logger.Errorw("failed to marshal event", "error", err)
			continue
		}
		if err := b.conn.Publish(Subject(evt), data); err != nil {
			b.logger.Warnw("failed to mirror event", "error", err, "subject", Subject(evt))
		}
	}
}

// IsConnected returns true if connected to NATS.
func (b *Bridge) IsConnected() bool {
	return b.conn != nil && b.conn.IsConnected()
}

// Close stops mirroring and drains the connection.
func (b *Bridge) Close() {
	b.sub.Close()
	<-b.done
	if b.conn != nil {
		b.conn.Drain()
		b.conn.Close()
	}
}

func createTLSConfig(caFile, certFile, keyFile string) (*tls.Config, error) {
	caCert, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA file: %w", err)
	}

	caCertPool := x509.NewCertPool()
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("failed to parse CA certificate")
	}

	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load client cert: %w", err)
	}

	return &tls.Config{
		RootCAs:      caCertPool,
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}
