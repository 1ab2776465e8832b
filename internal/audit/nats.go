package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultSubject is the NATS subject audit events are published on.
const DefaultSubject = "boardauth.audit"

// Publisher is the subset of *nats.Conn used by NATSSink.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSConfig holds NATS connection settings for the audit publisher.
type NATSConfig struct {
	URL           string
	Name          string
	Subject       string
	MaxReconnects int
	ReconnectWait time.Duration
	Timeout       time.Duration
}

// DefaultNATSConfig returns connection defaults for a local NATS server.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		Name:          "boardauth-audit",
		Subject:       DefaultSubject,
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
		Timeout:       5 * time.Second,
	}
}

// ConnectNATS dials the server described by cfg. Disconnects and reconnects are
// reported through logger.
func ConnectNATS(cfg NATSConfig, logger *slog.Logger) (*nats.Conn, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.Timeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", slog.String("error", err.Error()))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", slog.String("url", c.ConnectedUrl()))
		}),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return conn, nil
}

// NATSSink publishes each event as JSON on a subject. Publish errors are
// reported to the logger and otherwise dropped.
type NATSSink struct {
	pub     Publisher
	subject string
	logger  *slog.Logger
}

func NewNATSSink(pub Publisher, subject string, logger *slog.Logger) *NATSSink {
	if subject == "" {
		subject = DefaultSubject
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NATSSink{pub: pub, subject: subject, logger: logger}
}

func (s *NATSSink) Emit(ctx context.Context, event Event) {
	if s == nil || s.pub == nil {
		return
	}
	if ctx != nil && ctx.Err() != nil {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := s.pub.Publish(s.subject+"."+event.EventType, data); err != nil {
		s.logger.Warn("audit publish failed",
			slog.String("subject", s.subject),
			slog.String("error", err.Error()),
		)
	}
}
