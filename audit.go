package boardAuth

import (
	"io"
	"log/slog"

	internalaudit "github.com/MrEthical07/boardAuth/internal/audit"
)

// AuditEvent is a structured record of one authentication outcome.
type AuditEvent = internalaudit.Event

// AuditSink receives audit events from the Engine's dispatcher goroutine.
type AuditSink = internalaudit.Sink

// AuditPublisher is the subset of *nats.Conn used by [NATSSink].
type AuditPublisher = internalaudit.Publisher

// Ready-made sinks.
type (
	NoOpSink       = internalaudit.NoOpSink
	ChannelSink    = internalaudit.ChannelSink
	JSONWriterSink = internalaudit.JSONWriterSink
	SlogSink       = internalaudit.SlogSink
	NATSSink       = internalaudit.NATSSink
	MultiSink      = internalaudit.MultiSink
)

// NewChannelSink returns a sink that buffers events on a channel.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink returns a sink writing one JSON object per line to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// NewSlogSink returns a sink logging each event through logger.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	return internalaudit.NewSlogSink(logger)
}

// NewNATSSink returns a sink publishing each event to subject.<event_type>.
func NewNATSSink(pub AuditPublisher, subject string, logger *slog.Logger) *NATSSink {
	return internalaudit.NewNATSSink(pub, subject, logger)
}
