// Package logging builds log/slog loggers and carries the request id through
// context.Context so every log line and audit event for one request can be
// correlated.
package logging
