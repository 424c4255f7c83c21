// SPDX-License-Identifier: MIT
package transport

import (
	applog "wavbeep/internal/log"

	"go.uber.org/zap"
)

// LoggingTransport writes every message to the application log.
type LoggingTransport struct {
	logger *zap.Logger
}

// NewLoggingTransport creates a LoggingTransport on the current logger.
func NewLoggingTransport() *LoggingTransport {
	applog.Debugf("Transport: Using LoggingTransport")
	return &LoggingTransport{logger: applog.Logger().Named("transport")}
}

// Send logs msg. It never fails.
func (lt *LoggingTransport) Send(msg Message) error {
	lt.logger.Info("tone",
		zap.Stringer("run", msg.Run),
		zap.Uint32("seq", msg.Seq),
		zap.Uint32("count", msg.Count),
		zap.Int("ms", msg.Event.DurationMS),
		zap.Float64("hz", msg.Event.Hz),
	)
	return nil
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	return nil
}

var _ Transport = (*LoggingTransport)(nil)
