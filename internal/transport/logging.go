package transport

import (
	applog "termvis/internal/log"
)

// LoggingTransport implements the Transport interface by logging a summary
// of each frame at debug level.
type LoggingTransport struct{}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	applog.Infof("Transport: Using LoggingTransport")
	return &LoggingTransport{}
}

// Send logs the received frame.
func (lt *LoggingTransport) Send(frame Frame) error {
	applog.Debugf("LOG_TRANSPORT: frame %d (%d waveform points, %d bins)",
		frame.Seq, len(frame.Left), len(frame.SpectrumLeft))
	return nil // Logging transport never fails to "send"
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	applog.Debugf("LOG_TRANSPORT: Close called.")
	return nil
}

// Ensure LoggingTransport satisfies the interface at compile time.
var _ Transport = (*LoggingTransport)(nil)
