package connector

import "log/slog"

// Option configures a Connector.
type Option func(*Connector)

// WithLogger sets the logger used for debug and warning events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Connector) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMessages overrides error message templates by code, e.g. to
// translate them.
func WithMessages(messages map[string]string) Option {
	return func(c *Connector) {
		c.errs.SetMessages(messages)
	}
}

// WithStackSize sets how many error messages are kept.
func WithStackSize(n int) Option {
	return func(c *Connector) {
		c.errs.SetSize(n)
	}
}
