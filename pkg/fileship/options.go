package fileship

import "github.com/bft-labs/fileship/pkg/log"

// Option configures optional behavior of a Sender or Receiver.
type Option func(*options)

// options holds the optional configuration shared by Sender and Receiver.
type options struct {
	logger       log.Logger
	eventHandler EventHandler
}

// defaultOptions returns options with sensible defaults.
func defaultOptions() options {
	return options{
		logger: log.NewNoopLogger(),
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.NewNoopLogger()
	}
	return o
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithEventHandler sets a handler for fileship events.
// Delivery events arrive from one goroutine per destination and session
// events from one goroutine per connection, so handlers must be safe for
// concurrent use and should return quickly.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}
