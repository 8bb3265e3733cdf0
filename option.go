package irc

// options holds the runtime collaborators of a connection.
type options struct {
	logger Logger
	dialer Dialer
}

// Option is a function that configures connection options.
type Option func(*options)

// LoggerOption returns an Option that sets the logger.
// If not set, the default slog logger will be used.
func LoggerOption(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// DialerOption returns an Option that replaces the transport dialer.
// If not set, Config.TLS selects between the TCP and TLS backends.
// Tests use it to run the engine over an in-memory transport.
func DialerOption(dialer Dialer) Option {
	return func(o *options) {
		o.dialer = dialer
	}
}

// checkOptions sets default values for connection options.
func checkOptions(opts *options) {
	if opts.logger == nil {
		opts.logger = defaultLogger()
	}

	if opts.dialer == nil {
		opts.dialer = defaultDialer{}
	}
}
