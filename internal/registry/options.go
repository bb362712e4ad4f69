package registry

import "time"

type options struct {
	evictionInterval time.Duration
	idleTimeout      time.Duration
}

func defaultOptions() options {
	return options{
		evictionInterval: 1 * time.Minute,
		idleTimeout:      5 * time.Minute,
	}
}

// Option configures a Registry.
type Option func(*options)

// WithEvictionInterval sets how often the janitor scans for stale
// mailboxes.
func WithEvictionInterval(d time.Duration) Option {
	return func(o *options) { o.evictionInterval = d }
}

// WithIdleTimeout sets how long a mailbox may receive nothing before the
// janitor treats it as belonging to a crashed connection.
func WithIdleTimeout(d time.Duration) Option {
	return func(o *options) { o.idleTimeout = d }
}
