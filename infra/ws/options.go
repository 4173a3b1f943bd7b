package ws

import "time"

type options struct {
	sendBuffer   int
	writeTimeout time.Duration
}

func defaultOptions() options {
	return options{
		sendBuffer:   64,
		writeTimeout: 5 * time.Second,
	}
}

// Option configures the Hub and the connections it hands out.
type Option func(*options)

// WithSendBuffer sets the per-connection outbound queue depth. Events beyond
// it are dropped rather than blocking the core.
func WithSendBuffer(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.sendBuffer = size
		}
	}
}

// WithWriteTimeout bounds a single websocket write.
func WithWriteTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.writeTimeout = d
		}
	}
}
