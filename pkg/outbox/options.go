package outbox

import "time"

// Options configures the outbox worker.
type Options struct {
	Queue           string
	MaxAttempts     int
	PollInterval    time.Duration
	DequeueTimeout  time.Duration
	RetryDelay      time.Duration
	ShutdownTimeout time.Duration
}

func defaultOptions() Options {
	return Options{
		Queue:           "mandrill",
		MaxAttempts:     3,
		PollInterval:    time.Second,
		DequeueTimeout:  5 * time.Second,
		RetryDelay:      30 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

// Option is a functional option for configuring the outbox.
type Option func(*Options)

// WithQueue sets the queue name.
func WithQueue(name string) Option {
	return func(o *Options) {
		if name != "" {
			o.Queue = name
		}
	}
}

// WithMaxAttempts sets how many times a message is tried before it fails.
func WithMaxAttempts(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxAttempts = n
		}
	}
}

// WithPollInterval sets the interval between scheduler runs and dequeue
// retries after an error.
func WithPollInterval(d time.Duration) Option {
	return func(o *Options) {
		o.PollInterval = d
	}
}

// WithDequeueTimeout sets the timeout passed to the blocking dequeue call.
func WithDequeueTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.DequeueTimeout = d
	}
}

// WithRetryDelay sets the delay before a failed message is retried.
func WithRetryDelay(d time.Duration) Option {
	return func(o *Options) {
		o.RetryDelay = d
	}
}

// WithShutdownTimeout sets how long Run waits for the in-flight send.
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.ShutdownTimeout = d
	}
}
