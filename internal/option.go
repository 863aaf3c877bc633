package internal

import (
	"io"

	"github.com/starford/rehearse/internal/reviewservice"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config    *Config
	clock     reviewservice.Clock
	logWriter io.Writer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithClock sets the clock used for review times and due checks.
func WithClock(c reviewservice.Clock) Option {
	return func(a *application) {
		a.clock = c
	}
}

// WithLogWriter redirects the JSON log. Stdio transports use it to keep
// stdout free for protocol traffic.
func WithLogWriter(w io.Writer) Option {
	return func(a *application) {
		a.logWriter = w
	}
}
