package reviewservice

import (
	"log/slog"
	"time"

	"github.com/starford/rehearse/internal/schedule"
)

// Defaults applied when no option overrides them.
const (
	DefaultUser        = "local"
	DefaultDueLimit    = 50
	MaxDueLimit        = 500
	DefaultMaxAttempts = 3
	DefaultHistory     = 50
	MaxHistory         = 500
)

// Clock supplies the review time. Tests inject a fixed clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Notifier is told about every recorded review.
type Notifier interface {
	PublishReview(noteID string, state schedule.State)
}

// Option is a functional option for configuring the Service.
type Option func(*Service)

// WithClock sets the clock used for review times and due checks.
func WithClock(c Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithNotifier sets the receiver of review.recorded notifications.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithEngines sets the scheduling engines built from configuration.
func WithEngines(e *schedule.Engines) Option {
	return func(s *Service) {
		if e != nil {
			s.engines = e
		}
	}
}

// WithDefaultStrategy sets the strategy used when a review names none.
func WithDefaultStrategy(st schedule.Strategy) Option {
	return func(s *Service) {
		if st.IsValid() {
			s.strategy = st
		}
	}
}

// WithDefaultUser sets the user recorded when a review names none.
func WithDefaultUser(u string) Option {
	return func(s *Service) {
		if u != "" {
			s.user = u
		}
	}
}

// WithDueLimit sets the due queue size used when a query names none.
func WithDueLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.dueLimit = min(n, MaxDueLimit)
		}
	}
}

// WithMaxAttempts sets how many times a review is recomputed after a
// concurrent update of the same schedule.
func WithMaxAttempts(n uint) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}
