// Package command contains the write-side application services: registering
// users and recording lesson completions. Each handler loads the records it
// needs from the store, applies the domain rules, persists the outcome and
// publishes the resulting events.
package command

import (
	"time"

	"github.com/edudash-hub/edudash-engine/pkg/logger"
	"github.com/edudash-hub/edudash-engine/pkg/timeutil"
)

type options struct {
	now func() time.Time
	loc *time.Location
	log *logger.Logger
}

// Option customizes a command handler.
type Option func(*options)

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLocation overrides the timezone used for day boundaries.
func WithLocation(loc *time.Location) Option {
	return func(o *options) { o.loc = loc }
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(o *options) { o.log = log }
}

func buildOptions(opts []Option) options {
	o := options{
		now: time.Now,
		loc: timeutil.SaoPauloTZ,
		log: logger.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
