package form

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-formstate/pkg/dynamic"
	"github.com/goliatone/go-formstate/pkg/field"
)

// Sink receives the final snapshot after a successful submit.
type Sink interface {
	Submit(ctx context.Context, snap field.Snapshot) error
}

// SinkFunc adapts a function into a Sink.
type SinkFunc func(ctx context.Context, snap field.Snapshot) error

// Submit delegates to the underlying function.
func (fn SinkFunc) Submit(ctx context.Context, snap field.Snapshot) error {
	return fn(ctx, snap)
}

// Observer is notified with a fresh View after every state change. Calls
// happen outside the controller lock, possibly from resolver goroutines.
type Observer func(View)

// FieldNamer maps a resolved descriptor to the snapshot path of its answer.
type FieldNamer func(index int, d dynamic.Descriptor) string

// DefaultFieldNamer names answers additionalQuestion0, additionalQuestion1, ...
func DefaultFieldNamer(index int, _ dynamic.Descriptor) string {
	return fmt.Sprintf("additionalQuestion%d", index)
}

// Option configures a Controller.
type Option func(*Controller)

// WithName labels log entries for this form.
func WithName(name string) Option {
	return func(c *Controller) {
		c.name = strings.TrimSpace(name)
	}
}

// WithPolicy sets the edit policy.
func WithPolicy(policy Policy) Option {
	return func(c *Controller) {
		c.policy = policy
	}
}

// WithResolver enables dynamic fields: changes to discriminant trigger
// resolver.Resolve with the new value.
func WithResolver(discriminant string, resolver Resolver) Option {
	return func(c *Controller) {
		c.discriminant = strings.TrimSpace(discriminant)
		c.resolver = resolver
	}
}

// WithSink registers the submission sink.
func WithSink(sink Sink) Option {
	return func(c *Controller) {
		c.sink = sink
	}
}

// WithLogger sets the logger. The default discards output.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver registers a change observer. May be repeated.
func WithObserver(observer Observer) Option {
	return func(c *Controller) {
		if observer != nil {
			c.observers = append(c.observers, observer)
		}
	}
}

// WithStrict rejects writes to undeclared paths, and scalar writes over
// declared sections, with field.ErrSchemaViolation.
func WithStrict() Option {
	return func(c *Controller) {
		c.strict = true
	}
}

// WithSanitizer cleans string values on every change.
func WithSanitizer(sanitizer Sanitizer) Option {
	return func(c *Controller) {
		c.sanitizer = sanitizer
	}
}

// WithFieldNamer overrides how dynamic answers are addressed.
func WithFieldNamer(namer FieldNamer) Option {
	return func(c *Controller) {
		if namer != nil {
			c.namer = namer
		}
	}
}

// WithContext sets the parent context for background resolutions. Cancelling
// it stops in-flight fetches.
func WithContext(ctx context.Context) Option {
	return func(c *Controller) {
		if ctx != nil {
			c.baseCtx = ctx
		}
	}
}

func discardLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
