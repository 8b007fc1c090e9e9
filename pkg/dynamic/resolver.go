package dynamic

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// ErrResolutionFailed marks a failed descriptor fetch. Match it with
// errors.Is; the concrete error is a *ResolutionError.
var ErrResolutionFailed = errors.New("dynamic: resolution failed")

// ResolutionError records which discriminant value failed to resolve.
type ResolutionError struct {
	Discriminant string
	Err          error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("dynamic: resolve %q: %v", e.Discriminant, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Is matches ErrResolutionFailed.
func (e *ResolutionError) Is(target error) bool {
	return target == ErrResolutionFailed
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithResolverLogger sets the logger used for fetch diagnostics.
func WithResolverLogger(logger logrus.FieldLogger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Resolver turns a discriminant value into the descriptors for that topic.
// It keeps no state between calls.
type Resolver struct {
	source Source
	logger logrus.FieldLogger
}

// NewResolver wraps source.
func NewResolver(source Source, options ...ResolverOption) *Resolver {
	r := &Resolver{
		source: source,
		logger: discardLogger(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	return r
}

// Resolve fetches the full descriptor list and keeps the entries for
// discriminant. A blank discriminant returns an empty list without fetching.
// On failure it returns an empty list and a *ResolutionError.
func (r *Resolver) Resolve(ctx context.Context, discriminant string) ([]Descriptor, error) {
	topic := strings.TrimSpace(discriminant)
	if topic == "" {
		return nil, nil
	}
	if r == nil || r.source == nil {
		return nil, &ResolutionError{Discriminant: topic, Err: errors.New("source is not configured")}
	}

	all, err := r.source.ListFieldDescriptors(ctx)
	if err != nil {
		return nil, &ResolutionError{Discriminant: topic, Err: err}
	}

	filtered := FilterByTopic(all, topic)
	r.logger.WithFields(logrus.Fields{
		"discriminant": topic,
		"fetched":      len(all),
		"count":        len(filtered),
	}).Debug("resolved dynamic fields")
	if len(filtered) == 0 {
		return nil, nil
	}
	return filtered, nil
}

func discardLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
