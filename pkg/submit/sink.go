package submit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-formstate/pkg/field"
)

var (
	// ErrUnknownFormat is returned for unsupported format names.
	ErrUnknownFormat = errors.New("submit: unknown format")
	// ErrTemplate wraps summary template compile and execution failures.
	ErrTemplate = errors.New("submit: template error")
)

// Option configures a WriterSink.
type Option func(*WriterSink)

// WithFormat selects the serialization format. The default is JSON.
func WithFormat(format Format) Option {
	return func(s *WriterSink) {
		if format != "" {
			s.format = format
		}
	}
}

// WithTemplate overrides the summary template source (pongo2 syntax). The
// template sees title, entries (sorted Path/Value pairs) and values.
func WithTemplate(source string) Option {
	return func(s *WriterSink) {
		if strings.TrimSpace(source) != "" {
			s.templateSource = source
		}
	}
}

// WithTitle sets the heading passed to the summary template.
func WithTitle(title string) Option {
	return func(s *WriterSink) {
		s.title = title
	}
}

// WithLogger sets the logger. The default discards output.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *WriterSink) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WriterSink serializes each submission to an io.Writer. Writes are
// serialized so concurrent submits never interleave.
type WriterSink struct {
	mu             sync.Mutex
	w              io.Writer
	format         Format
	title          string
	templateSource string
	template       *pongo2.Template
	logger         logrus.FieldLogger
}

// NewWriterSink builds a sink writing to w. Summary templates are compiled up
// front so syntax errors surface here rather than on submit.
func NewWriterSink(w io.Writer, options ...Option) (*WriterSink, error) {
	if w == nil {
		return nil, errors.New("submit: writer is required")
	}
	s := &WriterSink{
		w:              w,
		format:         FormatJSON,
		title:          "Submission",
		templateSource: DefaultSummaryTemplate,
		logger:         discardLogger(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}

	if _, err := ParseFormat(string(s.format)); err != nil {
		return nil, err
	}
	if s.format == FormatSummary {
		tpl, err := pongo2.FromString(s.templateSource)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTemplate, err)
		}
		s.template = tpl
	}
	return s, nil
}

// Format reports the configured format.
func (s *WriterSink) Format() Format {
	return s.format
}

// Encode serializes snap without writing it.
func (s *WriterSink) Encode(snap field.Snapshot) ([]byte, error) {
	switch s.format {
	case FormatForm:
		return encodeForm(snap), nil
	case FormatPretty:
		return encodePretty(snap), nil
	case FormatSummary:
		return encodeSummary(s.template, s.title, snap)
	default:
		return encodeJSON(snap)
	}
}

// Submit implements form.Sink.
func (s *WriterSink) Submit(ctx context.Context, snap field.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := s.Encode(snap)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.Write(data); err != nil {
		return fmt.Errorf("submit: write: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"format": string(s.format),
		"bytes":  len(data),
	}).Debug("submission written")
	return nil
}

func discardLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
