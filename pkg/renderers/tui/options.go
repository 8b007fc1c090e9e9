package tui

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// Theme captures optional prefixes the session applies when printing
// messages. Kept minimal so session logic stays free of ANSI specifics.
type Theme struct {
	InfoPrefix  string
	ErrorPrefix string
}

// Option configures a Session.
type Option func(*Session)

// WithPromptDriver overrides the prompt driver used by the session.
func WithPromptDriver(driver PromptDriver) Option {
	return func(s *Session) {
		if driver != nil {
			s.driver = driver
		}
	}
}

// WithTheme applies optional message prefixes.
func WithTheme(theme Theme) Option {
	return func(s *Session) {
		s.theme = theme
	}
}

// WithTitle prints a heading before the first prompt.
func WithTitle(title string) Option {
	return func(s *Session) {
		s.title = strings.TrimSpace(title)
	}
}

// WithMaxAttempts bounds how many invalid submits are tolerated. Zero means
// keep re-prompting until the form is valid.
func WithMaxAttempts(n int) Option {
	return func(s *Session) {
		if n >= 0 {
			s.maxAttempts = n
		}
	}
}

// WithLogger sets the logger. The default discards output.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}
