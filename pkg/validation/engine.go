package validation

import (
	"strings"

	"github.com/goliatone/go-formstate/pkg/field"
)

// KeyMode selects how error keys are derived from rule paths.
type KeyMode int

const (
	// KeyFullPath keys errors by the full dotted path
	// (technology.favoriteLanguage).
	KeyFullPath KeyMode = iota
	// KeyShort keys errors by the last path segment (favoriteLanguage). Names
	// can collide across sections.
	KeyShort
)

// Option configures an Engine.
type Option func(*Engine)

// WithKeyMode sets how error keys are derived.
func WithKeyMode(mode KeyMode) Option {
	return func(e *Engine) {
		e.keyMode = mode
	}
}

// WithShortKeys keys nested errors by their leaf name.
func WithShortKeys() Option {
	return WithKeyMode(KeyShort)
}

// Engine evaluates a fixed rule list against snapshots. It holds no state
// beyond its configuration and is safe for concurrent use.
type Engine struct {
	rules   []Rule
	keyMode KeyMode
}

// New builds an engine over rules, evaluated in order.
func New(rules []Rule, options ...Option) *Engine {
	e := &Engine{
		rules: append([]Rule(nil), rules...),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(e)
	}
	return e
}

// With returns a new engine with extra rules appended and the same options.
func (e *Engine) With(rules ...Rule) *Engine {
	if len(rules) == 0 {
		return e
	}
	combined := make([]Rule, 0, len(e.rules)+len(rules))
	combined = append(combined, e.rules...)
	combined = append(combined, rules...)
	return &Engine{rules: combined, keyMode: e.keyMode}
}

// Rules returns a copy of the configured rules.
func (e *Engine) Rules() []Rule {
	return append([]Rule(nil), e.rules...)
}

// KeyFor reports the error key used for a field path.
func (e *Engine) KeyFor(path string) string {
	path = strings.TrimSpace(path)
	if e != nil && e.keyMode == KeyShort {
		return field.LastSegment(path)
	}
	return path
}

// Validate applies every active rule to snap. Later rules overwrite earlier
// messages on the same key.
func (e *Engine) Validate(snap field.Snapshot) ErrorMap {
	errs := make(ErrorMap)
	if e == nil {
		return errs
	}
	for _, rule := range e.rules {
		if !rule.active(snap) {
			continue
		}
		msg, failed := rule.failure(snap)
		if !failed {
			continue
		}
		errs[e.keyForRule(rule)] = msg
	}
	return errs
}

func (e *Engine) keyForRule(rule Rule) string {
	if rule.Key != "" {
		return rule.Key
	}
	return e.KeyFor(rule.Path)
}
