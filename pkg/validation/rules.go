package validation

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/goliatone/go-formstate/pkg/field"
	"github.com/goliatone/go-formstate/pkg/guard"
)

var (
	// EmailPattern is the loose email shape used by the built-in Email rule.
	EmailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)
	// URLPattern is the http(s) URL shape used by the built-in URL rule.
	URLPattern = regexp.MustCompile(`(?m)^https?://[^\s$.?#].[^\s]*$`)

	// decimalPattern is a plain decimal literal with an optional exponent. It
	// keeps strconv from accepting inf, nan, hex floats and digit separators.
	decimalPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)
)

// Guard decides whether a rule is active for a snapshot.
type Guard func(snap field.Snapshot) bool

// Predicate reports whether value is valid. Missing paths yield a nil value.
type Predicate func(value any) bool

// CheckFunc inspects the whole snapshot and returns a message and true when
// the rule fails. An empty message falls back to Rule.Message.
type CheckFunc func(snap field.Snapshot) (string, bool)

// Rule validates one field path. Test and Check are alternatives; Check wins
// when both are set.
type Rule struct {
	Path string
	// Key overrides the error key derived from Path.
	Key     string
	Message string
	When    Guard
	Test    Predicate
	Check   CheckFunc
}

// OnlyWhen returns a copy of r that is active only while g holds. Guards
// compose with AND when r already has one.
func (r Rule) OnlyWhen(g Guard) Rule {
	if g == nil {
		return r
	}
	prev := r.When
	if prev == nil {
		r.When = g
		return r
	}
	r.When = func(snap field.Snapshot) bool {
		return prev(snap) && g(snap)
	}
	return r
}

// WithKey returns a copy of r reporting its error under key.
func (r Rule) WithKey(key string) Rule {
	r.Key = strings.TrimSpace(key)
	return r
}

func (r Rule) active(snap field.Snapshot) bool {
	return r.When == nil || r.When(snap)
}

func (r Rule) failure(snap field.Snapshot) (string, bool) {
	if r.Check != nil {
		msg, failed := r.Check(snap)
		if !failed {
			return "", false
		}
		if strings.TrimSpace(msg) == "" {
			msg = r.Message
		}
		return msg, true
	}
	if r.Test == nil {
		return "", false
	}
	value, _ := snap.Lookup(r.Path)
	if r.Test(value) {
		return "", false
	}
	return r.Message, true
}

// When compiles a guard expression such as `position == "Designer"`. It panics
// on invalid syntax, like regexp.MustCompile.
func When(expr string) Guard {
	compiled := guard.MustCompile(expr)
	return func(snap field.Snapshot) bool {
		return compiled.Holds(snap.Values())
	}
}

// WhenEquals activates a rule while the value at path equals want.
func WhenEquals(path, want string) Guard {
	return func(snap field.Snapshot) bool {
		return snap.String(path) == want
	}
}

// WhenIn activates a rule while the value at path is one of values.
func WhenIn(path string, values ...string) Guard {
	return func(snap field.Snapshot) bool {
		got := snap.String(path)
		for _, candidate := range values {
			if got == candidate {
				return true
			}
		}
		return false
	}
}

// Required fails for missing values, empty strings, false, and groups without
// a single true entry.
func Required(path, message string) Rule {
	return Rule{Path: path, Message: message, Test: Present}
}

// Email checks the loose email shape; empty values pass.
func Email(path, message string) Rule {
	return Rule{Path: path, Message: message, Test: Matches(EmailPattern)}
}

// URL checks the http(s) URL shape; empty values pass.
func URL(path, message string) Rule {
	return Rule{Path: path, Message: message, Test: Matches(URLPattern)}
}

// Pattern checks value against re; empty values pass.
func Pattern(path, message string, re *regexp.Regexp) Rule {
	return Rule{Path: path, Message: message, Test: Matches(re)}
}

// Number requires the value to parse as a number; empty values pass.
func Number(path, message string) Rule {
	return Rule{Path: path, Message: message, Test: Numeric}
}

// Positive requires a number greater than zero; empty values pass.
func Positive(path, message string) Rule {
	return Rule{Path: path, Message: message, Test: GreaterThan(0)}
}

// MinLen requires at least n characters; empty values pass.
func MinLen(path, message string, n int) Rule {
	return Rule{Path: path, Message: message, Test: MinLength(n)}
}

// AtLeastOne requires at least one true entry in a boolean group.
func AtLeastOne(path, message string) Rule {
	return Rule{Path: path, Message: message, Test: AnyChecked}
}

// Custom wraps a snapshot-level check.
func Custom(path, message string, check CheckFunc) Rule {
	return Rule{Path: path, Message: message, Check: check}
}

// Present is the presence predicate behind Required.
func Present(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return v != ""
	case bool:
		return v
	case map[string]any:
		return AnyChecked(v) || anyPresent(v)
	case map[string]bool:
		return AnyChecked(v)
	case []any:
		return len(v) > 0
	default:
		return true
	}
}

func anyPresent(section map[string]any) bool {
	for _, item := range section {
		if _, isBool := item.(bool); isBool {
			continue
		}
		if Present(item) {
			return true
		}
	}
	return false
}

// AnyChecked reports whether a boolean group has at least one true entry.
func AnyChecked(value any) bool {
	switch v := value.(type) {
	case map[string]any:
		for _, item := range v {
			if b, ok := item.(bool); ok && b {
				return true
			}
		}
	case map[string]bool:
		for _, item := range v {
			if item {
				return true
			}
		}
	}
	return false
}

// Matches builds a predicate accepting empty values and strings matching re.
func Matches(re *regexp.Regexp) Predicate {
	return func(value any) bool {
		text, blank := stringValue(value)
		if blank {
			return true
		}
		return re.MatchString(text)
	}
}

// Numeric accepts empty values and values that parse as a number.
func Numeric(value any) bool {
	text, blank := stringValue(value)
	if blank {
		return true
	}
	_, ok := parseNumber(text)
	return ok
}

// GreaterThan accepts empty values and numbers strictly greater than min.
func GreaterThan(min float64) Predicate {
	return func(value any) bool {
		text, blank := stringValue(value)
		if blank {
			return true
		}
		n, ok := parseNumber(text)
		return ok && n > min
	}
}

// MinLength accepts empty values and strings of at least n characters.
func MinLength(n int) Predicate {
	return func(value any) bool {
		text, blank := stringValue(value)
		if blank {
			return true
		}
		return utf8.RuneCountInString(text) >= n
	}
}

// All combines predicates; every one must pass.
func All(preds ...Predicate) Predicate {
	return func(value any) bool {
		for _, pred := range preds {
			if pred != nil && !pred(value) {
				return false
			}
		}
		return true
	}
}

func stringValue(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", true
	case string:
		return v, v == ""
	case bool:
		return strconv.FormatBool(v), false
	default:
		return fmt.Sprint(v), false
	}
}

func parseNumber(text string) (float64, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0, false
	}
	if !decimalPattern.MatchString(trimmed) {
		return 0, false
	}
	n, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsInf(n, 0) || math.IsNaN(n) {
		return 0, false
	}
	return n, true
}
