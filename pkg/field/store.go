package field

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidPath is returned for blank paths or paths with empty segments.
	ErrInvalidPath = errors.New("field: invalid path")
	// ErrSchemaViolation is returned in strict mode when a write targets a path
	// that was never declared, or replaces a declared section with a scalar.
	ErrSchemaViolation = errors.New("field: schema violation")
)

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStrict rejects writes to undeclared paths, and scalar writes over
// declared sections, with ErrSchemaViolation.
func WithStrict() StoreOption {
	return func(s *Store) {
		s.strict = true
	}
}

// Store holds the current snapshot and applies dotted-path writes as
// copy-on-write structural merges. It is not safe for concurrent use; the
// owning controller serialises access.
type Store struct {
	current  Snapshot
	declared map[string]struct{}
	strict   bool
}

// NewStore seeds a store with a deep copy of initial. Every leaf of initial
// becomes a declared path.
func NewStore(initial Snapshot, options ...StoreOption) *Store {
	s := &Store{
		current:  initial.Clone(),
		declared: make(map[string]struct{}),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	for _, path := range s.current.Leaves() {
		s.declared[path] = struct{}{}
	}
	return s
}

// Snapshot returns the current snapshot. Callers must not mutate it.
func (s *Store) Snapshot() Snapshot {
	if s == nil {
		return nil
	}
	return s.current
}

// Get resolves a dotted path against the current snapshot.
func (s *Store) Get(path string) (any, bool) {
	if s == nil {
		return nil, false
	}
	return s.current.Lookup(path)
}

// Declare registers additional writable paths, typically dynamic fields that
// were not part of the initial schema.
func (s *Store) Declare(paths ...string) {
	for _, path := range paths {
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			s.declared[trimmed] = struct{}{}
		}
	}
}

// Declared reports whether path is a declared leaf or a prefix of one.
func (s *Store) Declared(path string) bool {
	path = strings.TrimSpace(path)
	if _, ok := s.declared[path]; ok {
		return true
	}
	prefix := path + "."
	for known := range s.declared {
		if strings.HasPrefix(known, prefix) {
			return true
		}
	}
	return false
}

// Strict reports whether undeclared writes are rejected.
func (s *Store) Strict() bool {
	return s != nil && s.strict
}

// Set writes value at path and returns the new snapshot. A dotted path merges
// into the existing section, keeping sibling keys; intermediate sections are
// created when missing. Snapshots handed out earlier are left untouched.
func (s *Store) Set(path string, value any) (Snapshot, error) {
	segments, ok := SplitPath(path)
	if !ok {
		return s.current, fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	if s.strict {
		if err := s.checkDeclared(strings.Join(segments, "."), value); err != nil {
			return s.current, err
		}
	}

	s.current = Snapshot(assign(map[string]any(s.current), segments, deepCopy(value)))
	return s.current, nil
}

// checkDeclared enforces the strict schema. A section may only be replaced by
// a map whose leaves are all declared under it.
func (s *Store) checkDeclared(path string, value any) error {
	if !s.Declared(path) {
		return fmt.Errorf("%w: undeclared path %q", ErrSchemaViolation, path)
	}
	if _, leaf := s.declared[path]; leaf {
		return nil
	}
	section, ok := asMap(value)
	if !ok {
		return fmt.Errorf("%w: cannot replace section %q with %T", ErrSchemaViolation, path, value)
	}
	for _, leaf := range Snapshot(section).Leaves() {
		if full := JoinPath(path, leaf); !s.Declared(full) {
			return fmt.Errorf("%w: undeclared path %q", ErrSchemaViolation, full)
		}
	}
	return nil
}

func assign(node map[string]any, segments []string, value any) map[string]any {
	out := make(map[string]any, len(node)+1)
	for k, v := range node {
		out[k] = v
	}

	head := segments[0]
	if len(segments) == 1 {
		out[head] = value
		return out
	}

	child, _ := asMap(node[head])
	out[head] = assign(child, segments[1:], value)
	return out
}
