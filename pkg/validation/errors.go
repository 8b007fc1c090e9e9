package validation

import (
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"
)

// ErrorMap maps an error key (a field path or its short name) to a message.
// A missing key means the field is valid.
type ErrorMap map[string]string

// Empty reports whether the map holds no errors.
func (m ErrorMap) Empty() bool {
	return len(m) == 0
}

// Has reports whether key has an error.
func (m ErrorMap) Has(key string) bool {
	_, ok := m[key]
	return ok
}

// Keys returns the error keys in sorted order.
func (m ErrorMap) Keys() []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a copy; a nil or empty map clones to an empty map.
func (m ErrorMap) Clone() ErrorMap {
	out := make(ErrorMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// FieldError is a single validation failure.
type FieldError struct {
	Key     string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Key, e.Message)
}

// Err aggregates the map into a single error ordered by key, or nil when the
// map is empty.
func (m ErrorMap) Err() error {
	if m.Empty() {
		return nil
	}
	var result *multierror.Error
	for _, key := range m.Keys() {
		result = multierror.Append(result, &FieldError{Key: key, Message: m[key]})
	}
	return result.ErrorOrNil()
}
