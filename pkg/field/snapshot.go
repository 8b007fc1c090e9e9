package field

import (
	"sort"
	"strings"
)

// Snapshot maps root field names to values. Values are strings, bools, or
// nested map[string]any sections (checkbox groups hold bool leaves).
//
// Snapshots returned by a Store are shared and must be treated as read-only;
// call Clone before mutating one.
type Snapshot map[string]any

// Clone returns a deep copy of the snapshot with nested maps normalised to
// map[string]any.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	out := make(Snapshot, len(s))
	for key, value := range s {
		out[key] = deepCopy(value)
	}
	return out
}

// Lookup resolves a dotted path. The second return value reports whether the
// path exists.
func (s Snapshot) Lookup(path string) (any, bool) {
	segments, ok := SplitPath(path)
	if !ok || len(s) == 0 {
		return nil, false
	}
	var current any = map[string]any(s)
	for _, segment := range segments {
		node, ok := asMap(current)
		if !ok {
			return nil, false
		}
		next, exists := node[segment]
		if !exists {
			return nil, false
		}
		current = next
	}
	return current, true
}

// String returns the value at path formatted as a string. Missing paths and
// non-scalar values yield "".
func (s Snapshot) String(path string) string {
	value, ok := s.Lookup(path)
	if !ok || value == nil {
		return ""
	}
	switch typed := value.(type) {
	case string:
		return typed
	case bool:
		if typed {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

// Leaves lists every leaf path in sorted order. Empty sections count as
// leaves so they can still be addressed.
func (s Snapshot) Leaves() []string {
	var out []string
	collectLeaves(map[string]any(s), "", &out)
	sort.Strings(out)
	return out
}

// Values exposes the snapshot as a plain map for evaluators that accept
// map[string]any.
func (s Snapshot) Values() map[string]any {
	return map[string]any(s)
}

// SplitPath breaks a dotted path into segments. Paths with empty segments are
// rejected.
func SplitPath(path string) ([]string, bool) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, false
	}
	segments := strings.Split(trimmed, ".")
	for i, segment := range segments {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			return nil, false
		}
		segments[i] = segment
	}
	return segments, true
}

// JoinPath joins a parent and child path, skipping blanks.
func JoinPath(parent, child string) string {
	parent = strings.TrimSpace(parent)
	child = strings.TrimSpace(child)
	if parent == "" {
		return child
	}
	if child == "" {
		return parent
	}
	return parent + "." + child
}

// LastSegment returns the final segment of a dotted path.
func LastSegment(path string) string {
	trimmed := strings.TrimSpace(path)
	if idx := strings.LastIndex(trimmed, "."); idx >= 0 {
		return trimmed[idx+1:]
	}
	return trimmed
}

func collectLeaves(node map[string]any, prefix string, out *[]string) {
	for key, value := range node {
		path := JoinPath(prefix, key)
		child, ok := asMap(value)
		if !ok || len(child) == 0 {
			*out = append(*out, path)
			continue
		}
		collectLeaves(child, path, out)
	}
}

func asMap(value any) (map[string]any, bool) {
	switch typed := value.(type) {
	case map[string]any:
		return typed, true
	case Snapshot:
		return map[string]any(typed), true
	case map[string]bool:
		out := make(map[string]any, len(typed))
		for k, v := range typed {
			out[k] = v
		}
		return out, true
	case map[string]string:
		out := make(map[string]any, len(typed))
		for k, v := range typed {
			out[k] = v
		}
		return out, true
	default:
		return nil, false
	}
}

func deepCopy(value any) any {
	if node, ok := asMap(value); ok {
		clone := make(map[string]any, len(node))
		for k, v := range node {
			clone[k] = deepCopy(v)
		}
		return clone
	}
	if list, ok := value.([]any); ok {
		clone := make([]any, len(list))
		for i, v := range list {
			clone[i] = deepCopy(v)
		}
		return clone
	}
	return value
}
