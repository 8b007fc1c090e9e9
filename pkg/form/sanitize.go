package form

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer cleans free-text input before it reaches the store.
type Sanitizer interface {
	Sanitize(value string) string
}

// SanitizerFunc adapts a function into a Sanitizer.
type SanitizerFunc func(value string) string

// Sanitize delegates to the underlying function.
func (fn SanitizerFunc) Sanitize(value string) string {
	return fn(value)
}

var (
	strictPolicyOnce sync.Once
	strictPolicy     *bluemonday.Policy

	// readable reverses only the escapes that cannot form markup; &lt; and
	// &gt; stay encoded.
	readable = strings.NewReplacer("&amp;", "&", "&#39;", "'", "&#34;", `"`)
)

// HTMLSanitizer strips all markup from input, leaving plain text. Ampersands
// and quotes escaped by the policy are restored so "Tom & Jerry" stays
// intact; angle brackets, including ones that arrived entity-encoded, stay
// escaped.
func HTMLSanitizer() Sanitizer {
	strictPolicyOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return SanitizerFunc(func(value string) string {
		if strings.TrimSpace(value) == "" {
			return value
		}
		return readable.Replace(strictPolicy.Sanitize(value))
	})
}
