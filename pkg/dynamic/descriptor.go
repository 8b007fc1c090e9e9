package dynamic

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// Type is the input type of a dynamic question.
type Type string

const (
	TypeText   Type = "text"
	TypeNumber Type = "number"
)

// ID accepts both JSON strings and numbers, since descriptor feeds disagree
// on the representation.
type ID string

// UnmarshalJSON decodes a string or number identifier.
func (id *ID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*id = ""
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return fmt.Errorf("dynamic: decode id: %w", err)
		}
		*id = ID(s)
		return nil
	}
	if _, err := strconv.ParseFloat(string(trimmed), 64); err != nil {
		return fmt.Errorf("dynamic: id must be a string or number, got %s", trimmed)
	}
	*id = ID(trimmed)
	return nil
}

// Descriptor is an externally defined question attached to a topic.
type Descriptor struct {
	ID       ID     `json:"id"`
	Topic    string `json:"topic"`
	Question string `json:"question"`
	Type     Type   `json:"type"`
}

// Kind normalises Type; anything other than number is treated as text.
func (d Descriptor) Kind() Type {
	if strings.EqualFold(strings.TrimSpace(string(d.Type)), string(TypeNumber)) {
		return TypeNumber
	}
	return TypeText
}

// Source lists every known descriptor. Implementations must be idempotent.
type Source interface {
	ListFieldDescriptors(ctx context.Context) ([]Descriptor, error)
}

// SourceFunc adapts a function into a Source.
type SourceFunc func(ctx context.Context) ([]Descriptor, error)

// ListFieldDescriptors delegates to the underlying function.
func (fn SourceFunc) ListFieldDescriptors(ctx context.Context) ([]Descriptor, error) {
	return fn(ctx)
}

// StaticSource serves a fixed descriptor list.
type StaticSource []Descriptor

// ListFieldDescriptors returns a copy of the list.
func (s StaticSource) ListFieldDescriptors(ctx context.Context) ([]Descriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]Descriptor(nil), s...), nil
}

// FilterByTopic keeps descriptors whose topic matches topic case-insensitively,
// preserving order.
func FilterByTopic(descriptors []Descriptor, topic string) []Descriptor {
	topic = strings.TrimSpace(topic)
	out := make([]Descriptor, 0, len(descriptors))
	for _, d := range descriptors {
		if strings.EqualFold(strings.TrimSpace(d.Topic), topic) {
			out = append(out, d)
		}
	}
	return out
}
