package submit

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/flosch/pongo2/v6"
	json "github.com/goccy/go-json"

	"github.com/goliatone/go-formstate/pkg/field"
)

// Format controls how a submitted snapshot is serialized.
type Format string

const (
	// FormatJSON emits indented application/json.
	FormatJSON Format = "json"
	// FormatForm emits application/x-www-form-urlencoded with dotted keys.
	FormatForm Format = "form"
	// FormatPretty emits one path=value line per leaf.
	FormatPretty Format = "pretty"
	// FormatSummary renders a text template over the sorted leaves.
	FormatSummary Format = "summary"
)

// DefaultSummaryTemplate lists every leaf under the form title.
const DefaultSummaryTemplate = `{{ title|safe }}
{% for entry in entries %}- {{ entry.Path|safe }}: {{ entry.Value|safe }}
{% endfor %}`

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatJSON, FormatForm, FormatPretty, FormatSummary}
}

// ParseFormat maps a flag value onto a Format.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatForm, "form-urlencoded":
		return FormatForm, nil
	case FormatPretty, "text":
		return FormatPretty, nil
	case FormatSummary:
		return FormatSummary, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, raw)
	}
}

// ContentType reports the media type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatForm:
		return "application/x-www-form-urlencoded"
	case FormatPretty, FormatSummary:
		return "text/plain"
	default:
		return "application/json"
	}
}

// Entry is one leaf of a submission as seen by the summary template.
type Entry struct {
	Path  string
	Value string
}

// Entries flattens snap into sorted leaf entries.
func Entries(snap field.Snapshot) []Entry {
	leaves := snap.Leaves()
	out := make([]Entry, 0, len(leaves))
	for _, path := range leaves {
		value, _ := snap.Lookup(path)
		out = append(out, Entry{Path: path, Value: scalarString(value)})
	}
	return out
}

func encodeJSON(snap field.Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(map[string]any(snap), "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func encodeForm(snap field.Snapshot) []byte {
	values := url.Values{}
	flatten("", map[string]any(snap), values)
	return []byte(values.Encode())
}

func flatten(prefix string, value any, out url.Values) {
	switch v := value.(type) {
	case map[string]any:
		for key, val := range v {
			flatten(field.JoinPath(prefix, key), val, out)
		}
	case []any:
		for _, val := range v {
			out.Add(prefix+"[]", scalarString(val))
		}
	default:
		out.Set(prefix, scalarString(v))
	}
}

func encodePretty(snap field.Snapshot) []byte {
	var b strings.Builder
	for _, entry := range Entries(snap) {
		fmt.Fprintf(&b, "%s=%s\n", entry.Path, entry.Value)
	}
	return []byte(b.String())
}

func encodeSummary(tpl *pongo2.Template, title string, snap field.Snapshot) ([]byte, error) {
	out, err := tpl.ExecuteBytes(pongo2.Context{
		"title":   title,
		"entries": Entries(snap),
		"values":  map[string]any(snap),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplate, err)
	}
	return out, nil
}

func scalarString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]any:
		if len(v) == 0 {
			return ""
		}
		return fmt.Sprint(v)
	default:
		return fmt.Sprint(v)
	}
}
