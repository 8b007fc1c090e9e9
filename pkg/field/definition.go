package field

import (
	"strings"

	"github.com/goliatone/go-formstate/pkg/guard"
)

// Type enumerates the input kinds a presentation layer can offer for a field.
type Type string

const (
	TypeText     Type = "text"
	TypeEmail    Type = "email"
	TypeNumber   Type = "number"
	TypeSelect   Type = "select"
	TypeCheckbox Type = "checkbox"
	TypeTextArea Type = "textarea"
	TypeDateTime Type = "datetime"
)

// Definition describes a field for presentation. Checkbox definitions address
// a section of booleans and list its keys in Options.
type Definition struct {
	Path    string
	Label   string
	Type    Type
	Options []string
	// VisibleWhen is a guard expression evaluated against the current snapshot;
	// empty means always visible.
	VisibleWhen string
}

// DisplayLabel falls back to the path when no label is set.
func (d Definition) DisplayLabel() string {
	if strings.TrimSpace(d.Label) != "" {
		return d.Label
	}
	return d.Path
}

// Visible evaluates VisibleWhen against snap. Expressions that fail to
// evaluate hide the field.
func (d Definition) Visible(snap Snapshot) bool {
	if strings.TrimSpace(d.VisibleWhen) == "" {
		return true
	}
	ok, err := guard.Eval(d.VisibleWhen, snap.Values())
	if err != nil {
		return false
	}
	return ok
}

// VisibleDefinitions filters defs down to those visible for snap, preserving
// order.
func VisibleDefinitions(defs []Definition, snap Snapshot) []Definition {
	out := make([]Definition, 0, len(defs))
	for _, def := range defs {
		if def.Visible(snap) {
			out = append(out, def)
		}
	}
	return out
}
