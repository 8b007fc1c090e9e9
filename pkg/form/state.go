package form

import (
	"github.com/goliatone/go-formstate/pkg/dynamic"
	"github.com/goliatone/go-formstate/pkg/field"
	"github.com/goliatone/go-formstate/pkg/validation"
)

// State is the controller's lifecycle position.
type State int

const (
	// StateEditing is the initial state and the state after a failed submit.
	StateEditing State = iota
	// StateValidating is held only while a submit runs validation.
	StateValidating
	// StateSubmitted follows a submit with no errors, until the next edit.
	StateSubmitted
)

func (s State) String() string {
	switch s {
	case StateEditing:
		return "editing"
	case StateValidating:
		return "validating"
	case StateSubmitted:
		return "submitted"
	default:
		return "unknown"
	}
}

// Policy captures the per-form edit behaviours that differ between form
// variants.
type Policy struct {
	// ClearErrorOnEdit drops the edited field's error immediately instead of
	// waiting for the next submit.
	ClearErrorOnEdit bool
	// ResetSubmittedOnEdit clears the submitted flag on any edit. When false
	// the flag stays set until the next submit recomputes it.
	ResetSubmittedOnEdit bool
}

// DynamicField binds a resolved descriptor to the snapshot path holding its
// answer.
type DynamicField struct {
	Path       string
	Descriptor dynamic.Descriptor
}

// Result is the outcome of a submit attempt.
type Result struct {
	State     State
	Submitted bool
	Errors    validation.ErrorMap
}

// View is a read-only copy of everything the presentation layer renders.
type View struct {
	State         State
	Submitted     bool
	Snapshot      field.Snapshot
	Errors        validation.ErrorMap
	DynamicFields []DynamicField
	Resolving     bool
	ResolutionErr error
}

// Descriptors lists the resolved descriptors in order.
func (v View) Descriptors() []dynamic.Descriptor {
	out := make([]dynamic.Descriptor, 0, len(v.DynamicFields))
	for _, f := range v.DynamicFields {
		out = append(out, f.Descriptor)
	}
	return out
}
