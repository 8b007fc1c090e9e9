// Package formstate is a form-state and validation engine. A controller owns
// one form's values, recomputes validation errors on submit, and keeps a set
// of externally defined questions in step with a discriminant field.
//
// The root package only re-exports the common entry points; the building
// blocks live under pkg/: field (snapshot store), guard (condition
// expressions), validation (rule engine), dynamic (descriptor sources),
// form (controller), submit (sinks), presets (built-in forms) and
// renderers/tui (interactive terminal session).
package formstate
