// Package guard compiles the small boolean expressions that gate conditional
// fields. The same expression drives both visibility (field.Definition) and
// conditional validation (validation.When), so a section is validated exactly
// when it is shown.
package guard
