// Package form drives one form instance: it owns the field store, runs
// validation on submit and keeps the externally resolved fields in step with
// the discriminant field.
//
// A Controller is safe for concurrent use. Edits and submits are applied in
// call order; a dynamic resolution started by an earlier discriminant value is
// cancelled and its late result discarded once a newer value arrives.
package form
