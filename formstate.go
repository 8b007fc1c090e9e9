package formstate

import (
	"github.com/goliatone/go-formstate/pkg/dynamic"
	"github.com/goliatone/go-formstate/pkg/field"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/presets"
	"github.com/goliatone/go-formstate/pkg/validation"
)

// Controller aliases form.Controller so callers can stay on the root package.
type Controller = form.Controller

// Snapshot aliases field.Snapshot.
type Snapshot = field.Snapshot

// ErrorMap aliases validation.ErrorMap.
type ErrorMap = validation.ErrorMap

// Policy aliases form.Policy.
type Policy = form.Policy

// Descriptor aliases dynamic.Descriptor.
type Descriptor = dynamic.Descriptor

// Definition aliases presets.Definition.
type Definition = presets.Definition

// New builds a controller for the named built-in form ("registration",
// "application" or "survey").
func New(presetName string, options ...form.Option) (*form.Controller, error) {
	def, err := presets.Lookup(presetName)
	if err != nil {
		return nil, err
	}
	return def.NewController(options...), nil
}

// NewSurvey builds the survey form with additional questions fetched from
// questionsURL whenever the topic changes.
func NewSurvey(questionsURL string, options ...form.Option) (*form.Controller, error) {
	source, err := dynamic.NewHTTPSource(questionsURL)
	if err != nil {
		return nil, err
	}
	def := presets.Survey()
	opts := append([]form.Option{def.DynamicFields(dynamic.NewResolver(source))}, options...)
	return def.NewController(opts...), nil
}
