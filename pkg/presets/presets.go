package presets

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-formstate/pkg/field"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/validation"
)

// Definition is a complete form: initial values, presentation fields,
// validation rules and edit policy.
type Definition struct {
	Name    string
	Title   string
	Initial field.Snapshot
	Fields  []field.Definition
	Rules   []validation.Rule
	Policy  form.Policy
	// Discriminant names the field whose value drives dynamic resolution.
	// Empty when the form has no dynamic fields.
	Discriminant string
	// ShortKeys keys nested-section errors by leaf name instead of full path.
	ShortKeys bool
}

// Engine builds the validation engine for the definition.
func (d Definition) Engine() *validation.Engine {
	var opts []validation.Option
	if d.ShortKeys {
		opts = append(opts, validation.WithShortKeys())
	}
	return validation.New(d.Rules, opts...)
}

// DynamicFields wires resolver to the definition's discriminant. It returns a
// no-op option when the form has no discriminant or resolver is nil.
func (d Definition) DynamicFields(resolver form.Resolver) form.Option {
	if d.Discriminant == "" || resolver == nil {
		return nil
	}
	return form.WithResolver(d.Discriminant, resolver)
}

// NewController builds a controller for a fresh form instance. Caller options
// are applied after the definition's name and policy.
func (d Definition) NewController(options ...form.Option) *form.Controller {
	opts := make([]form.Option, 0, len(options)+2)
	opts = append(opts, form.WithName(d.Name), form.WithPolicy(d.Policy))
	opts = append(opts, options...)
	return form.New(d.Initial, d.Engine(), opts...)
}

// FieldFor returns the presentation field for path.
func (d Definition) FieldFor(path string) (field.Definition, bool) {
	for _, def := range d.Fields {
		if def.Path == path {
			return def, true
		}
	}
	return field.Definition{}, false
}

var registry = map[string]func() Definition{
	"registration": Registration,
	"application":  JobApplication,
	"survey":       Survey,
}

// Names lists the built-in presets.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns a fresh copy of a built-in preset.
func Lookup(name string) (Definition, error) {
	build, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Definition{}, fmt.Errorf("presets: unknown form %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	return build(), nil
}
