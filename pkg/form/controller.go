package form

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-formstate/pkg/dynamic"
	"github.com/goliatone/go-formstate/pkg/field"
	"github.com/goliatone/go-formstate/pkg/validation"
)

// ErrClosed is returned by mutators after Close.
var ErrClosed = errors.New("form: controller is closed")

// Validator maps a snapshot to its errors. *validation.Engine satisfies it.
type Validator interface {
	Validate(snap field.Snapshot) validation.ErrorMap
	KeyFor(path string) string
}

// Resolver turns a discriminant value into descriptors. *dynamic.Resolver
// satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, discriminant string) ([]dynamic.Descriptor, error)
}

// Controller owns one form instance: its snapshot, errors, submitted flag and
// resolved dynamic fields. All transitions are serialised by a single mutex;
// resolutions run in background goroutines and apply their result only if no
// newer discriminant change has happened since they started.
type Controller struct {
	mu sync.Mutex

	name         string
	store        *field.Store
	validator    Validator
	policy       Policy
	discriminant string
	resolver     Resolver
	sink         Sink
	sanitizer    Sanitizer
	namer        FieldNamer
	observers    []Observer
	logger       logrus.FieldLogger
	strict       bool

	state         State
	submitted     bool
	errors        validation.ErrorMap
	dynamicFields []DynamicField
	resolutionErr error

	baseCtx    context.Context
	stop       context.CancelFunc
	generation uint64
	cancel     context.CancelFunc
	pending    chan struct{}
	wg         sync.WaitGroup
	closed     bool

	outbox      []View
	dispatching bool
}

// New builds a controller seeded with initial. A nil validator accepts every
// snapshot.
func New(initial field.Snapshot, validator Validator, options ...Option) *Controller {
	c := &Controller{
		validator: validator,
		namer:     DefaultFieldNamer,
		logger:    discardLogger(),
		errors:    make(validation.ErrorMap),
		baseCtx:   context.Background(),
		state:     StateEditing,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	if c.validator == nil {
		c.validator = validation.New(nil)
	}

	var storeOpts []field.StoreOption
	if c.strict {
		storeOpts = append(storeOpts, field.WithStrict())
	}
	c.store = field.NewStore(initial, storeOpts...)
	c.baseCtx, c.stop = context.WithCancel(c.baseCtx)

	if c.name != "" {
		c.logger = c.logger.WithField("form", c.name)
	}
	return c
}

// OnChange writes value at path. Editing a discriminant field starts a new
// dynamic resolution and discards the current descriptor list. In strict mode
// writes to undeclared paths fail with field.ErrSchemaViolation and leave the
// state untouched.
func (c *Controller) OnChange(path string, value any) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}

	if text, ok := value.(string); ok && c.sanitizer != nil {
		value = c.sanitizer.Sanitize(text)
	}

	if _, err := c.store.Set(path, value); err != nil {
		c.mu.Unlock()
		c.logger.WithError(err).WithField("path", path).Warn("rejected field change")
		return err
	}
	path = strings.TrimSpace(path)

	if c.state == StateSubmitted {
		c.state = StateEditing
	}
	if c.policy.ClearErrorOnEdit {
		delete(c.errors, path)
		delete(c.errors, c.validator.KeyFor(path))
	}
	if c.policy.ResetSubmittedOnEdit {
		c.submitted = false
	}

	if c.resolver != nil && c.discriminant != "" && path == c.discriminant {
		c.startResolutionLocked(c.store.Snapshot().String(path))
	}

	c.publishLocked()
	c.mu.Unlock()

	c.dispatch()
	return nil
}

// OnSubmit validates the current snapshot. With no errors the controller moves
// to StateSubmitted and hands a copy of the snapshot to the sink; otherwise it
// returns to StateEditing with the computed errors. A sink failure is returned
// but does not undo the submitted state.
func (c *Controller) OnSubmit(ctx context.Context) (Result, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Result{}, ErrClosed
	}

	c.state = StateValidating
	snap := c.store.Snapshot()
	errs := c.validator.Validate(snap)
	for key, msg := range c.dynamicErrorsLocked(snap) {
		errs[key] = msg
	}

	var submission field.Snapshot
	if errs.Empty() {
		c.errors = make(validation.ErrorMap)
		c.submitted = true
		c.state = StateSubmitted
		submission = snap.Clone()
	} else {
		c.errors = errs
		c.submitted = false
		c.state = StateEditing
	}

	result := Result{
		State:     c.state,
		Submitted: c.submitted,
		Errors:    c.errors.Clone(),
	}
	c.publishLocked()
	sink := c.sink
	c.mu.Unlock()

	c.logger.WithFields(logrus.Fields{
		"state":  result.State.String(),
		"errors": len(result.Errors),
	}).Debug("form submitted")
	c.dispatch()

	if submission == nil || sink == nil {
		return result, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := sink.Submit(ctx, submission); err != nil {
		c.logger.WithError(err).Error("submission sink failed")
		return result, fmt.Errorf("form: sink: %w", err)
	}
	return result, nil
}

// Snapshot returns a deep copy of the current values.
func (c *Controller) Snapshot() field.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Snapshot().Clone()
}

// Value resolves a dotted path against the current values.
func (c *Controller) Value(path string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Get(path)
}

// Errors returns a copy of the latest error map.
func (c *Controller) Errors() validation.ErrorMap {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errors.Clone()
}

// Submitted reports whether the last submit succeeded (subject to
// Policy.ResetSubmittedOnEdit).
func (c *Controller) Submitted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitted
}

// State reports the lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Descriptors returns the resolved descriptors for the current discriminant.
func (c *Controller) Descriptors() []dynamic.Descriptor {
	return c.View().Descriptors()
}

// DynamicFields returns the resolved descriptors with their answer paths.
func (c *Controller) DynamicFields() []DynamicField {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]DynamicField(nil), c.dynamicFields...)
}

// ResolutionErr reports the failure of the latest resolution, if any.
func (c *Controller) ResolutionErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resolutionErr
}

// KeyFor reports the error key used for a field path.
func (c *Controller) KeyFor(path string) string {
	return c.validator.KeyFor(path)
}

// View returns a consistent copy of the presentation state.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// Wait blocks until no resolution is in flight or ctx ends.
func (c *Controller) Wait(ctx context.Context) error {
	for {
		c.mu.Lock()
		pending := c.pending
		c.mu.Unlock()
		if pending == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-pending:
		}
	}
}

// Close cancels in-flight resolutions and waits for their goroutines. Later
// mutations fail with ErrClosed.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.generation++
	c.pending = nil
	c.stop()
	c.mu.Unlock()

	c.wg.Wait()
	return nil
}

func (c *Controller) startResolutionLocked(value string) {
	c.generation++
	gen := c.generation
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.dynamicFields = nil
	c.resolutionErr = nil
	c.pending = nil

	value = strings.TrimSpace(value)
	if value == "" {
		return
	}

	ctx, cancel := context.WithCancel(c.baseCtx)
	done := make(chan struct{})
	c.cancel = cancel
	c.pending = done

	c.logger.WithFields(logrus.Fields{
		"discriminant": value,
		"generation":   gen,
	}).Debug("resolving dynamic fields")

	c.wg.Add(1)
	go c.resolve(ctx, cancel, gen, value, done)
}

func (c *Controller) resolve(ctx context.Context, cancel context.CancelFunc, gen uint64, value string, done chan struct{}) {
	defer c.wg.Done()
	defer close(done)
	defer cancel()

	descriptors, err := c.resolver.Resolve(ctx, value)

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		c.logger.WithFields(logrus.Fields{
			"discriminant": value,
			"generation":   gen,
		}).Debug("discarding stale dynamic fields")
		return
	}

	c.cancel = nil
	c.pending = nil
	if err != nil {
		c.dynamicFields = nil
		c.resolutionErr = err
		c.logger.WithError(err).WithField("discriminant", value).Warn("dynamic field resolution failed")
	} else {
		c.dynamicFields = c.bindLocked(descriptors)
	}
	c.publishLocked()
	c.mu.Unlock()

	c.dispatch()
}

func (c *Controller) bindLocked(descriptors []dynamic.Descriptor) []DynamicField {
	if len(descriptors) == 0 {
		return nil
	}
	out := make([]DynamicField, 0, len(descriptors))
	for i, d := range descriptors {
		path := c.namer(i, d)
		c.store.Declare(path)
		out = append(out, DynamicField{Path: path, Descriptor: d})
	}
	return out
}

func (c *Controller) dynamicErrorsLocked(snap field.Snapshot) validation.ErrorMap {
	errs := make(validation.ErrorMap)
	for _, f := range c.dynamicFields {
		if f.Descriptor.Kind() != dynamic.TypeNumber {
			continue
		}
		value, _ := snap.Lookup(f.Path)
		if !validation.Numeric(value) {
			errs[c.validator.KeyFor(f.Path)] = "Must be a number"
		}
	}
	return errs
}

func (c *Controller) viewLocked() View {
	return View{
		State:         c.state,
		Submitted:     c.submitted,
		Snapshot:      c.store.Snapshot().Clone(),
		Errors:        c.errors.Clone(),
		DynamicFields: append([]DynamicField(nil), c.dynamicFields...),
		Resolving:     c.pending != nil,
		ResolutionErr: c.resolutionErr,
	}
}

// publishLocked queues the current view for observers. Views are queued in
// transition order, so observers never see an older view after a newer one.
func (c *Controller) publishLocked() {
	if len(c.observers) == 0 {
		return
	}
	c.outbox = append(c.outbox, c.viewLocked())
}

// dispatch delivers queued views outside the lock. Only one goroutine drains
// the outbox at a time; any other caller returns and leaves its view to the
// active drainer. Observers may call back into the controller.
func (c *Controller) dispatch() {
	c.mu.Lock()
	if c.dispatching {
		c.mu.Unlock()
		return
	}
	c.dispatching = true

	for len(c.outbox) > 0 {
		view := c.outbox[0]
		c.outbox[0] = View{}
		c.outbox = c.outbox[1:]
		c.mu.Unlock()
		for _, observer := range c.observers {
			observer(view)
		}
		c.mu.Lock()
	}
	c.dispatching = false
	c.mu.Unlock()
}
