package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-formstate/pkg/dynamic"
	"github.com/goliatone/go-formstate/pkg/field"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/validation"
)

// Controller is the slice of *form.Controller a session drives.
type Controller interface {
	OnChange(path string, value any) error
	OnSubmit(ctx context.Context) (form.Result, error)
	View() form.View
	Wait(ctx context.Context) error
	KeyFor(path string) string
}

type askedKey struct {
	path  string
	id    dynamic.ID
	topic string
}

// Session walks a user through one form in the terminal. It prompts every
// visible field in order, asks resolved dynamic questions right after the
// edit that produced them, then submits and re-prompts only the fields that
// failed validation.
type Session struct {
	controller  Controller
	fields      []field.Definition
	driver      PromptDriver
	theme       Theme
	title       string
	maxAttempts int
	logger      logrus.FieldLogger

	asked       map[askedKey]struct{}
	reportedErr error
}

// NewSession builds a session over controller. fields lists the presentation
// order; the survey driver is used unless WithPromptDriver overrides it.
func NewSession(controller Controller, fields []field.Definition, options ...Option) (*Session, error) {
	if controller == nil {
		return nil, errors.New("tui: controller is required")
	}
	s := &Session{
		controller: controller,
		fields:     append([]field.Definition(nil), fields...),
		asked:      make(map[askedKey]struct{}),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	if s.driver == nil {
		s.driver = NewSurveyDriver()
	}
	if s.logger == nil {
		logger := logrus.New()
		logger.SetOutput(io.Discard)
		s.logger = logger
	}
	return s, nil
}

// Run prompts until the controller accepts a submit, the user aborts, or the
// attempt limit is reached.
func (s *Session) Run(ctx context.Context) (form.Result, error) {
	if ctx == nil {
		return form.Result{}, errors.New("tui: context is required")
	}
	if err := ctx.Err(); err != nil {
		return form.Result{}, err
	}
	if s.title != "" {
		if err := s.info(ctx, s.title); err != nil {
			return form.Result{}, err
		}
	}

	for _, def := range s.fields {
		view := s.controller.View()
		if !def.Visible(view.Snapshot) {
			continue
		}
		if err := s.promptField(ctx, def, view, ""); err != nil {
			return form.Result{}, err
		}
	}

	for attempt := 1; ; attempt++ {
		result, err := s.controller.OnSubmit(ctx)
		if err != nil {
			return result, err
		}
		s.logger.WithFields(logrus.Fields{
			"attempt": attempt,
			"errors":  len(result.Errors),
		}).Debug("submit attempt")

		if result.Submitted {
			return result, s.info(ctx, "Form submitted successfully!")
		}
		if s.maxAttempts > 0 && attempt >= s.maxAttempts {
			return result, fmt.Errorf("%w: %d", ErrTooManyAttempts, attempt)
		}
		if err := s.reportErrors(ctx, result.Errors); err != nil {
			return result, err
		}
		if err := s.repromptInvalid(ctx, result.Errors); err != nil {
			return result, err
		}
	}
}

func (s *Session) repromptInvalid(ctx context.Context, errs validation.ErrorMap) error {
	for _, def := range s.fields {
		msg, ok := errs[s.controller.KeyFor(def.Path)]
		if !ok {
			continue
		}
		if err := s.promptField(ctx, def, s.controller.View(), msg); err != nil {
			return err
		}
	}

	view := s.controller.View()
	for _, df := range view.DynamicFields {
		msg, ok := errs[s.controller.KeyFor(df.Path)]
		if !ok {
			continue
		}
		if err := s.promptDynamic(ctx, df, view.Snapshot, msg); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) promptField(ctx context.Context, def field.Definition, view form.View, problem string) error {
	label := def.DisplayLabel()
	current := view.Snapshot.String(def.Path)

	var value any
	switch def.Type {
	case field.TypeSelect:
		idx, err := s.driver.Select(ctx, SelectConfig{
			Message:      label,
			Options:      def.Options,
			DefaultIndex: indexOf(def.Options, current),
			Help:         problem,
		})
		if err != nil {
			return err
		}
		value = ""
		if idx >= 0 && idx < len(def.Options) {
			value = def.Options[idx]
		}
	case field.TypeCheckbox:
		if len(def.Options) == 0 {
			checked, err := s.driver.Confirm(ctx, ConfirmConfig{
				Message: label,
				Default: current == "true",
				Help:    problem,
			})
			if err != nil {
				return err
			}
			value = checked
			break
		}
		var defaults []int
		for i, option := range def.Options {
			if view.Snapshot.String(field.JoinPath(def.Path, option)) == "true" {
				defaults = append(defaults, i)
			}
		}
		picked, err := s.driver.MultiSelect(ctx, SelectConfig{
			Message:  label,
			Options:  def.Options,
			Defaults: defaults,
			Help:     problem,
		})
		if err != nil {
			return err
		}
		group := make(map[string]any, len(def.Options))
		for _, option := range def.Options {
			group[option] = false
		}
		for _, idx := range picked {
			if idx >= 0 && idx < len(def.Options) {
				group[def.Options[idx]] = true
			}
		}
		value = group
	case field.TypeTextArea:
		text, err := s.driver.TextArea(ctx, TextAreaConfig{Message: label, Default: current, Help: problem})
		if err != nil {
			return err
		}
		value = text
	default:
		text, err := s.driver.Input(ctx, InputConfig{Message: label, Default: current, Help: problem})
		if err != nil {
			return err
		}
		value = text
	}

	if err := s.controller.OnChange(def.Path, value); err != nil {
		return fmt.Errorf("tui: %s: %w", def.Path, err)
	}
	return s.afterChange(ctx)
}

// afterChange waits for any resolution the edit started and asks dynamic
// questions that have not been asked for the current discriminant yet.
func (s *Session) afterChange(ctx context.Context) error {
	if err := s.controller.Wait(ctx); err != nil {
		return err
	}
	view := s.controller.View()
	if view.ResolutionErr != nil && view.ResolutionErr != s.reportedErr {
		s.reportedErr = view.ResolutionErr
		if err := s.warn(ctx, "Could not load additional questions; re-select the topic to retry."); err != nil {
			return err
		}
	}

	for _, df := range view.DynamicFields {
		key := askedKey{path: df.Path, id: df.Descriptor.ID, topic: strings.ToLower(df.Descriptor.Topic)}
		if _, ok := s.asked[key]; ok {
			continue
		}
		s.asked[key] = struct{}{}
		if err := s.promptDynamic(ctx, df, view.Snapshot, ""); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) promptDynamic(ctx context.Context, df form.DynamicField, snap field.Snapshot, problem string) error {
	help := problem
	if help == "" && df.Descriptor.Kind() == dynamic.TypeNumber {
		help = "Enter a number"
	}
	text, err := s.driver.Input(ctx, InputConfig{
		Message: df.Descriptor.Question,
		Default: snap.String(df.Path),
		Help:    help,
	})
	if err != nil {
		return err
	}
	if err := s.controller.OnChange(df.Path, text); err != nil {
		return fmt.Errorf("tui: %s: %w", df.Path, err)
	}
	return nil
}

func (s *Session) reportErrors(ctx context.Context, errs validation.ErrorMap) error {
	for _, key := range errs.Keys() {
		if err := s.warn(ctx, fmt.Sprintf("%s: %s", s.labelFor(key), errs[key])); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) labelFor(key string) string {
	for _, def := range s.fields {
		if s.controller.KeyFor(def.Path) == key {
			return def.DisplayLabel()
		}
	}
	for _, df := range s.controller.View().DynamicFields {
		if s.controller.KeyFor(df.Path) == key {
			return df.Descriptor.Question
		}
	}
	return key
}

func (s *Session) info(ctx context.Context, msg string) error {
	return s.driver.Info(ctx, s.theme.InfoPrefix+msg)
}

func (s *Session) warn(ctx context.Context, msg string) error {
	return s.driver.Info(ctx, s.theme.ErrorPrefix+msg)
}
