package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/dynamic"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/presets"
)

type stubDriver struct {
	inputs       []string
	selectIdx    []int
	multiIdx     [][]int
	confirm      []bool
	textAreas    []string
	prompts      []string
	infoMessages []string
	inputPos     int
	selectPos    int
	multiPos     int
	confirmPos   int
	textPos      int
}

func (s *stubDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	s.prompts = append(s.prompts, cfg.Message)
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted")
	}
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, cfg ConfirmConfig) (bool, error) {
	s.prompts = append(s.prompts, cfg.Message)
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	s.prompts = append(s.prompts, cfg.Message)
	if s.selectPos >= len(s.selectIdx) {
		return -1, errors.New("no select scripted")
	}
	val := s.selectIdx[s.selectPos]
	s.selectPos++
	return val, nil
}

func (s *stubDriver) MultiSelect(_ context.Context, cfg SelectConfig) ([]int, error) {
	s.prompts = append(s.prompts, cfg.Message)
	if s.multiPos >= len(s.multiIdx) {
		return nil, errors.New("no multiselect scripted")
	}
	val := s.multiIdx[s.multiPos]
	s.multiPos++
	return val, nil
}

func (s *stubDriver) TextArea(_ context.Context, cfg TextAreaConfig) (string, error) {
	s.prompts = append(s.prompts, cfg.Message)
	if s.textPos >= len(s.textAreas) {
		return "", errors.New("no textarea scripted")
	}
	val := s.textAreas[s.textPos]
	s.textPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

func newSession(t *testing.T, c *form.Controller, def presets.Definition, driver PromptDriver, opts ...Option) *Session {
	t.Helper()
	opts = append([]Option{WithPromptDriver(driver)}, opts...)
	s, err := NewSession(c, def.Fields, opts...)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

func TestSession_RepromptsOnlyInvalidFields(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"", "ana@example.com", "30", "Ana"},
		selectIdx: []int{0},
	}
	def := presets.Registration()
	c := def.NewController()
	defer c.Close()

	result, err := newSession(t, c, def, driver, WithTitle(def.Title)).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !result.Submitted {
		t.Fatalf("expected submitted, got %v", result.Errors)
	}

	wantPrompts := []string{"Name", "Email", "Age", "Are you attending with a guest?", "Name"}
	if diff := cmp.Diff(wantPrompts, driver.prompts); diff != "" {
		t.Fatalf("prompt order mismatch (-want +got):\n%s", diff)
	}
	wantInfo := []string{"Event Registration Form", "Name: Name is required", "Form submitted successfully!"}
	if diff := cmp.Diff(wantInfo, driver.infoMessages); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}
	if got := c.Snapshot().String("name"); got != "Ana" {
		t.Fatalf("name = %q", got)
	}
}

func TestSession_ConditionalFieldShownAfterToggle(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"Ana", "ana@example.com", "30", "Bo"},
		selectIdx: []int{1},
	}
	def := presets.Registration()
	c := def.NewController()
	defer c.Close()

	if _, err := newSession(t, c, def, driver).Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := driver.prompts[len(driver.prompts)-1]; got != "Guest Name" {
		t.Fatalf("expected guest name prompt last, got %q", got)
	}
	if got := c.Snapshot().String("guestName"); got != "Bo" {
		t.Fatalf("guestName = %q", got)
	}
}

func TestSession_DynamicQuestions(t *testing.T) {
	source := dynamic.StaticSource{
		{ID: "1", Topic: "Technology", Question: "Favourite editor?", Type: dynamic.TypeText},
		{ID: "2", Topic: "health", Question: "Hours of sleep?", Type: dynamic.TypeNumber},
	}
	driver := &stubDriver{
		// fullName, email, dynamic answer, diet, then the re-prompted answer
		inputs:    []string{"Ana", "ana@example.com", "lots", "Vegan", "8"},
		selectIdx: []int{1, 0},
		textAreas: []string{"Short and sweet survey"},
	}
	def := presets.Survey()
	c := def.NewController(def.DynamicFields(dynamic.NewResolver(source)))
	defer c.Close()

	result, err := newSession(t, c, def, driver).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !result.Submitted {
		t.Fatalf("expected submitted, got %v", result.Errors)
	}

	wantPrompts := []string{
		"Full Name",
		"Email",
		"Survey Topic",
		"Hours of sleep?",
		"Exercise Frequency",
		"Diet Preference",
		"Feedback",
		"Hours of sleep?",
	}
	if diff := cmp.Diff(wantPrompts, driver.prompts); diff != "" {
		t.Fatalf("prompt order mismatch (-want +got):\n%s", diff)
	}

	snap := c.Snapshot()
	if got := snap.String("additionalQuestion0"); got != "8" {
		t.Fatalf("dynamic answer = %q", got)
	}
	if got := snap.String("health.exerciseFrequency"); got != "Daily" {
		t.Fatalf("exercise frequency = %q", got)
	}
	found := false
	for _, msg := range driver.infoMessages {
		if strings.Contains(msg, "Hours of sleep?: Must be a number") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected dynamic error reported, got %v", driver.infoMessages)
	}
}

func TestSession_ReportsResolutionFailure(t *testing.T) {
	source := dynamic.SourceFunc(func(context.Context) ([]dynamic.Descriptor, error) {
		return nil, errors.New("connection refused")
	})
	driver := &stubDriver{
		inputs:    []string{"Ana", "ana@example.com", "Go", "5"},
		selectIdx: []int{0},
		textAreas: []string{"Nothing else to add"},
	}
	def := presets.Survey()
	c := def.NewController(def.DynamicFields(dynamic.NewResolver(source)))
	defer c.Close()

	result, err := newSession(t, c, def, driver, WithTheme(Theme{ErrorPrefix: "! "})).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !result.Submitted {
		t.Fatalf("form should stay usable after resolution failure: %v", result.Errors)
	}
	if len(driver.infoMessages) == 0 || !strings.HasPrefix(driver.infoMessages[0], "! Could not load additional questions") {
		t.Fatalf("expected resolution warning, got %v", driver.infoMessages)
	}
}

func TestSession_MaxAttempts(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"", "", ""},
		selectIdx: []int{0},
	}
	def := presets.Registration()
	c := def.NewController()
	defer c.Close()

	result, err := newSession(t, c, def, driver, WithMaxAttempts(1)).Run(context.Background())
	if !errors.Is(err, ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}
	if result.Submitted || len(result.Errors) != 3 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestSession_CheckboxGroup(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"Ana Smith", "ana@example.com", "5551234", "4", "2024-05-01T10:00"},
		selectIdx: []int{0},
		multiIdx:  [][]int{{0, 2}},
	}
	def := presets.JobApplication()
	c := def.NewController()
	defer c.Close()

	result, err := newSession(t, c, def, driver).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !result.Submitted {
		t.Fatalf("expected submitted, got %v", result.Errors)
	}
	skills, _ := c.Value("additionalSkills")
	want := map[string]any{"JavaScript": true, "CSS": false, "Python": true, "Java": false}
	if diff := cmp.Diff(want, skills); diff != "" {
		t.Fatalf("skills mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_PropagatesAbort(t *testing.T) {
	driver := &abortDriver{stubDriver: &stubDriver{}}
	def := presets.Registration()
	c := def.NewController()
	defer c.Close()

	if _, err := newSession(t, c, def, driver).Run(context.Background()); !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
}

type abortDriver struct {
	*stubDriver
}

func (d *abortDriver) Input(context.Context, InputConfig) (string, error) {
	return "", ErrAborted
}
