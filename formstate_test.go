package formstate

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/testsupport"
)

func TestNewUnknownPreset(t *testing.T) {
	t.Parallel()

	if _, err := New("payroll"); err == nil {
		t.Fatalf("expected error for unknown preset")
	}
}

func TestNewRegistration(t *testing.T) {
	t.Parallel()

	c, err := New("registration")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	result, err := c.OnSubmit(context.Background())
	if err != nil {
		t.Fatalf("OnSubmit: %v", err)
	}
	if len(result.Errors) != 3 {
		t.Fatalf("expected 3 errors, got %v", result.Errors)
	}
}

func TestNewSurveyFetchesQuestions(t *testing.T) {
	t.Parallel()

	server := testsupport.ServeFile(t, "testdata/questions.json")

	c, err := NewSurvey(server.URL)
	if err != nil {
		t.Fatalf("NewSurvey: %v", err)
	}
	defer c.Close()

	if err := c.OnChange("surveyTopic", "Education"); err != nil {
		t.Fatalf("OnChange: %v", err)
	}
	ctx, cancel := context.WithTimeout(testsupport.Context(t), 2*time.Second)
	defer cancel()
	if err := c.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	var want []Descriptor
	for _, d := range testsupport.LoadDescriptors(t, "testdata/questions.json") {
		if d.Topic == "Education" {
			want = append(want, d)
		}
	}
	if diff := cmp.Diff(want, c.Descriptors()); diff != "" {
		t.Fatalf("descriptors mismatch (-want +got):\n%s", diff)
	}
	if got := c.DynamicFields()[1].Path; got != "additionalQuestion1" {
		t.Fatalf("second dynamic path = %q", got)
	}

	if _, err := NewSurvey(" "); err == nil {
		t.Fatalf("expected error for blank URL")
	}
}
