package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/field"
)

func registrationRules() []Rule {
	return []Rule{
		Required("name", "Name is required"),
		Required("email", "Email is required"),
		Email("email", "Email is invalid"),
		Required("age", "Age is required"),
		Positive("age", "Age must be a number greater than 0"),
		Required("guestName", "Guest name is required").OnlyWhen(WhenEquals("attendingWithGuest", "Yes")),
	}
}

func TestValidateRegistration(t *testing.T) {
	t.Parallel()

	engine := New(registrationRules())

	cases := []struct {
		name string
		snap field.Snapshot
		want ErrorMap
	}{
		{
			name: "all empty",
			snap: field.Snapshot{"name": "", "email": "", "age": "", "attendingWithGuest": "No", "guestName": ""},
			want: ErrorMap{
				"name":  "Name is required",
				"email": "Email is required",
				"age":   "Age is required",
			},
		},
		{
			name: "format errors",
			snap: field.Snapshot{"name": "Ana", "email": "ana-at-home", "age": "-3", "attendingWithGuest": "No", "guestName": ""},
			want: ErrorMap{
				"email": "Email is invalid",
				"age":   "Age must be a number greater than 0",
			},
		},
		{
			name: "non numeric age",
			snap: field.Snapshot{"name": "Ana", "email": "a@b.com", "age": "thirty", "attendingWithGuest": "No"},
			want: ErrorMap{"age": "Age must be a number greater than 0"},
		},
		{
			name: "guest required when attending with guest",
			snap: field.Snapshot{"name": "Ana", "email": "a@b.com", "age": "30", "attendingWithGuest": "Yes", "guestName": ""},
			want: ErrorMap{"guestName": "Guest name is required"},
		},
		{
			name: "valid",
			snap: field.Snapshot{"name": "Ana", "email": "a@b.com", "age": "30", "attendingWithGuest": "Yes", "guestName": "Bo"},
			want: ErrorMap{},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := engine.Validate(tc.snap)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("errors mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestConditionalRuleOnlyFiresWhenGuardHolds(t *testing.T) {
	t.Parallel()

	engine := New([]Rule{
		{
			Path:    "relevantExperience",
			Message: "Relevant Experience is required and must be greater than 0",
			When:    When(`position == "Developer" || position == "Designer"`),
			Test:    All(Present, GreaterThan(0)),
		},
	})

	developer := engine.Validate(field.Snapshot{"position": "Developer", "relevantExperience": 0})
	if !developer.Has("relevantExperience") {
		t.Fatalf("expected relevantExperience error for Developer, got %v", developer)
	}

	manager := engine.Validate(field.Snapshot{"position": "Manager", "relevantExperience": 0})
	if manager.Has("relevantExperience") {
		t.Fatalf("did not expect relevantExperience error for Manager, got %v", manager)
	}
}

func TestRuleOrderLastWriterWins(t *testing.T) {
	t.Parallel()

	engine := New([]Rule{
		Required("feedback", "first"),
		Custom("feedback", "second", func(field.Snapshot) (string, bool) { return "", true }),
	})
	got := engine.Validate(field.Snapshot{})
	if got["feedback"] != "second" {
		t.Fatalf("feedback = %q, want second", got["feedback"])
	}
}

func TestKeyModes(t *testing.T) {
	t.Parallel()

	rules := []Rule{
		Required("technology.favoriteLanguage", "Favorite Programming Language is required").
			OnlyWhen(WhenEquals("surveyTopic", "Technology")),
		Required("technology.yearsOfExperience", "Years of Experience is required").
			OnlyWhen(WhenEquals("surveyTopic", "Technology")).
			WithKey("experience"),
	}
	snap := field.Snapshot{
		"surveyTopic": "Technology",
		"technology":  map[string]any{"favoriteLanguage": "", "yearsOfExperience": ""},
	}

	full := New(rules).Validate(snap)
	if diff := cmp.Diff([]string{"experience", "technology.favoriteLanguage"}, full.Keys()); diff != "" {
		t.Fatalf("full-path keys mismatch (-want +got):\n%s", diff)
	}

	short := New(rules, WithShortKeys())
	if diff := cmp.Diff([]string{"experience", "favoriteLanguage"}, short.Validate(snap).Keys()); diff != "" {
		t.Fatalf("short keys mismatch (-want +got):\n%s", diff)
	}
	if got := short.KeyFor("technology.favoriteLanguage"); got != "favoriteLanguage" {
		t.Fatalf("KeyFor = %q", got)
	}
}

func TestPredicates(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		pred  Predicate
		value any
		want  bool
	}{
		{"present string", Present, "x", true},
		{"present empty", Present, "", false},
		{"present nil", Present, nil, false},
		{"present false", Present, false, false},
		{"present group", Present, map[string]any{"Go": false, "CSS": true}, true},
		{"present empty group", Present, map[string]any{"Go": false}, false},
		{"any checked typed map", AnyChecked, map[string]bool{"Go": true}, true},
		{"any checked none", AnyChecked, map[string]any{"Go": false, "CSS": false}, false},
		{"any checked scalar", AnyChecked, "Go", false},
		{"numeric blank", Numeric, "", true},
		{"numeric ok", Numeric, " 42.5 ", true},
		{"numeric bad", Numeric, "42a", false},
		{"numeric exponent", Numeric, "1e3", true},
		{"numeric signed", Numeric, "-2.5", true},
		{"numeric leading dot", Numeric, ".5", true},
		{"numeric inf", Numeric, "inf", false},
		{"numeric infinity", Numeric, "Infinity", false},
		{"numeric nan", Numeric, "nan", false},
		{"numeric hex float", Numeric, "0x1p4", false},
		{"numeric hex int", Numeric, "0x10", false},
		{"numeric underscores", Numeric, "1_000", false},
		{"numeric overflow", Numeric, "1e999", false},
		{"numeric lone dot", Numeric, ".", false},
		{"greater than", GreaterThan(0), "1", true},
		{"greater than zero", GreaterThan(0), "0", false},
		{"greater than int", GreaterThan(0), 3, true},
		{"greater than inf", GreaterThan(0), "+Inf", false},
		{"greater than hex", GreaterThan(0), "0x1p4", false},
		{"min length short", MinLength(10), "too short", false},
		{"min length ok", MinLength(10), "long enough!", true},
		{"min length runes", MinLength(3), "héé", true},
		{"min length counts emoji once", MinLength(10), "😀😀😀😀😀", false},
		{"min length emoji", MinLength(5), "😀😀😀😀😀", true},
		{"email ok", Matches(EmailPattern), "a@b.co", true},
		{"email bad", Matches(EmailPattern), "a@b", false},
		{"url ok", Matches(URLPattern), "https://example.com/me", true},
		{"url bad", Matches(URLPattern), "ftp://example.com", false},
		{"url spaces", Matches(URLPattern), "http://exa mple.com", false},
		{"all", All(Present, GreaterThan(1)), "", false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.pred(tc.value); got != tc.want {
				t.Fatalf("predicate(%v) = %v, want %v", tc.value, got, tc.want)
			}
		})
	}
}

func TestErrorMapErr(t *testing.T) {
	t.Parallel()

	if err := (ErrorMap{}).Err(); err != nil {
		t.Fatalf("expected nil error for empty map, got %v", err)
	}

	err := ErrorMap{"name": "Name is required", "age": "Age is required"}.Err()
	if err == nil {
		t.Fatalf("expected aggregate error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "age: Age is required") || !strings.Contains(msg, "name: Name is required") {
		t.Fatalf("unexpected aggregate message: %s", msg)
	}
	if strings.Index(msg, "age:") > strings.Index(msg, "name:") {
		t.Fatalf("expected keys in sorted order: %s", msg)
	}

	var fieldErr *FieldError
	if !errors.As(err, &fieldErr) {
		t.Fatalf("expected aggregate to expose FieldError")
	}
}

func TestEngineWithKeepsOptions(t *testing.T) {
	t.Parallel()

	base := New([]Rule{Required("a.b", "required")}, WithShortKeys())
	extended := base.With(Number("a.c", "number"))

	got := extended.Validate(field.Snapshot{"a": map[string]any{"c": "x"}})
	want := ErrorMap{"b": "required", "c": "number"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if len(base.Rules()) != 1 {
		t.Fatalf("With mutated the base engine")
	}
}
