package field

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStoreSetNestedKeepsSiblings(t *testing.T) {
	t.Parallel()

	store := NewStore(Snapshot{
		"fullName": "",
		"additionalSkills": map[string]bool{
			"JavaScript": true,
			"CSS":        false,
		},
	})

	snap, err := store.Set("additionalSkills.CSS", true)
	if err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	want := Snapshot{
		"fullName": "",
		"additionalSkills": map[string]any{
			"JavaScript": true,
			"CSS":        true,
		},
	}
	if diff := cmp.Diff(want, snap); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestStoreSetFlatReplaces(t *testing.T) {
	t.Parallel()

	store := NewStore(Snapshot{"name": "", "age": ""})
	if _, err := store.Set("name", "Ana"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	got, ok := store.Get("name")
	if !ok || got != "Ana" {
		t.Fatalf("Get(name) = %v, %v; want Ana, true", got, ok)
	}
	if _, ok := store.Get("age"); !ok {
		t.Fatalf("expected untouched key to remain present")
	}
}

func TestStoreSetIsCopyOnWrite(t *testing.T) {
	t.Parallel()

	store := NewStore(Snapshot{
		"technology": map[string]any{"favoriteLanguage": "", "yearsOfExperience": ""},
	})
	before := store.Snapshot()

	if _, err := store.Set("technology.favoriteLanguage", "Go"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	if got := before.String("technology.favoriteLanguage"); got != "" {
		t.Fatalf("earlier snapshot was mutated: got %q", got)
	}
	if got := store.Snapshot().String("technology.favoriteLanguage"); got != "Go" {
		t.Fatalf("current snapshot = %q, want Go", got)
	}
}

func TestStoreSetCreatesMissingSections(t *testing.T) {
	t.Parallel()

	store := NewStore(Snapshot{"surveyTopic": ""})
	snap, err := store.Set("health.dietPreference", "Vegan")
	if err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if got := snap.String("health.dietPreference"); got != "Vegan" {
		t.Fatalf("health.dietPreference = %q, want Vegan", got)
	}
}

func TestStoreCopiesInitialAndWrittenValues(t *testing.T) {
	t.Parallel()

	initial := Snapshot{"skills": map[string]any{"Go": false}}
	store := NewStore(initial)
	initial["skills"].(map[string]any)["Go"] = true

	if got, _ := store.Get("skills.Go"); got != false {
		t.Fatalf("store aliased the initial snapshot")
	}

	section := map[string]any{"a": "1"}
	if _, err := store.Set("section", section); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	section["a"] = "2"
	if got := store.Snapshot().String("section.a"); got != "1" {
		t.Fatalf("store aliased a written map: got %q", got)
	}
}

func TestStoreInvalidPath(t *testing.T) {
	t.Parallel()

	store := NewStore(nil)
	for _, path := range []string{"", "  ", "a..b", ".a"} {
		if _, err := store.Set(path, "x"); !errors.Is(err, ErrInvalidPath) {
			t.Fatalf("Set(%q) error = %v, want ErrInvalidPath", path, err)
		}
	}
}

func TestStoreStrictMode(t *testing.T) {
	t.Parallel()

	store := NewStore(Snapshot{
		"email":            "",
		"additionalSkills": map[string]any{"Go": false},
	}, WithStrict())

	if _, err := store.Set("email", "a@b.com"); err != nil {
		t.Fatalf("declared write failed: %v", err)
	}
	if _, err := store.Set("additionalSkills.Go", true); err != nil {
		t.Fatalf("declared nested write failed: %v", err)
	}
	if _, err := store.Set("additionalSkills", map[string]any{"Go": true}); err != nil {
		t.Fatalf("declared section write failed: %v", err)
	}
	if _, err := store.Set("nickname", "x"); !errors.Is(err, ErrSchemaViolation) {
		t.Fatalf("undeclared write error = %v, want ErrSchemaViolation", err)
	}

	store.Declare("additionalQuestion0")
	if _, err := store.Set("additionalQuestion0", "yes"); err != nil {
		t.Fatalf("declared dynamic write failed: %v", err)
	}
}

func TestStoreStrictModeKeepsSections(t *testing.T) {
	t.Parallel()

	initial := Snapshot{
		"surveyTopic": "",
		"technology": map[string]any{
			"favoriteLanguage":  "",
			"yearsOfExperience": "",
		},
	}

	strict := NewStore(initial, WithStrict())
	if _, err := strict.Set("technology", "x"); !errors.Is(err, ErrSchemaViolation) {
		t.Fatalf("scalar over section error = %v, want ErrSchemaViolation", err)
	}
	if _, err := strict.Set("technology", map[string]any{"favoriteColor": "red"}); !errors.Is(err, ErrSchemaViolation) {
		t.Fatalf("undeclared key in section error = %v, want ErrSchemaViolation", err)
	}
	if diff := cmp.Diff(initial, strict.Snapshot()); diff != "" {
		t.Fatalf("rejected writes changed the snapshot (-want +got):\n%s", diff)
	}
	if _, err := strict.Set("technology", map[string]any{"favoriteLanguage": "Go", "yearsOfExperience": "3"}); err != nil {
		t.Fatalf("declared section write failed: %v", err)
	}

	permissive := NewStore(initial)
	snap, err := permissive.Set("technology", "x")
	if err != nil {
		t.Fatalf("permissive scalar write failed: %v", err)
	}
	if got, _ := snap.Lookup("technology"); got != "x" {
		t.Fatalf("permissive write = %v, want section replaced", got)
	}
}

func TestSnapshotLeavesAndLookup(t *testing.T) {
	t.Parallel()

	snap := Snapshot{
		"name":  "Ana",
		"empty": map[string]any{},
		"technology": map[string]any{
			"favoriteLanguage": "Go",
		},
	}

	want := []string{"empty", "name", "technology.favoriteLanguage"}
	if diff := cmp.Diff(want, snap.Leaves()); diff != "" {
		t.Fatalf("leaves mismatch (-want +got):\n%s", diff)
	}

	if _, ok := snap.Lookup("technology.missing"); ok {
		t.Fatalf("expected missing nested lookup to fail")
	}
	if _, ok := snap.Lookup("name.inner"); ok {
		t.Fatalf("expected lookup through a scalar to fail")
	}
	if got := snap.String("technology.favoriteLanguage"); got != "Go" {
		t.Fatalf("String = %q, want Go", got)
	}
}

func TestDefinitionVisible(t *testing.T) {
	t.Parallel()

	defs := []Definition{
		{Path: "name", Label: "Name"},
		{Path: "guestName", Label: "Guest Name", VisibleWhen: `attendingWithGuest == "Yes"`},
		{Path: "broken", VisibleWhen: `a &`},
	}

	visible := VisibleDefinitions(defs, Snapshot{"attendingWithGuest": "No"})
	if len(visible) != 1 || visible[0].Path != "name" {
		t.Fatalf("unexpected visible definitions: %+v", visible)
	}

	visible = VisibleDefinitions(defs, Snapshot{"attendingWithGuest": "Yes"})
	if len(visible) != 2 || visible[1].Path != "guestName" {
		t.Fatalf("expected guestName to be visible: %+v", visible)
	}

	if got := (Definition{Path: "x"}).DisplayLabel(); got != "x" {
		t.Fatalf("DisplayLabel fallback = %q", got)
	}
}
