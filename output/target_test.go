package output

import (
	"errors"
	"testing"

	"github.com/schmidtdse/joshsim/internal/errs"
)

func TestResolveSubstitutesReplicateStepUserEditorAndTags(t *testing.T) {
	target := Target{Path: "./out/{user}/{editor}/run-{replicate}-{step}-{scenario}.csv"}
	resolved, err := target.Resolve(TemplateVars{
		Replicate: 2,
		Step:      5,
		HasStep:   true,
		User:      "alice",
		Editor:    "vim",
		Tags:      map[string]string{"scenario": "drought"},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := "./out/alice/vim/run-2-5-drought.csv"
	if resolved != want {
		t.Fatalf("got %q, want %q", resolved, want)
	}
}

func TestResolveFailsOnUnresolvedPlaceholder(t *testing.T) {
	target := Target{Path: "./out/run-{replicate}-{unknown}.csv"}
	_, err := target.Resolve(TemplateVars{Replicate: 0})
	if err == nil {
		t.Fatal("expected an error for the unresolved {unknown} placeholder")
	}
	if !errors.Is(err, errs.UnknownTemplateVar) {
		t.Fatalf("expected errs.UnknownTemplateVar, got %v", err)
	}
}

func TestResolveOmitsStepWhenNotGiven(t *testing.T) {
	target := Target{Path: "./out/manifest-{replicate}.json"}
	resolved, err := target.Resolve(TemplateVars{Replicate: 1})
	if err != nil {
		t.Fatal(err)
	}
	if resolved != "./out/manifest-1.json" {
		t.Fatalf("got %q", resolved)
	}
}
