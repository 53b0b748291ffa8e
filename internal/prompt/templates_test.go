package prompt

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRenderNumbersCandidatesFromZero(t *testing.T) {
	r := NewRegistry()
	out := r.Render("v1", []string{"cat", "dog", "bird", "fish"})

	for _, want := range []string{"0: cat", "1: dog", "2: bird", "3: fish"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered prompt missing %q:\n%s", want, out)
		}
	}
	// Max valid index, not the count.
	if !strings.Contains(out, "(0-3)") {
		t.Errorf("rendered prompt should state the maximum index 3:\n%s", out)
	}
}

func TestRenderUnknownVersionFallsBack(t *testing.T) {
	r := NewRegistry()
	got := r.Render("v99", []string{"cat", "dog"})
	want := r.Render(DefaultVersion, []string{"cat", "dog"})

	if got != want {
		t.Errorf("unknown version should render the default template:\n%s", got)
	}
}

func TestRenderV3EmbedsJSONContract(t *testing.T) {
	r := NewRegistry()
	out := r.Render("v3", []string{"cat", "dog", "bird"})

	if !strings.Contains(out, `"index": <number between 0 and 2>`) {
		t.Errorf("v3 prompt missing index contract:\n%s", out)
	}
}

func TestVersions(t *testing.T) {
	r := NewRegistry()
	if diff := cmp.Diff([]string{"v1", "v2", "v3"}, r.Versions()); diff != "" {
		t.Errorf("versions mismatch (-want +got):\n%s", diff)
	}
}

func TestAddRejectsExistingVersion(t *testing.T) {
	r := NewRegistry()
	if r.Add("v1", "nope", "dup") {
		t.Error("Add should refuse to overwrite v1")
	}
	if !r.Add("v4", "Guess from:\n%[1]s\nAnswer 0-%[2]d.", "experimental") {
		t.Error("Add should accept a new version")
	}
	out := r.Render("v4", []string{"cat", "dog"})
	if !strings.Contains(out, "0: cat") || !strings.Contains(out, "0-1") {
		t.Errorf("runtime template did not render: %s", out)
	}
}
