package main

import (
	"strings"
	"testing"
)

func TestParseFragment(t *testing.T) {
	tests := []struct {
		name     string
		fragment string
		wantPath string
	}{
		{"with hash", "#p=posts/p1/index.md", "posts/p1/index.md"},
		{"without hash", "p=posts/p1/index.md", "posts/p1/index.md"},
		{"encoded slashes", "p=posts%2Fp1%2Findex.md", "posts/p1/index.md"},
		{"messy path normalized", "p=/posts\\p1\\index.md", "posts/p1/index.md"},
		{"empty", "", ""},
		{"garbage", "%%%not-a-query", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseFragment(tt.fragment).Path(); got != tt.wantPath {
				t.Errorf("Path() = %q, want %q", got, tt.wantPath)
			}
		})
	}
}

func TestFragmentWithPathPreservesOtherKeys(t *testing.T) {
	state := ParseFragment("#p=posts/old/index.md&tab=2&q=hello")
	updated := state.WithPath("posts/new/index.md")

	if updated.Path() != "posts/new/index.md" {
		t.Errorf("Path() = %q", updated.Path())
	}
	encoded := updated.Encode()
	for _, want := range []string{"tab=2", "q=hello"} {
		if !strings.Contains(encoded, want) {
			t.Errorf("Encode() = %q, missing %q", encoded, want)
		}
	}
	// The original state is not mutated.
	if state.Path() != "posts/old/index.md" {
		t.Errorf("original state mutated: %q", state.Encode())
	}
}

func TestFragmentRoundTrip(t *testing.T) {
	state := ParseFragment("").WithPath("posts/p1/index.md")
	reparsed := ParseFragment(state.Encode())

	if reparsed.Path() != "posts/p1/index.md" {
		t.Errorf("round trip lost the path: %q", reparsed.Encode())
	}
}
