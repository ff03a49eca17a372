package id

import (
	"strings"
	"testing"
)

func TestNewSlugShapeAndAlphabet(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		slug, err := NewSlug()
		if err != nil {
			t.Fatalf("NewSlug: %v", err)
		}
		if len(slug) != slugLength {
			t.Fatalf("slug %q length = %d, want %d", slug, len(slug), slugLength)
		}
		for _, r := range slug {
			if !strings.ContainsRune(slugAlphabet, r) {
				t.Fatalf("slug %q contains %q outside the alphabet", slug, r)
			}
		}
		if seen[slug] {
			t.Fatalf("slug %q generated twice in 100 draws", slug)
		}
		seen[slug] = true
	}
}

func TestIsUUIDSeparatesIDsFromSlugs(t *testing.T) {
	if !IsUUID(New()) {
		t.Fatalf("generated id not recognized as uuid")
	}

	slug, err := NewSlug()
	if err != nil {
		t.Fatalf("NewSlug: %v", err)
	}
	if IsUUID(slug) {
		t.Fatalf("slug %q misread as uuid", slug)
	}
}

func TestMessageIDsAreDistinct(t *testing.T) {
	a := NewMessageID()
	b := NewMessageID()
	if a == b {
		t.Fatalf("two message ids identical: %s", a)
	}
	if len(a) != 27 {
		t.Fatalf("message id %q length = %d, want ksuid's 27", a, len(a))
	}
}
