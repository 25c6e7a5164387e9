package failure

import (
	"errors"
	"os"
	"strings"
	"testing"
)

func TestWrapKeepsMarkerAndCause(t *testing.T) {
	err := Wrap(ErrNotFound, "discover", "list", "root unreachable", os.ErrNotExist)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound marker, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	if !strings.Contains(err.Error(), "discover: list: root unreachable") {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestWrapDefaultsMarkerAndDetail(t *testing.T) {
	err := Wrap(nil, "", "", "", nil)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
	if err.Error() != "validation error: pipeline failure" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestClassify(t *testing.T) {
	cases := map[string]error{
		"":                 nil,
		"configuration":    Wrap(ErrConfiguration, "load", "", "", nil),
		"empty_collection": Wrap(ErrEmptyCollection, "match", "", "", nil),
		"unknown":          errors.New("boom"),
	}
	for want, err := range cases {
		if got := Classify(err); got != want {
			t.Fatalf("Classify(%v) = %q, want %q", err, got, want)
		}
	}
}
