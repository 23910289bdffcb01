package guardrails

import (
	"errors"
	"testing"
)

func TestCheckInput(t *testing.T) {
	g := New("Forbidden", " ")
	if err := g.CheckInput("hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := g.CheckInput("  \n"); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected empty input error got %v", err)
	}
	if err := g.CheckInput("this is FORBIDDEN text"); !errors.Is(err, ErrBanned) {
		t.Fatalf("expected banned error got %v", err)
	}
}
