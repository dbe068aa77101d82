package testfixtures

import "testing"

func TestRefGeneratorSequence(t *testing.T) {
	gen := NewRefGenerator("")
	if got := gen.Next(); got != "booking-1" {
		t.Fatalf("expected booking-1, got %q", got)
	}
	next := gen.NextFunc()
	if got := next(); got != "booking-2" {
		t.Fatalf("expected booking-2, got %q", got)
	}
}

func TestRefGeneratorNilFunc(t *testing.T) {
	var gen *RefGenerator
	if gen.NextFunc() != nil {
		t.Fatalf("expected nil func so services fall back to random references")
	}
}
