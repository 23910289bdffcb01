package logging

import "testing"

func TestNew(t *testing.T) {
	log, err := New("debug", true)
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	if !log.Core().Enabled(-1) {
		t.Fatalf("expected debug level enabled")
	}
	if _, err := New("loud", false); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
