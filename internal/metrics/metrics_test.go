package metrics

import "testing"

func TestRecord(t *testing.T) {
	u := New()
	u.Record("b", 10, false)
	u.Record("a", 0, true)
	u.Record("b", 5, true)

	got := u.Snapshot()
	if len(got) != 2 {
		t.Fatalf("expected 2 providers got %d", len(got))
	}
	if got[0].Label != "a" || got[0].Failures != 1 || got[0].Turns != 1 {
		t.Fatalf("unexpected stats %+v", got[0])
	}
	if got[1].Turns != 2 || got[1].Tokens != 15 || got[1].Failures != 1 {
		t.Fatalf("unexpected stats %+v", got[1])
	}
}
