package download

import "testing"

func TestStatusHelpers(t *testing.T) {
	cases := []struct {
		status   Status
		terminal bool
		active   bool
	}{
		{StatusQueued, false, true},
		{StatusInProgress, false, true},
		{StatusPaused, false, false},
		{StatusFailed, false, false},
		{StatusCompleted, true, false},
		{StatusCancelled, true, false},
	}
	for _, tc := range cases {
		if got := tc.status.Terminal(); got != tc.terminal {
			t.Errorf("%s.Terminal() = %v, want %v", tc.status, got, tc.terminal)
		}
		if got := tc.status.Active(); got != tc.active {
			t.Errorf("%s.Active() = %v, want %v", tc.status, got, tc.active)
		}
	}
}

func TestDedupeUnits(t *testing.T) {
	got := dedupeUnits([]string{" c1", "c2", "c1", "", "  ", "c3", "c2"})
	want := []string{"c1", "c2", "c3"}
	if !equalStrings(got, want) {
		t.Fatalf("dedupeUnits = %v, want %v", got, want)
	}
	if got := dedupeUnits(nil); len(got) != 0 {
		t.Fatalf("dedupeUnits(nil) = %v", got)
	}
}

func TestRequestKeyIgnoresUnitOrder(t *testing.T) {
	a := requestKey("g1", []string{"c1", "c2", "c3"})
	b := requestKey("g1", []string{"c3", "c1", "c2"})
	if a != b {
		t.Fatalf("permuted unit sets produced different keys: %q vs %q", a, b)
	}
	if requestKey("g1", []string{"c1"}) == requestKey("g2", []string{"c1"}) {
		t.Fatalf("different groups share a key")
	}
	if requestKey("g1", []string{"c1"}) == requestKey("g1", []string{"c1", "c2"}) {
		t.Fatalf("different unit sets share a key")
	}
}
