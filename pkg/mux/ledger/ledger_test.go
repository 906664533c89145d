package ledger

import (
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func drain[K comparable](l *Ledger[K]) []K {
	var out []K
	for {
		k, ok := l.TakeReady()
		if !ok {
			return out
		}
		out = append(out, k)
	}
}

func TestTakeReady_Empty(t *testing.T) {
	l := New[string]()
	if k, ok := l.TakeReady(); ok {
		t.Fatalf("expected empty ledger, got key %q", k)
	}
	if l.Len() != 0 {
		t.Fatalf("expected Len 0, got %d", l.Len())
	}
}

func TestRecord_Coalesces(t *testing.T) {
	l := New[string]()
	for range 5 {
		l.Record("a")
	}

	if l.Len() != 1 {
		t.Fatalf("expected one ready key, got %d", l.Len())
	}
	if got := l.Pending("a"); got != 5 {
		t.Fatalf("expected 5 pending, got %d", got)
	}

	got := drain(l)
	if len(got) != 5 {
		t.Fatalf("expected 5 takes, got %d: %v", len(got), got)
	}
	if l.Pending("a") != 0 || l.Len() != 0 {
		t.Fatalf("expected ledger to be empty, pending=%d len=%d", l.Pending("a"), l.Len())
	}
}

func TestTakeReady_WeightedRoundRobin(t *testing.T) {
	l := New[string]()
	l.Record("A")
	l.Record("A")
	l.Record("B")

	got := drain(l)
	expected := []string{"A", "B", "A"}
	if len(got) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("expected %v, got %v", expected, got)
		}
	}
}

func TestTakeReady_NoStarvation(t *testing.T) {
	l := New[int]()
	for range 100 {
		l.Record(1)
	}
	l.Record(2)
	l.Record(3)

	// Both late keys must be served within the first lap.
	first := drain(l)[:3]
	seen := map[int]bool{}
	for _, k := range first {
		seen[k] = true
	}
	if !seen[2] || !seen[3] {
		t.Fatalf("expected keys 2 and 3 in the first lap, got %v", first)
	}
}

func TestRecord_AfterServeGoesToTail(t *testing.T) {
	l := New[string]()
	l.Record("a")
	l.Record("b")

	if k, _ := l.TakeReady(); k != "a" {
		t.Fatalf("expected a, got %q", k)
	}
	// a became ready again after b.
	l.Record("a")
	got := drain(l)
	if len(got) != 2 || got[0] != "b" || got[1] != "a" {
		t.Fatalf("expected [b a], got %v", got)
	}
}
