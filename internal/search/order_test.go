package search

import "testing"

func TestOrderAscendingWithoutHints(t *testing.T) {
	got := Order(5, 9, nil)
	want := []int64{5, 6, 7, 8, 9}
	assertOrder(t, got, want)
}

func TestOrderHintFirstThenOutward(t *testing.T) {
	got := Order(0, 6, []int64{3})
	// 3 first, then outward with the earlier value first on ties.
	want := []int64{3, 2, 4, 1, 5, 0, 6}
	assertOrder(t, got, want)
}

func TestOrderMultipleHints(t *testing.T) {
	got := Order(0, 5, []int64{4, 1})
	// Both hints lead in given order; the remainder fans out from the
	// first hint.
	want := []int64{4, 1, 3, 5, 2, 0}
	assertOrder(t, got, want)
}

func TestOrderIgnoresOutOfRangeHints(t *testing.T) {
	got := Order(10, 12, []int64{5, 99, 11})
	want := []int64{11, 10, 12}
	assertOrder(t, got, want)
}

func TestOrderDeduplicatesHints(t *testing.T) {
	got := Order(0, 2, []int64{1, 1, 1})
	want := []int64{1, 0, 2}
	assertOrder(t, got, want)
}

func TestOrderHintAtEdge(t *testing.T) {
	got := Order(0, 4, []int64{0})
	want := []int64{0, 1, 2, 3, 4}
	assertOrder(t, got, want)
}

func TestOrderSingleCandidate(t *testing.T) {
	got := Order(7, 7, nil)
	assertOrder(t, got, []int64{7})
}

func TestOrderInvertedRange(t *testing.T) {
	if got := Order(9, 5, nil); got != nil {
		t.Errorf("Order(9, 5) = %v, want nil", got)
	}
}

func TestOrderNeverLeavesRange(t *testing.T) {
	got := Order(100, 200, []int64{150, 175})
	if len(got) != 101 {
		t.Fatalf("len = %d, want 101", len(got))
	}
	seen := make(map[int64]bool, len(got))
	for _, v := range got {
		if v < 100 || v > 200 {
			t.Fatalf("value %d outside [100, 200]", v)
		}
		if seen[v] {
			t.Fatalf("value %d emitted twice", v)
		}
		seen[v] = true
	}
}

func assertOrder(t *testing.T, got, want []int64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}
