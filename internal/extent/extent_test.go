package extent

import "testing"

func TestAppendDropsZeroLength(t *testing.T) {
	var l List
	l.Append(0, 0)
	l.Append(100, -5)
	l.Append(200, 10)
	if l.Len() != 1 {
		t.Fatalf("got %d items, want 1", l.Len())
	}
	if got := l.Items()[0]; got != (Extent{200, 10}) {
		t.Fatalf("got %+v", got)
	}
}

func TestSortCorrectness(t *testing.T) {
	var l List
	l.Append(1048576, 524288)
	l.Append(524288, 524288)
	l.Append(0, 4096)
	l.Sort()

	items := l.Items()
	for i := 1; i < len(items); i++ {
		if items[i-1].PhysicalOffset > items[i].PhysicalOffset {
			t.Fatalf("not sorted: %+v", items)
		}
	}
}

// E2 from spec.md §8.
func TestMergeAdjacentE2(t *testing.T) {
	var l List
	l.Append(1048576, 524288)
	l.Append(524288, 524288)
	l.Sort()
	n := l.MergeAdjacent(16 * 1024 * 1024)
	if n != 1 {
		t.Fatalf("got %d extents, want 1", n)
	}
	want := Extent{PhysicalOffset: 524288, Length: 1048576}
	if got := l.Items()[0]; got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

// E3 from spec.md §8.
func TestMergeAdjacentRespectsCapE3(t *testing.T) {
	var l List
	l.Append(0, 512*1024)
	l.Append(524288, 512*1024)
	l.Sort()
	n := l.MergeAdjacent(512 * 1024)
	if n != 2 {
		t.Fatalf("got %d extents, want 2 (cap should prevent merge)", n)
	}
}

func TestMergeAdjacentNoCap(t *testing.T) {
	var l List
	l.Append(0, 100)
	l.Append(100, 200)
	l.Append(300, 50)
	l.Append(1000, 10) // not adjacent
	l.Sort()
	n := l.MergeAdjacent(0)
	if n != 2 {
		t.Fatalf("got %d extents, want 2", n)
	}
	items := l.Items()
	if items[0] != (Extent{0, 350}) {
		t.Fatalf("got %+v", items[0])
	}
	if items[1] != (Extent{1000, 10}) {
		t.Fatalf("got %+v", items[1])
	}
}

func TestMergeAdjacentPreservesCoveredBytes(t *testing.T) {
	var l List
	l.Append(0, 100)
	l.Append(100, 200)
	l.Append(500, 50)
	l.Sort()

	var before int64
	for _, e := range l.Items() {
		before += e.Length
	}
	l.MergeAdjacent(0)
	var after int64
	for _, e := range l.Items() {
		after += e.Length
	}
	if before != after {
		t.Fatalf("covered bytes changed: %d -> %d", before, after)
	}
}

func TestFingerprintStableAndOrderSensitive(t *testing.T) {
	var a, b List
	a.Append(0, 100)
	a.Append(200, 50)
	b.Append(0, 100)
	b.Append(200, 50)
	if a.Fingerprint() != b.Fingerprint() {
		t.Fatal("identical lists should fingerprint identically")
	}

	var c List
	c.Append(200, 50)
	c.Append(0, 100)
	if a.Fingerprint() == c.Fingerprint() {
		t.Fatal("differently-ordered lists should fingerprint differently")
	}
}
