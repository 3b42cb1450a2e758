package priority

import "testing"

func TestMappingZeroIsNoop(t *testing.T) {
	if _, _, _, ok := Mapping(0); ok {
		t.Fatal("expected level 0 to report ok=false")
	}
}

func TestMappingBestEffortBelowFour(t *testing.T) {
	nice, class, data, ok := Mapping(1)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if nice != 11 {
		t.Fatalf("got nice=%d, want 11", nice)
	}
	if class != ioprioClassBestEffort {
		t.Fatalf("got class=%d, want best-effort", class)
	}
	if data != 4 {
		t.Fatalf("got data=%d, want 4", data)
	}
}

func TestMappingIdleAtFourAndAbove(t *testing.T) {
	nice, class, data, ok := Mapping(4)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if nice != 14 {
		t.Fatalf("got nice=%d, want 14", nice)
	}
	if class != ioprioClassIdle {
		t.Fatalf("got class=%d, want idle", class)
	}
	if data != 7 {
		t.Fatalf("got data=%d, want 7", data)
	}
}

func TestMappingDataCapsAtSeven(t *testing.T) {
	_, _, data, _ := Mapping(7)
	if data != 7 {
		t.Fatalf("got data=%d, want capped at 7", data)
	}
}

func TestIOPrioPackUnpackRoundTrip(t *testing.T) {
	packed := packIOPrio(3, 5)
	class, data := unpackIOPrio(packed)
	if class != 3 || data != 5 {
		t.Fatalf("got class=%d data=%d, want 3,5", class, data)
	}
}
