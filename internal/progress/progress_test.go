package progress

import (
	"testing"
	"time"
)

type recordingSink struct {
	ticks []int64
	done  []string
}

func (r *recordingSink) Tick(phase string, current, total int64) {
	r.ticks = append(r.ticks, current)
}

func (r *recordingSink) PhaseDone(phase string, elapsed time.Duration, reads int64) {
	r.done = append(r.done, phase)
}

func TestMultiSinkFansOut(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}
	m := MultiSink{a, b}

	m.Tick("phase1", 5, 10)
	m.PhaseDone("phase1", time.Millisecond, 10)

	for _, s := range []*recordingSink{a, b} {
		if len(s.ticks) != 1 || s.ticks[0] != 5 {
			t.Fatalf("got ticks %v, want [5]", s.ticks)
		}
		if len(s.done) != 1 || s.done[0] != "phase1" {
			t.Fatalf("got done %v, want [phase1]", s.done)
		}
	}
}

func TestNopSinkDiscardsEverything(t *testing.T) {
	var s NopSink
	s.Tick("phase1", 1, 2)
	s.PhaseDone("phase1", time.Second, 1)
}

func TestStderrSinkForcesFinalTick(t *testing.T) {
	s := NewStderrSink()
	s.Tick("phase1", 0, 10)
	s.Tick("phase1", 10, 10)
}
