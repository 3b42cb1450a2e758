// Package progress reports warming progress and phase timing. It mirrors
// original_source/disk-warmer/main.c's print_progress/print_timing pair:
// a rate-limited stderr line plus an optional syslog duplicate emitted at
// phase boundaries, threaded through the engine as a small interface the
// way the teacher threads log/slog as an ambient collaborator rather than
// a concrete writer everywhere.
package progress

import (
	"fmt"
	"log/slog"
	"os"
	"time"
)

// Sink receives progress ticks and phase-boundary events from the
// warming engine. Tick is called often (potentially once per batch); a
// Sink must throttle its own output.
type Sink interface {
	Tick(phase string, current, total int64)
	PhaseDone(phase string, elapsed time.Duration, reads int64)
}

// NopSink discards everything; used by tests and --silent.
type NopSink struct{}

func (NopSink) Tick(string, int64, int64)                 {}
func (NopSink) PhaseDone(string, time.Duration, int64) {}

// StderrSink writes a carriage-return-overwritten progress line to
// standard error, throttled to at most once per wall-second plus a
// forced tick when current reaches total (spec.md §4.5/§6).
type StderrSink struct {
	out      *os.File
	interval time.Duration
	last     time.Time
	started  bool
}

func NewStderrSink() *StderrSink {
	return &StderrSink{out: os.Stderr, interval: time.Second}
}

func (s *StderrSink) Tick(phase string, current, total int64) {
	now := time.Now()
	final := current >= total
	if s.started && !final && now.Sub(s.last) < s.interval {
		return
	}
	s.started = true
	s.last = now

	pct := 100.0
	if total > 0 {
		pct = 100 * float64(current) / float64(total)
	}
	fmt.Fprintf(s.out, "\r\033[2K%s: %d / %d (%.2f%%)", phase, current, total, pct)
	if final {
		fmt.Fprintln(s.out)
	}
}

func (s *StderrSink) PhaseDone(phase string, elapsed time.Duration, reads int64) {
	fmt.Fprintf(s.out, "\r\033[2K%s: done, %d reads in %s\n", phase, reads, elapsed.Round(time.Millisecond))
}

// SlogSink duplicates phase-boundary summaries (not per-tick noise) to a
// structured logger, grounded on the teacher's pervasive use of
// log/slog rather than fmt.Printf for anything beyond the live progress
// line.
type SlogSink struct {
	Logger *slog.Logger
}

func (s SlogSink) Tick(phase string, current, total int64) {}

func (s SlogSink) PhaseDone(phase string, elapsed time.Duration, reads int64) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("phaseComplete", "phase", phase, "reads", reads, "elapsed", elapsed.String())
}

// MultiSink fans out to every sink in order; used to combine the stderr
// line with syslog duplication when --syslog is set.
type MultiSink []Sink

func (m MultiSink) Tick(phase string, current, total int64) {
	for _, s := range m {
		s.Tick(phase, current, total)
	}
}

func (m MultiSink) PhaseDone(phase string, elapsed time.Duration, reads int64) {
	for _, s := range m {
		s.PhaseDone(phase, elapsed, reads)
	}
}
