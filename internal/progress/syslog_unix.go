//go:build !windows && !plan9

package progress

import (
	"fmt"
	"log/syslog"
	"time"
)

// SyslogSink duplicates phase-boundary summaries to syslog under the
// identity "disk-warmer", facility LOG_USER, per spec.md §6's syslog
// sink description and original_source/disk-warmer/main.c's
// openlog("disk-warmer", ...)/syslog(...) calls.
type SyslogSink struct {
	writer *syslog.Writer
}

func NewSyslogSink() (*SyslogSink, error) {
	w, err := syslog.New(syslog.LOG_USER|syslog.LOG_INFO, "disk-warmer")
	if err != nil {
		return nil, fmt.Errorf("progress: syslog: %w", err)
	}
	return &SyslogSink{writer: w}, nil
}

func (s *SyslogSink) Tick(phase string, current, total int64) {}

func (s *SyslogSink) PhaseDone(phase string, elapsed time.Duration, reads int64) {
	s.writer.Info(fmt.Sprintf("%s complete: %d reads in %s", phase, reads, elapsed.Round(time.Millisecond)))
}

func (s *SyslogSink) Close() error {
	return s.writer.Close()
}
