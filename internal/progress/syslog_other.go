//go:build windows || plan9

package progress

import (
	"errors"
	"time"
)

// SyslogSink is unavailable on platforms without a syslog daemon.
type SyslogSink struct{}

func NewSyslogSink() (*SyslogSink, error) {
	return nil, errors.New("progress: syslog is unavailable on this platform")
}

func (s *SyslogSink) Tick(phase string, current, total int64)              {}
func (s *SyslogSink) PhaseDone(phase string, elapsed time.Duration, reads int64) {}
func (s *SyslogSink) Close() error                                          { return nil }
