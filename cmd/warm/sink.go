package main

import (
	"log/slog"

	"github.com/pastelsky/ebs-folder-warmer/internal/config"
	"github.com/pastelsky/ebs-folder-warmer/internal/progress"
)

// buildSink assembles the progress.Sink the run uses: silent runs get a
// no-op, otherwise a throttled stderr line, optionally fanned out to
// syslog when --syslog is set (spec.md §6).
func buildSink(cfg *config.Config) (progress.Sink, func(), error) {
	if cfg.Silent {
		return progress.NopSink{}, func() {}, nil
	}

	sinks := progress.MultiSink{progress.NewStderrSink()}
	cleanup := func() {}

	if cfg.Syslog {
		sl, err := progress.NewSyslogSink()
		if err != nil {
			slog.Warn("syslogUnavailable", "err", err)
		} else {
			sinks = append(sinks, sl)
			cleanup = func() { sl.Close() }
		}
	}
	return sinks, cleanup, nil
}
