// Command warm pre-populates an EBS volume's backing store (or the page
// cache, in pagecache mode) by issuing reads over a directory subtree's
// physical extents.
//
// The wiring sequence here — config, then device probe, then discovery,
// then sort/merge, then phase 1, then optional phase 2 — follows
// original_source/disk-warmer/main.c's top-level main() almost step for
// step; the page-cache branch follows
// original_source/page-cache-warmer/main.c. The teacher's own main.go is
// a thin, single-purpose demo (one os.Args[1] argument, no flag parsing)
// so the cobra RunE wiring shape is grounded on
// dsmmcken-dh-cli/go_src/internal/cmd/root.go instead.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/pastelsky/ebs-folder-warmer/internal/config"
)

func main() {
	cmd := config.NewCommand(run)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "warm:", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	runID := uuid.New().String()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg),
	})).With("run_id", runID)
	slog.SetDefault(logger)

	switch cfg.Mode {
	case config.ModePageCache:
		return runPageCache(cfg)
	default:
		return runDevice(cfg)
	}
}

func logLevel(cfg *config.Config) slog.Level {
	switch {
	case cfg.Debug:
		return slog.LevelDebug
	case cfg.Silent:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
