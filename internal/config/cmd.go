package config

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Version is stamped at build time via -ldflags, matching the teacher's
// own main.go pattern of a package-level Version string.
var Version = "dev"

// ParseResult carries the resolved Config plus cobra's own decision on
// whether the process should exit immediately (help/version) without
// running the engine.
type ParseResult struct {
	Config     *Config
	ConfigFile string
	ExitNow    bool // true after --help or --version
}

// NewCommand builds the cobra command tree for the block-device CLI
// surface spec.md §6 specifies: `warm [OPTIONS] <dir1> [dir2 ...] <device>`.
// run is invoked with the resolved Config once parsing and validation
// succeed.
func NewCommand(run func(*Config) error) *cobra.Command {
	cfg := &Config{Mode: ModeDevice}
	var configFile string
	var mode string

	explicit := map[string]bool{}

	cmd := &cobra.Command{
		Use:     "warm [OPTIONS] <dir1> [dir2 ...] <device>",
		Short:   "Warm cold EBS volume extents or page-cache files ahead of first read",
		Version: Version,
		Args:    cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.Flags().Visit(func(f *pflag.Flag) { explicit[f.Name] = true })

			switch mode {
			case "", "device":
				cfg.Mode = ModeDevice
				if len(args) < 2 {
					return fmt.Errorf("device mode requires at least one directory and a device path")
				}
				cfg.Roots = args[:len(args)-1]
				cfg.Device = args[len(args)-1]
			case "pagecache":
				cfg.Mode = ModePageCache
				cfg.Roots = args
			default:
				return fmt.Errorf("unrecognized --mode %q", mode)
			}

			if configFile != "" {
				data, err := os.ReadFile(configFile)
				if err != nil {
					return fmt.Errorf("reading --config file: %w", err)
				}
				fd, err := LoadFileDefaults(data)
				if err != nil {
					return err
				}
				fd.ApplyTo(cfg, explicit)
			}

			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cfg)
		},
	}
	cmd.SetVersionTemplate("warm version {{.Version}}\n")

	flags := cmd.Flags()
	flags.Int64VarP(&cfg.ReadSizeKB, "read-size-kb", "r", 128, "per-read length in KB; auto-aligned under direct I/O")
	flags.Int64VarP(&cfg.StrideKB, "stride-kb", "s", 1024, "stride between reads within an extent, in KB")
	flags.IntVarP(&cfg.QueueDepth, "queue-depth", "q", 32, "in-flight requests per phase")
	flags.BoolVarP(&cfg.FullDisk, "full-disk", "f", false, "enable phase-2 device sweep")
	flags.BoolVarP(&cfg.MergeExtents, "merge-extents", "m", false, "enable merge pass with a capped size")
	flags.Int64Var(&cfg.MergeCapMB, "merge-cap-mb", 16, "maximum merged extent size in MB")
	flags.BoolVarP(&cfg.Syslog, "syslog", "l", false, "duplicate summary records to syslog")
	flags.BoolVar(&cfg.Silent, "silent", false, "suppress progress output")
	flags.BoolVarP(&cfg.Debug, "debug", "d", false, "verbose diagnostics")
	flags.IntVarP(&cfg.MaxDepth, "max-depth", "D", -1, "discovery depth cap; -1 = unlimited")
	flags.IntVarP(&cfg.Threads, "threads", "T", 4, "discovery concurrency, 1..16")
	flags.IntVarP(&cfg.Phase2Throttle, "phase2-throttle", "P", 0, "nice+ioprio throttle level for phase 2, 0..7")
	flags.IntVarP(&cfg.Phase1Throttle, "phase1-throttle", "1", 0, "nice+ioprio throttle level for phase 1, 0..7")
	flags.StringSliceVar(&cfg.Excludes, "exclude", nil, "glob pattern to exclude from discovery (repeatable)")
	flags.StringVar(&mode, "mode", "device", "warming mode: device or pagecache")
	flags.StringVar(&configFile, "config", "", "optional TOML file overlaying flag defaults")

	return cmd
}
