// Package config resolves the warming tool's recognized options
// (spec.md §3, §6) into an immutable Config record, built from a cobra
// command tree with pflag-backed flags and an optional TOML defaults
// file overlay.
//
// The teacher parses no CLI flags of its own, so the command-tree shape
// here is grounded on dsmmcken-dh-cli/go_src/internal/cmd/root.go
// instead: a constructor returning *cobra.Command, flags bound via pflag
// to the fields of a Config, SilenceUsage/SilenceErrors set so cobra
// defers to our own error formatting. The TOML overlay mirrors the same
// repo's src/internal/config/config.go, which unmarshals a config.toml
// into a plain struct with pelletier/go-toml/v2.
package config

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
)

// Mode selects what the engine warms: the block device backing store, or
// the page cache directly (SPEC_FULL.md "Page-cache variant").
type Mode string

const (
	ModeDevice    Mode = "device"
	ModePageCache Mode = "pagecache"
)

// Config is the immutable record spec.md §3 describes, passed by
// reference from cmd/warm into every downstream component.
type Config struct {
	Roots  []string
	Device string // unused in ModePageCache
	Mode   Mode

	ReadSizeKB int64
	StrideKB   int64
	QueueDepth int

	FullDisk      bool
	MergeExtents  bool
	MergeCapMB    int64

	Syslog  bool
	Silent  bool
	Debug   bool

	MaxDepth int
	Threads  int
	Excludes []string

	Phase1Throttle int
	Phase2Throttle int
}

// FileDefaults is the subset of Config fields a TOML defaults file may
// override before flags are applied, following the precedence
// flags > file > built-in default used by dsmmcken-dh-cli's own config
// resolution chain.
type FileDefaults struct {
	ReadSizeKB     *int64  `toml:"read_size_kb,omitempty"`
	StrideKB       *int64  `toml:"stride_kb,omitempty"`
	QueueDepth     *int    `toml:"queue_depth,omitempty"`
	FullDisk       *bool   `toml:"full_disk,omitempty"`
	MergeExtents   *bool   `toml:"merge_extents,omitempty"`
	MergeCapMB     *int64  `toml:"merge_cap_mb,omitempty"`
	Syslog         *bool   `toml:"syslog,omitempty"`
	MaxDepth       *int    `toml:"max_depth,omitempty"`
	Threads        *int    `toml:"threads,omitempty"`
	Excludes       []string `toml:"exclude,omitempty"`
	Phase1Throttle *int    `toml:"phase1_throttle,omitempty"`
	Phase2Throttle *int    `toml:"phase2_throttle,omitempty"`
}

// LoadFileDefaults parses a TOML defaults file. A missing file is not an
// error at this layer; callers decide whether --config was explicit.
func LoadFileDefaults(data []byte) (*FileDefaults, error) {
	var fd FileDefaults
	if err := toml.Unmarshal(data, &fd); err != nil {
		return nil, fmt.Errorf("config: parsing config file: %w", err)
	}
	return &fd, nil
}

// ApplyTo overlays non-nil fields from fd onto cfg, for values the user
// did not pass explicitly on the command line.
func (fd *FileDefaults) ApplyTo(cfg *Config, explicit map[string]bool) {
	if fd == nil {
		return
	}
	set := func(name string) bool { return !explicit[name] }

	if fd.ReadSizeKB != nil && set("read-size-kb") {
		cfg.ReadSizeKB = *fd.ReadSizeKB
	}
	if fd.StrideKB != nil && set("stride-kb") {
		cfg.StrideKB = *fd.StrideKB
	}
	if fd.QueueDepth != nil && set("queue-depth") {
		cfg.QueueDepth = *fd.QueueDepth
	}
	if fd.FullDisk != nil && set("full-disk") {
		cfg.FullDisk = *fd.FullDisk
	}
	if fd.MergeExtents != nil && set("merge-extents") {
		cfg.MergeExtents = *fd.MergeExtents
	}
	if fd.MergeCapMB != nil && set("merge-cap-mb") {
		cfg.MergeCapMB = *fd.MergeCapMB
	}
	if fd.Syslog != nil && set("syslog") {
		cfg.Syslog = *fd.Syslog
	}
	if fd.MaxDepth != nil && set("max-depth") {
		cfg.MaxDepth = *fd.MaxDepth
	}
	if fd.Threads != nil && set("threads") {
		cfg.Threads = *fd.Threads
	}
	if len(fd.Excludes) > 0 && set("exclude") {
		cfg.Excludes = fd.Excludes
	}
	if fd.Phase1Throttle != nil && set("phase1-throttle") {
		cfg.Phase1Throttle = *fd.Phase1Throttle
	}
	if fd.Phase2Throttle != nil && set("phase2-throttle") {
		cfg.Phase2Throttle = *fd.Phase2Throttle
	}
}

// Validate rejects argument combinations that must fail fast (spec.md
// §7, "argument parse failure" is fatal, exit 1).
func (c *Config) Validate() error {
	if len(c.Roots) == 0 {
		return fmt.Errorf("config: at least one directory argument is required")
	}
	if c.Mode == ModeDevice && c.Device == "" {
		return fmt.Errorf("config: a device path is required in device mode")
	}
	if c.ReadSizeKB <= 0 {
		return fmt.Errorf("config: --read-size-kb must be positive")
	}
	if c.StrideKB <= 0 {
		return fmt.Errorf("config: --stride-kb must be positive")
	}
	if c.QueueDepth <= 0 {
		return fmt.Errorf("config: --queue-depth must be positive")
	}
	if c.Threads < 1 || c.Threads > 16 {
		return fmt.Errorf("config: --threads must be in [1, 16], got %d", c.Threads)
	}
	if c.Phase1Throttle < 0 || c.Phase1Throttle > 7 {
		return fmt.Errorf("config: --phase1-throttle must be in [0, 7]")
	}
	if c.Phase2Throttle < 0 || c.Phase2Throttle > 7 {
		return fmt.Errorf("config: --phase2-throttle must be in [0, 7]")
	}
	return nil
}

// ReadSizeBytes, StrideBytes and MergeCapBytes convert the KB/MB flag
// units into the byte quantities every other package operates in.
func (c *Config) ReadSizeBytes() int64 { return c.ReadSizeKB * 1024 }
func (c *Config) StrideBytes() int64   { return c.StrideKB * 1024 }
func (c *Config) MergeCapBytes() int64 { return c.MergeCapMB * 1024 * 1024 }
