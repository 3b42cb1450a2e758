package main

import (
	"fmt"
	"log/slog"

	"github.com/pastelsky/ebs-folder-warmer/internal/bitmap"
	"github.com/pastelsky/ebs-folder-warmer/internal/config"
	"github.com/pastelsky/ebs-folder-warmer/internal/deviceprobe"
	"github.com/pastelsky/ebs-folder-warmer/internal/discover"
	"github.com/pastelsky/ebs-folder-warmer/internal/engine"
	"github.com/pastelsky/ebs-folder-warmer/internal/ioengine"
	"github.com/pastelsky/ebs-folder-warmer/internal/priority"
)

// runDevice is the block-device variant: discover extents, warm them
// (phase 1), then optionally sweep the remainder of the device
// (phase 2), per spec.md §2's control flow.
func runDevice(cfg *config.Config) error {
	params, err := deviceprobe.Probe(cfg.Device)
	if err != nil {
		return fmt.Errorf("device probe: %w", err)
	}
	defer params.File.Close()

	readSize, stride := params.AlignIOParams(cfg.ReadSizeBytes(), cfg.StrideBytes())

	discoverOpts := discover.Options{
		Roots:      cfg.Roots,
		MaxDepth:   cfg.MaxDepth,
		NumThreads: cfg.Threads,
		Excludes:   cfg.Excludes,
	}
	if err := discoverOpts.Validate(); err != nil {
		return err
	}

	extents := discover.Extents(discoverOpts)
	extents.Sort()
	if cfg.MergeExtents {
		extents.MergeAdjacent(cfg.MergeCapBytes())
	}
	if cfg.Debug {
		slog.Debug("extentListReady", "count", extents.Len(), "fingerprint", extents.Fingerprint())
	}

	bm := bitmap.New(params.SizeBytes, stride)

	sink, cleanupSink, err := buildSink(cfg)
	if err != nil {
		return err
	}
	defer cleanupSink()

	backend, variant, err := ioengine.Open(int(params.File.Fd()), cfg.QueueDepth, int(readSize), int(params.PhysicalSector))
	if err != nil {
		return fmt.Errorf("ioengine backend: %w", err)
	}
	defer backend.Destroy()
	slog.Info("ioengineSelected", "backend", variant)

	if throttle, err := priority.Apply(cfg.Phase1Throttle); err != nil {
		slog.Warn("phase1ThrottleFailed", "err", err)
	} else {
		defer throttle.Restore()
	}

	if err := engine.RunPhase1(engine.Phase1Config{
		Backend:    backend,
		Extents:    extents.Items(),
		Bitmap:     bm,
		ReadSize:   readSize,
		Stride:     stride,
		QueueDepth: cfg.QueueDepth,
		Phase:      "phase1",
		Sink:       sink,
	}); err != nil {
		return fmt.Errorf("phase 1: %w", err)
	}

	if !cfg.FullDisk {
		return nil
	}

	if throttle, err := priority.Apply(cfg.Phase2Throttle); err != nil {
		slog.Warn("phase2ThrottleFailed", "err", err)
	} else {
		defer throttle.Restore()
	}

	if err := engine.RunPhase2(engine.Phase2Config{
		Backend:    backend,
		Bitmap:     bm,
		DiskSize:   params.SizeBytes,
		ReadSize:   readSize,
		Stride:     stride,
		QueueDepth: cfg.QueueDepth,
		Phase:      "phase2",
		Sink:       sink,
	}); err != nil {
		return fmt.Errorf("phase 2: %w", err)
	}
	return nil
}
