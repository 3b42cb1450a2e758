package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pastelsky/ebs-folder-warmer/internal/config"
	"github.com/pastelsky/ebs-folder-warmer/internal/discover"
)

// runPageCache is the page-cache variant (SPEC_FULL.md "Page-cache
// variant"): no device probe or FIEMAP, just a bounded-concurrency
// sequential read of every discovered file. The per-file "keep reading
// read_size chunks until the file is exhausted" loop is grounded on
// original_source/page-cache-warmer/io_operations.c's io_warm_files,
// translated from its queue-depth-wide iocb slot table into a bounded
// goroutine pool, since page-cache mode has no device fd to share
// between in-flight async requests and a synchronous ReadAt per
// goroutine is sufficient to pull the pages into cache.
func runPageCache(cfg *config.Config) error {
	opts := discover.Options{
		Roots:      cfg.Roots,
		MaxDepth:   cfg.MaxDepth,
		NumThreads: cfg.Threads,
		Excludes:   cfg.Excludes,
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	files := discover.Files(opts)

	sink, cleanupSink, err := buildSink(cfg)
	if err != nil {
		return err
	}
	defer cleanupSink()

	start := time.Now()
	total := int64(len(files))
	var done int64

	readSize := cfg.ReadSizeBytes()
	if readSize <= 0 {
		readSize = 128 * 1024
	}

	queueDepth := cfg.QueueDepth
	if queueDepth < 1 {
		queueDepth = 1
	}

	sem := make(chan struct{}, queueDepth)
	var wg sync.WaitGroup
	for _, f := range files {
		sem <- struct{}{}
		wg.Add(1)
		go func(f discover.FileEntry) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := warmFileSequential(f.AbsolutePath, readSize); err != nil {
				slog.Warn("pageCacheWarmFailed", "path", f.AbsolutePath, "err", err)
			}
			n := atomic.AddInt64(&done, 1)
			sink.Tick("pagecache", n, total)
		}(f)
	}
	wg.Wait()

	sink.Tick("pagecache", total, total)
	sink.PhaseDone("pagecache", time.Since(start), total)
	return nil
}

// warmFileSequential reads f from offset 0 in readSize chunks until EOF,
// discarding the data; the only goal is to pull every page into cache.
func warmFileSequential(path string, readSize int64) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	buf := make([]byte, readSize)
	var offset int64
	for {
		n, err := f.ReadAt(buf, offset)
		offset += int64(n)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}
