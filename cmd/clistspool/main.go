// clistspool spools a synthetic command list through one of the backends, reads it back by several
// readers and reports statistics.
package main

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/outofforest/clist"
	"github.com/outofforest/clist/config"
	"github.com/outofforest/clist/memfile"
	"github.com/outofforest/clist/persistence"
	"github.com/outofforest/clist/pkg/synth"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	configPath string
	size       int
	readers    int
	seed       int64
	chunk      int
}

func run(args []string, out io.Writer) error {
	cfg := config.Default()
	var opts options

	flagSet := pflag.NewFlagSet("clistspool", pflag.ContinueOnError)
	flagSet.StringVar(&opts.configPath, "config", "", "path to YAML config file")
	flagSet.StringVar(&cfg.Backend, "backend", cfg.Backend, "backend: memory or file")
	flagSet.StringVar(&cfg.Codec, "codec", cfg.Codec, "compression codec of the memory backend")
	flagSet.IntVar(&cfg.BlockSize, "block-size", cfg.BlockSize, "block size of the memory backend")
	flagSet.Int64Var(&cfg.CompressionThreshold, "threshold", cfg.CompressionThreshold,
		"size after which memory files are compressed (0 means default)")
	flagSet.BoolVar(&cfg.DisableCompression, "no-compression", cfg.DisableCompression,
		"keep memory files uncompressed")
	flagSet.Int64Var(&cfg.MemoryLimit, "memory-limit", cfg.MemoryLimit, "memory limit in bytes (0 means none)")
	flagSet.StringVar(&cfg.ScratchDir, "scratch-dir", cfg.ScratchDir, "directory of scratch files")
	flagSet.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	flagSet.IntVar(&opts.size, "size", 64*1024*1024, "number of bytes to spool")
	flagSet.IntVar(&opts.readers, "readers", 4, "number of readers verifying the spooled data")
	flagSet.Int64Var(&opts.seed, "seed", 1, "seed of the synthetic command stream")
	flagSet.IntVar(&opts.chunk, "chunk", 4096, "size of a single write")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return err
		}
		// Flags given explicitly win over the file.
		flagSet.Visit(func(f *pflag.Flag) {
			applyFlag(&loaded, cfg, f.Name)
		})
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if opts.size < 0 || opts.readers < 0 || opts.chunk <= 0 {
		return errors.New("size and readers must not be negative, chunk must be positive")
	}

	level, err := cfg.Level()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	var procs clist.Procs
	switch cfg.Backend {
	case config.BackendFile:
		procs = persistence.NewBackend(cfg.Persistence(logger))
	default:
		procs, err = memfile.NewBackend(cfg.Memfile(logger))
		if err != nil {
			return err
		}
	}

	return spool(procs, opts, logger, out)
}

func applyFlag(dst *config.Config, src config.Config, name string) {
	switch name {
	case "backend":
		dst.Backend = src.Backend
	case "codec":
		dst.Codec = src.Codec
	case "block-size":
		dst.BlockSize = src.BlockSize
	case "threshold":
		dst.CompressionThreshold = src.CompressionThreshold
	case "no-compression":
		dst.DisableCompression = src.DisableCompression
	case "memory-limit":
		dst.MemoryLimit = src.MemoryLimit
	case "scratch-dir":
		dst.ScratchDir = src.ScratchDir
	case "log-level":
		dst.LogLevel = src.LogLevel
	}
}

func spool(procs clist.Procs, opts options, logger *slog.Logger, out io.Writer) error {
	data := synth.Generate(opts.seed, opts.size)

	f, err := procs.Open("", clist.ModeWrite)
	if err != nil {
		return err
	}
	defer func() {
		if err := f.Close(true); err != nil {
			logger.Error("Deleting command list failed", "error", err)
		}
	}()

	for rest := data; len(rest) > 0; {
		n := min(opts.chunk, len(rest))
		if err := f.Reserve(int64(n)); err != nil {
			return err
		}
		if _, err := f.Write(rest[:n]); err != nil {
			return err
		}
		rest = rest[n:]
	}
	logger.Info("Command list spooled", "bytes", len(data), "name", fmt.Sprintf("%q", f.Name()))

	readers := make([]clist.File, 0, opts.readers)
	defer func() {
		for _, r := range readers {
			if err := r.Close(false); err != nil {
				logger.Error("Closing reader failed", "error", err)
			}
		}
	}()
	for i := range opts.readers {
		r, err := procs.Open(f.Name(), clist.ModeRead)
		if err != nil {
			return err
		}
		readers = append(readers, r)

		// Readers start at staggered offsets to exercise independent cursors.
		offset := int64(len(data)) * int64(i) / int64(opts.readers)
		if _, err := r.Seek(offset, io.SeekStart); err != nil {
			return err
		}
	}

	buf := make([]byte, opts.chunk)
	for i, r := range readers {
		start := int64(len(data)) * int64(i) / int64(opts.readers)
		pos := start
		for {
			n, err := r.Read(buf)
			if n > 0 && !bytes.Equal(buf[:n], data[pos:pos+int64(n)]) {
				return errors.Errorf("reader %d: data mismatch at offset %d", i, pos)
			}
			pos += int64(n)
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return err
			}
		}
		if pos != int64(len(data)) {
			return errors.Errorf("reader %d stopped at %d, expected %d", i, pos, len(data))
		}
	}

	report(out, f, len(data), len(readers))
	return nil
}

func report(out io.Writer, f clist.File, size, readers int) {
	fmt.Fprintf(out, "spooled:  %d bytes\n", size)
	fmt.Fprintf(out, "readers:  %d verified\n", readers)

	s, ok := f.(*memfile.Store)
	if !ok {
		return
	}
	m := s.Metrics()
	fmt.Fprintf(out, "blocks:   %d logical, %d physical\n", s.LogicalBlocks(), s.PhysicalBlocks())
	fmt.Fprintf(out, "ratio:    %.2f (%d blocks compressed, %d stored raw)\n", m.Ratio(), m.BlocksCompressed,
		m.BlocksStored)
	fmt.Fprintf(out, "space:    %d bytes\n", s.TotalSpace())
	fmt.Fprintf(out, "cache:    %d slots, %d blocks cached, %d hits, %d evictions\n", s.CacheSlots(),
		len(s.CachedBlocks()), m.CacheHits, m.Evictions)
	fmt.Fprintf(out, "reserve:  %d allocations, low memory: %t\n", m.ReserveAllocations, s.LowMemory())
}
