// Package config loads configuration of the spool tool from a YAML file.
package config

import (
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/outofforest/clist/blocks"
	"github.com/outofforest/clist/codec"
	"github.com/outofforest/clist/memfile"
	"github.com/outofforest/clist/persistence"
)

// Backend names.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
)

// Config is the configuration of the spool tool.
type Config struct {
	// Backend is either "memory" or "file".
	Backend string `yaml:"backend"`

	// BlockSize is the block size of memory files.
	BlockSize int `yaml:"block_size"`

	// CompressionThreshold is the size after which memory files are compressed. Zero means the default.
	CompressionThreshold int64 `yaml:"compression_threshold"`

	// DisableCompression keeps memory files uncompressed.
	DisableCompression bool `yaml:"disable_compression"`

	// Codec is the compression codec of memory files.
	Codec string `yaml:"codec"`

	// MemoryLimit limits memory used by memory files. Zero means no limit.
	MemoryLimit int64 `yaml:"memory_limit"`

	// ScratchDir is the directory of scratch files of the file backend.
	ScratchDir string `yaml:"scratch_dir"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Backend:   BackendMemory,
		BlockSize: blocks.DefaultBlockSize,
		Codec:     codec.Default,
		LogLevel:  "info",
	}
}

// Load reads configuration from the file. Fields missing in the file keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.WithStack(err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "parsing config file %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Wrapf(err, "invalid config file %s", path)
	}
	return cfg, nil
}

// Validate verifies the configuration.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendMemory, BackendFile:
	default:
		return errors.Errorf("unknown backend %q", c.Backend)
	}
	if err := blocks.ValidateBlockSize(c.BlockSize); err != nil {
		return err
	}
	if _, err := codec.ByName(c.Codec); err != nil {
		return err
	}
	if c.CompressionThreshold < 0 {
		return errors.Errorf("negative compression threshold %d", c.CompressionThreshold)
	}
	if c.MemoryLimit < 0 {
		return errors.Errorf("negative memory limit %d", c.MemoryLimit)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level returns the log level.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, errors.Wrapf(err, "invalid log level %q", c.LogLevel)
	}
	return level, nil
}

// Memfile returns configuration of the memory backend.
func (c Config) Memfile(logger *slog.Logger) memfile.Config {
	return memfile.Config{
		BlockSize:            c.BlockSize,
		CompressionThreshold: c.CompressionThreshold,
		DisableCompression:   c.DisableCompression,
		Codec:                c.Codec,
		Allocator:            memfile.NewHeapAllocator(c.MemoryLimit),
		Logger:               logger,
	}
}

// Persistence returns configuration of the file backend.
func (c Config) Persistence(logger *slog.Logger) persistence.Config {
	return persistence.Config{
		Dir:    c.ScratchDir,
		Logger: logger,
	}
}
