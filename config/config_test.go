package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "clist.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad(t *testing.T) {
	requireT := require.New(t)

	cfg, err := Load(writeConfig(t, `
backend: file
block_size: 4096
compression_threshold: 1048576
codec: lz4
scratch_dir: /var/tmp
memory_limit: 1073741824
log_level: debug
`))
	requireT.NoError(err)
	requireT.Equal(Config{
		Backend:              BackendFile,
		BlockSize:            4096,
		CompressionThreshold: 1048576,
		Codec:                "lz4",
		ScratchDir:           "/var/tmp",
		MemoryLimit:          1 << 30,
		LogLevel:             "debug",
	}, cfg)

	level, err := cfg.Level()
	requireT.NoError(err)
	requireT.Equal(slog.LevelDebug, level)

	mcfg := cfg.Memfile(nil)
	requireT.Equal(4096, mcfg.BlockSize)
	requireT.Equal("lz4", mcfg.Codec)
	requireT.NotNil(mcfg.Allocator)

	requireT.Equal("/var/tmp", cfg.Persistence(nil).Dir)
}

func TestLoadKeepsDefaults(t *testing.T) {
	requireT := require.New(t)

	cfg, err := Load(writeConfig(t, "disable_compression: true\n"))
	requireT.NoError(err)

	expected := Default()
	expected.DisableCompression = true
	requireT.Equal(expected, cfg)
}

func TestLoadErrors(t *testing.T) {
	assertT := assert.New(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assertT.Error(err)

	for _, content := range []string{
		"backend: tape\n",
		"block_size: 1000\n",
		"codec: brotli\n",
		"compression_threshold: -1\n",
		"memory_limit: -1\n",
		"log_level: loud\n",
		"block_size: [1\n",
	} {
		_, err := Load(writeConfig(t, content))
		assertT.Error(err, "content: %s", content)
	}
}
