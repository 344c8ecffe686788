package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("port", 1234, "")
	fs.String("asset-dir", "", "")
	fs.Int("max-header-bytes", 64<<10, "")
	fs.Int("max-body-bytes", 10<<20, "")
	fs.String("log-level", "info", "")
	fs.String("log-format", "console", "")
	return fs
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, 10<<20, cfg.MaxBodyBytes)
	assert.Equal(t, 64<<10, cfg.MaxHeaderBytes)
}

func TestLoadBodyLimits(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Setenv("HTTPDEMO_MAXBODYBYTES", "2048")
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, 2048, cfg.MaxBodyBytes)

	fs := newFlags()
	require.NoError(t, fs.Parse([]string{"--max-body-bytes", "512", "--max-header-bytes", "256"}))
	cfg, err = Load("", fs)
	require.NoError(t, err)
	assert.Equal(t, 512, cfg.MaxBodyBytes)
	assert.Equal(t, 256, cfg.MaxHeaderBytes)

	path := filepath.Join(t.TempDir(), "httpdemo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("maxBodyBytes: 0\n"), 0o644))
	_, err = Load(path, nil)
	require.Error(t, err)
}

func TestLoadFileEnvAndFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "httpdemo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 8080\nassetDir: /srv/static\nlogging:\n  level: debug\n"), 0o644))

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/srv/static", cfg.AssetDir)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)

	t.Setenv("HTTPDEMO_LOGGING_FORMAT", "json")
	t.Setenv("HTTPDEMO_PORT", "9090")
	cfg, err = Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "json", cfg.Logging.Format)

	fs := newFlags()
	require.NoError(t, fs.Parse([]string{"--port", "4321"}))
	cfg, err = Load(path, fs)
	require.NoError(t, err)
	assert.Equal(t, 4321, cfg.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "httpdemo.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"port": 70000}`), 0o644))
	_, err = Load(path, nil)
	require.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{"logging": {"format": "xml"}}`), 0o644))
	_, err = Load(path, nil)
	require.Error(t, err)
}
