package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsMatchExpectedValues(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, int64(200), cfg.AuctionDurationMS)
	assert.Equal(t, 10_000, cfg.MaxPoolSize)
	assert.Equal(t, float64(0), cfg.ValidatorFailureRate)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.toml")
	contents := `
BindAddress = "0.0.0.0:9000"
MaxPoolSize = 500
AuctionDurationMS = 100
ValidatorFailureRate = 0.1
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", cfg.BindAddress)
	assert.Equal(t, 500, cfg.MaxPoolSize)
	assert.Equal(t, int64(100), cfg.AuctionDurationMS)
	assert.Equal(t, 0.1, cfg.ValidatorFailureRate)
	// Unset fields keep their defaults.
	assert.Equal(t, 32, cfg.MaxBundlesForBlock)
}

func TestLoadFileMissingFileReturnsError(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
