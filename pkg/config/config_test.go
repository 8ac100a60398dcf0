package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

const sampleConfig = `
[link]
physical_rx_id = 0x7E0
functional_rx_id = 0x7DF
response_buffer_capacity = 4095

[timing]
p2_ms = 50
p2_star_ms = 5000
s3_ms = 5000
`

func writeSample(t *testing.T) string {
	dir := t.TempDir()
	path := filepath.Join(dir, "udsd.ini")
	assert.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o644))
	return path
}

func TestLoadParsesHexAndDecimal(t *testing.T) {
	cfg, err := Load(writeSample(t))
	assert.NoError(t, err)
	assert.EqualValues(t, 0x7E0, cfg.PhysicalRxID)
	assert.EqualValues(t, 0x7DF, cfg.FunctionalRxID)
	assert.EqualValues(t, 4095, cfg.ResponseBufferCapacity)
	assert.EqualValues(t, 50, cfg.P2Ms)
	assert.EqualValues(t, 5000, cfg.P2StarMs)
	assert.EqualValues(t, 5000, cfg.S3Ms)
}

func TestLoadMissingSection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "udsd.ini")
	assert.NoError(t, os.WriteFile(path, []byte("[link]\nphysical_rx_id = 1\n"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "udsd.ini")
	assert.NoError(t, os.WriteFile(path, []byte("[link]\nphysical_rx_id = 1\nfunctional_rx_id = 2\nresponse_buffer_capacity = 16\n\n[timing]\np2_ms = 50\np2_star_ms = 5000\n"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}
