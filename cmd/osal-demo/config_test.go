package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, uint32(8), cfg.Queue.Capacity)
	assert.Equal(t, uint32(500), cfg.Producer.PeriodMS)
	assert.Equal(t, uint32(1000), cfg.Status.PeriodMS)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Metrics.Listen)
}

func TestLoadConfigOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[log]
level = "debug"

[queue]
capacity = 32

[producer]
period_ms = 250

[metrics]
listen = ":9090"
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, uint32(32), cfg.Queue.Capacity)
	assert.Equal(t, uint32(250), cfg.Producer.PeriodMS)
	assert.Equal(t, uint32(1000), cfg.Status.PeriodMS, "unset sections keep defaults")
	assert.Equal(t, ":9090", cfg.Metrics.Listen)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig("/nonexistent/demo.toml")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("not = [valid"), 0o644))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestSensorReadingRoundTrip(t *testing.T) {
	in := sensorReading{Timestamp: 123456, SensorID: 7, Temperature: -25, Humidity: 612}
	var buf [readingSize]byte
	in.marshal(buf[:])

	var out sensorReading
	out.unmarshal(buf[:])
	assert.Equal(t, in, out)
}
