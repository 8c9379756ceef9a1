package kiosk

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kiosk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
server: http://kiosk-api:3000
camera: ./faces
timeout: 10s
auto:
  enabled: true
  interval: 7s
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "http://kiosk-api:3000", cfg.Server)
	assert.Equal(t, "./faces", cfg.Camera)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, JPEGQuality, cfg.Quality)
	assert.True(t, cfg.Auto.Enabled)
	assert.Equal(t, 7*time.Second, cfg.Auto.Interval)
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	assert.Error(t, cfg.Validate(), "camera is required")
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadConfig(writeConfig(t, "server: [unclosed"))
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	valid := DefaultConfig()
	valid.Camera = "frame.jpg"

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "bad server url", mutate: func(c *Config) { c.Server = "not a url" }, wantErr: assert.AnError},
		{name: "quality out of range", mutate: func(c *Config) { c.Quality = 0 }, wantErr: assert.AnError},
		{name: "auto interval too short", mutate: func(c *Config) {
			c.Auto = AutoConfig{Enabled: true, Interval: time.Second}
		}, wantErr: ErrInvalidInterval},
		{name: "auto interval too long", mutate: func(c *Config) {
			c.Auto = AutoConfig{Enabled: true, Interval: time.Minute}
		}, wantErr: ErrInvalidInterval},
		{name: "interval ignored when auto is off", mutate: func(c *Config) {
			c.Auto = AutoConfig{Interval: time.Minute}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)

			err := cfg.Validate()
			switch {
			case tt.wantErr == nil:
				assert.NoError(t, err)
			case tt.wantErr == assert.AnError:
				assert.Error(t, err)
			default:
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
