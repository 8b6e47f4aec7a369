package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/matzehuels/coaldraw/pkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[render]
width = 600
node_labels = true

[cache]
backend = "redis"
redis_addr = "cache:6379"
scope = "staging:"

[server]
store = "mongo"
read_timeout = "5s"

[quiz]
file = "quiz.yaml"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 600.0, cfg.Render.Width)
	assert.Equal(t, 200.0, cfg.Render.Height, "unset keys keep their default")
	assert.True(t, cfg.Render.NodeLabels)
	assert.Equal(t, CacheRedis, cfg.Cache.Backend)
	assert.Equal(t, "cache:6379", cfg.Cache.RedisAddr)
	assert.Equal(t, "staging:", cfg.Cache.Scope)
	assert.Equal(t, StoreMongo, cfg.Server.Store)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "quiz.yaml", cfg.Quiz.File)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"syntax", "[render\nwidth = 1"},
		{"unknown key", "[render]\nwidht = 500"},
		{"bad width", "[render]\nwidth = -5"},
		{"bad backend", "[cache]\nbackend = \"memcached\""},
		{"bad store", "[server]\nstore = \"postgres\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.NotEmpty(t, cerrors.GetCode(err))
		})
	}
}

func TestPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	p, err := Path()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/xdg", "coaldraw", "config.toml"), p)

	t.Setenv("XDG_CACHE_HOME", "/tmp/cache")
	d, err := CacheDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/cache", "coaldraw"), d)
}

func TestWriteRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Render.ShowInternal = true
	cfg.Server.Addr = "127.0.0.1:9000"

	var buf bytes.Buffer
	require.NoError(t, cfg.Write(&buf))

	got, err := Load(writeConfig(t, buf.String()))
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}
