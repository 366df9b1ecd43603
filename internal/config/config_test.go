package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	opts, err := Parse("test", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000/api", opts.APIURL)
	assert.Equal(t, "file", opts.SessionBackend)
	assert.Equal(t, 1500*time.Millisecond, opts.RedirectDelay)
	assert.Equal(t, 30*time.Second, opts.HealthInterval)
}

func TestParse_FlagOverridesEnv(t *testing.T) {
	t.Setenv("EXPEDIENTES_API_URL", "http://env:3000/api")
	opts, err := Parse("test", []string{"--url", "http://flag:3000/api/"})
	require.NoError(t, err)
	assert.Equal(t, "http://flag:3000/api", opts.APIURL)

	opts, err = Parse("test", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://env:3000/api", opts.APIURL)
}

func TestParse_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_url: https://files.example/api\nexport_dir: /tmp/out\n"), 0o600))

	opts, err := Parse("test", []string{"-c", path})
	require.NoError(t, err)
	assert.Equal(t, "https://files.example/api", opts.APIURL)
	assert.Equal(t, "/tmp/out", opts.ExportDir)
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string][]string{
		"relative url":     {"--url", "/api"},
		"unknown backend":  {"--session-backend", "redis"},
		"postgres w/o dsn": {"--session-backend", "postgres"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse("test", args)
			assert.Error(t, err)
		})
	}
}
