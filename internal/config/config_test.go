package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	var (
		addr = "localhost:8080"
		dsn  = "host=localhost user=postgres password=postgres dbname=postgres sslmode=disable"
		key  = "c29tZV9zZWNyZXQ="
		orig = []string{"http://localhost:3000"}
	)

	tcases := []struct {
		name string
		addr string
		dsn  string
		key  string
		orig []string
		err  bool
	}{
		{
			name: "valid config",
			addr: addr,
			dsn:  dsn,
			key:  key,
			orig: orig,
			err:  false,
		},
		{
			name: "empty address",
			addr: "",
			dsn:  dsn,
			key:  key,
			orig: orig,
			err:  true,
		},
		{
			name: "empty DSN",
			addr: addr,
			dsn:  "",
			key:  key,
			orig: orig,
			err:  true,
		},
		{
			name: "empty signing key",
			addr: addr,
			dsn:  dsn,
			key:  "",
			orig: orig,
			err:  true,
		},
		{
			name: "signing key not base64",
			addr: addr,
			dsn:  dsn,
			key:  "not base64!",
			orig: orig,
			err:  true,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			config, err := NewConfig(tc.addr, tc.dsn, tc.key, tc.orig)
			if tc.err {
				assert.Error(t, err, "expected error for config: %s", tc.name)
				return
			}
			assert.NoError(t, err, "expected no error for config: %s", tc.name)

			assert.Equal(t, tc.addr, config.ServerAddr, "expected server address to match")
			assert.Equal(t, tc.dsn, config.DatabaseDSN, "expected database DSN to match")
			assert.Equal(t, tc.orig, config.AllowedOrigins, "expected allowed origins to match")
			assert.NotEmpty(t, config.SigningKey, "expected signing key to be decoded and not empty")
			assert.Equal(t, 800.0, config.Swipe.VelocityThreshold, "expected default velocity threshold")
		})
	}
}

func Test_decodeSigningKey(t *testing.T) {
	tcases := []struct {
		name         string
		base64Secret string
		expectedKey  []byte
		expectError  bool
	}{
		{
			name:         "valid base64 secret",
			base64Secret: "c29tZV9zZWNyZXQ=",
			expectedKey:  []byte("some_secret"),
			expectError:  false,
		},
		{
			name:         "invalid base64 secret",
			base64Secret: "invalid_base64",
			expectedKey:  nil,
			expectError:  true,
		},
		{
			name:         "empty base64 secret",
			base64Secret: "",
			expectedKey:  nil,
			expectError:  true,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			key, err := decodeSigningSecret(tc.base64Secret)
			if tc.expectError {
				assert.Error(t, err, "expected error for base64 secret: %s", tc.base64Secret)
			} else {
				assert.NoError(t, err, "expected no error for base64 secret: %s", tc.base64Secret)
				assert.Equal(t, tc.expectedKey, key, "expected decoded key to match for base64 secret: %s", tc.base64Secret)
			}
		})
	}
}

func TestLoad_file(t *testing.T) {
	path := filepath.Join(t.TempDir(), "housematch.yaml")
	content := `
server:
  addr: "0.0.0.0:9000"
  signing_key: "c29tZV9zZWNyZXQ="
  allowed_origins:
    - "http://a.example"
    - "http://b.example"
  request_timeout: 3s
database:
  dsn: "postgres://localhost/housematch"
  auto_migrate: false
swipe:
  velocity_threshold: 650
log:
  file: "/tmp/housematch.log"
  max_size: 5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.ServerAddr)
	assert.Equal(t, []byte("some_secret"), cfg.SigningKey)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "postgres://localhost/housematch", cfg.DatabaseDSN)
	assert.False(t, cfg.AutoMigrate)
	assert.Equal(t, 650.0, cfg.Swipe.VelocityThreshold)
	assert.Equal(t, 400.0, cfg.Swipe.ScreenWidth, "expected default screen width")
	assert.Equal(t, "/tmp/housematch.log", cfg.Log.File)
	assert.Equal(t, 5, cfg.Log.MaxSizeMB)
	assert.Equal(t, 30, cfg.Log.MaxBackups, "expected default max backups")
}

func TestLoad_env(t *testing.T) {
	t.Setenv("HOUSEMATCH_SERVER_SIGNING_KEY", "c29tZV9zZWNyZXQ=")
	t.Setenv("HOUSEMATCH_SERVER_ADDR", "localhost:9999")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "localhost:9999", cfg.ServerAddr)
	assert.Equal(t, []byte("some_secret"), cfg.SigningKey)
	assert.True(t, cfg.AutoMigrate, "expected auto migrate default")
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
}

func TestLoad_errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})

	t.Run("missing signing key", func(t *testing.T) {
		t.Setenv("HOUSEMATCH_SERVER_SIGNING_KEY", "")
		_, err := Load("")
		assert.Error(t, err)
	})
}

func Test_splitOrigins(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, splitOrigins([]string{"a, b", "c", ""}))
	assert.Nil(t, splitOrigins(nil))
}
