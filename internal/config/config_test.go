package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWritesDefaultWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	// The default must now be on disk for a second Load to pick up.
	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, reloaded)
}

func TestLoadStrictlyRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
username = "admin"
password = "secret"
max_message_size = 1048576
max_conns = 10
autosave_interval = 60

[tcp]
enabled = true
address = "127.0.0.1"
port = 7070

[bogus_section]
nonsense = true
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsNoTransportEnabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
username = "admin"
password = "secret"
max_message_size = 1048576
max_conns = 10
autosave_interval = 60

[tcp]
enabled = false

[ws]
enabled = false
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsTLSWithoutMaterial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
username = "admin"
password = "secret"
max_message_size = 1048576
max_conns = 10
autosave_interval = 60

[tcp]
enabled = true
address = "127.0.0.1"
port = 7070
tls = true
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadAcceptsWellFormedConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
username = "admin"
password = "secret"
max_message_size = 1048576
max_conns = 10
autosave_interval = 60
compress_threshold = 4096

[tcp]
enabled = true
address = "127.0.0.1"
port = 7070

[ws]
enabled = true
address = "127.0.0.1"
port = 7071
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "admin", cfg.Username)
	assert.EqualValues(t, 7070, cfg.TCP.Port)
	assert.True(t, cfg.WS.Enabled)
	assert.EqualValues(t, 4096, cfg.CompressThreshold)
}
