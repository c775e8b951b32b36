// Package config loads and validates the TOML configuration file: listen
// addresses, TLS material, credentials, and the store's operational
// limits.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/nhr-fau/voidkv/internal/corelog"
)

// TCP holds the binary-framed listener's settings.
type TCP struct {
	Enabled bool   `toml:"enabled"`
	Address string `toml:"address"`
	Port    uint16 `toml:"port"`
	TLS     bool   `toml:"tls"`
}

// WS holds the WebSocket listener's settings.
type WS struct {
	Enabled bool   `toml:"enabled"`
	Address string `toml:"address"`
	Port    uint16 `toml:"port"`
	TLS     bool   `toml:"tls"`
}

// TLSMaterial names the PKCS#8 certificate/key pair shared by any
// listener with tls = true.
type TLSMaterial struct {
	Cert string `toml:"cert"`
	Key  string `toml:"key"`
}

// Debug gates the optional observability HTTP endpoint.
type Debug struct {
	Enabled bool   `toml:"enabled"`
	Address string `toml:"address"`
	Port    uint16 `toml:"port"`
}

// Config is the full decoded TOML document.
type Config struct {
	TCP TCP         `toml:"tcp"`
	WS  WS          `toml:"ws"`
	TLS TLSMaterial `toml:"tls"`

	AutosaveInterval uint64 `toml:"autosave_interval"`

	Username string `toml:"username"`
	Password string `toml:"password"`

	MaxConns          uint64 `toml:"max_conns"`
	MaxMessageSize    uint64 `toml:"max_message_size"`
	CompressThreshold uint64 `toml:"compress_threshold"`

	// DropPrivUser and DropPrivGroup let voidkv bind its listener ports
	// as root (for a low port or a privileged TLS cert path) and then
	// drop to an unprivileged account for the rest of the process
	// lifetime. Empty means "don't drop" and is the default.
	DropPrivUser  string `toml:"drop_priv_user"`
	DropPrivGroup string `toml:"drop_priv_group"`

	Debug Debug `toml:"debug"`
}

// Default returns the configuration written out the first time voidkv
// runs without an existing config file: TCP enabled on the loopback
// interface, no TLS, no debug endpoint, generous but bounded limits.
func Default() Config {
	return Config{
		TCP: TCP{Enabled: true, Address: "127.0.0.1", Port: 7070},
		WS:  WS{Enabled: false, Address: "127.0.0.1", Port: 7071},

		AutosaveInterval: 300,

		Username: "admin",
		Password: "change-me",

		MaxConns:          1024,
		MaxMessageSize:    16 * 1024 * 1024,
		CompressThreshold: 0,
	}
}

// Load reads and strictly decodes the TOML file at path. If the file does
// not exist, it writes out Default() and returns that default, since
// voidkv has no config-less mode. A parse failure or an unknown key is
// fatal: callers should not start the server on a Load error.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		cfg := Default()
		if err := WriteDefault(path, cfg); err != nil {
			return Config{}, err
		}
		corelog.Infof("config: no config file at %s, wrote defaults", path)
		return cfg, nil
	}

	dec := toml.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// WriteDefault serializes cfg as TOML and writes it to path, creating the
// file if absent. Load calls it on first run when no config file exists.
func WriteDefault(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: encode defaults: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("config: create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// validate rejects configurations the listener layer could not possibly
// serve: no transport enabled at all, or TLS requested without material.
func validate(cfg Config) error {
	if !cfg.TCP.Enabled && !cfg.WS.Enabled {
		return fmt.Errorf("at least one of tcp.enabled or ws.enabled must be true")
	}
	needsTLS := (cfg.TCP.Enabled && cfg.TCP.TLS) || (cfg.WS.Enabled && cfg.WS.TLS)
	if needsTLS && (cfg.TLS.Cert == "" || cfg.TLS.Key == "") {
		return fmt.Errorf("tls enabled on a transport but tls.cert/tls.key are not both set")
	}
	if cfg.Username == "" {
		return fmt.Errorf("username must not be empty")
	}
	if cfg.MaxMessageSize == 0 {
		return fmt.Errorf("max_message_size must be greater than zero")
	}
	return nil
}
