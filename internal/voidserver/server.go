// Package voidserver wires config, store, snapshot, compression and
// listeners into one running process and owns the startup/shutdown
// sequence, split out of main so cmd/voidkv/main.go stays a thin flag
// parser.
package voidserver

import (
	"context"
	"crypto/tls"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/nhr-fau/voidkv/internal/compress"
	"github.com/nhr-fau/voidkv/internal/config"
	"github.com/nhr-fau/voidkv/internal/corelog"
	"github.com/nhr-fau/voidkv/internal/listener"
	"github.com/nhr-fau/voidkv/internal/runtimeenv"
	"github.com/nhr-fau/voidkv/internal/session"
	"github.com/nhr-fau/voidkv/internal/snapshot"
	"github.com/nhr-fau/voidkv/internal/store"
)

// Options are the external collaborators resolved from the CLI before
// Run is called: where the config and snapshot files live.
type Options struct {
	ConfigPath   string
	SnapshotPath string
}

// Run executes the full startup sequence, blocks until SIGINT/SIGTERM,
// then performs a final save and returns. Listener bind failures and
// config/snapshot load failures are returned to the caller, who is
// expected to log.Fatal them: startup failures are fatal, but once the
// listeners are up a single connection's errors never bring the process
// down.
func Run(opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("voidserver: load config: %w", err)
	}

	db, err := snapshot.Load(opts.SnapshotPath)
	if err != nil {
		return fmt.Errorf("voidserver: load snapshot: %w", err)
	}
	st := store.FromDatabase(db)
	if len(db) == 0 {
		if err := snapshot.Save(opts.SnapshotPath, st.Snapshot()); err != nil {
			return fmt.Errorf("voidserver: write initial snapshot: %w", err)
		}
		corelog.Infof("voidserver: no snapshot at %s, wrote an empty one", opts.SnapshotPath)
	}

	auth, err := session.NewAuthenticator(cfg.Username, cfg.Password)
	if err != nil {
		return fmt.Errorf("voidserver: init authenticator: %w", err)
	}

	pool := compress.NewPool(0)
	defer pool.Close()

	sc := &listener.ServerContext{
		Store:     st,
		Auth:      auth,
		Admission: listener.NewAdmission(int64(cfg.MaxConns)),
		Pool:      pool,
	}

	tlsConfig, err := loadTLS(cfg)
	if err != nil {
		return fmt.Errorf("voidserver: load tls material: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup

	if cfg.TCP.Enabled {
		tcpCfg := listener.TCPConfig{
			Address:        cfg.TCP.Address,
			Port:           cfg.TCP.Port,
			MaxMessageSize: uint32(cfg.MaxMessageSize),
		}
		if cfg.TCP.TLS {
			tcpCfg.TLS = tlsConfig
		}
		if _, err := listener.ServeTCP(ctx, &wg, tcpCfg, sc); err != nil {
			return fmt.Errorf("voidserver: %w", err)
		}
	}

	if cfg.WS.Enabled {
		wsCfg := listener.WSConfig{Address: cfg.WS.Address, Port: cfg.WS.Port}
		if cfg.WS.TLS {
			wsCfg.TLS = tlsConfig
		}
		if _, err := listener.ServeWS(ctx, &wg, wsCfg, sc); err != nil {
			return fmt.Errorf("voidserver: %w", err)
		}
	}

	if cfg.Debug.Enabled {
		debugCfg := listener.DebugConfig{Address: cfg.Debug.Address, Port: cfg.Debug.Port}
		if _, err := listener.ServeDebug(ctx, &wg, debugCfg, sc); err != nil {
			return fmt.Errorf("voidserver: %w", err)
		}
	}

	if cfg.DropPrivUser != "" || cfg.DropPrivGroup != "" {
		if err := runtimeenv.DropPrivileges(cfg.DropPrivUser, cfg.DropPrivGroup); err != nil {
			return fmt.Errorf("voidserver: drop privileges: %w", err)
		}
	}

	snapshot.Autosave(ctx, &wg, opts.SnapshotPath, time.Duration(cfg.AutosaveInterval)*time.Second, st.Snapshot)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	runtimeenv.SystemdNotify(true, "running")
	<-sigs

	runtimeenv.SystemdNotify(false, "shutting down")
	cancel()

	if err := snapshot.SaveOnShutdown(opts.SnapshotPath, st.Snapshot); err != nil {
		corelog.Errorf("voidserver: final save: %s", err)
	}

	wg.Wait()
	corelog.Infof("voidserver: graceful shutdown complete")
	return nil
}

// loadTLS reads the configured certificate/key pair once at startup; a
// read or parse failure here must abort startup rather than silently
// serving plaintext on a transport the operator asked to be TLS-only.
func loadTLS(cfg config.Config) (*tls.Config, error) {
	needsTLS := (cfg.TCP.Enabled && cfg.TCP.TLS) || (cfg.WS.Enabled && cfg.WS.TLS)
	if !needsTLS {
		return nil, nil
	}
	cert, err := tls.LoadX509KeyPair(cfg.TLS.Cert, cfg.TLS.Key)
	if err != nil {
		return nil, fmt.Errorf("load x509 key pair: %w", err)
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}
