package listener

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sync"

	"github.com/nhr-fau/voidkv/internal/corelog"
	"github.com/nhr-fau/voidkv/internal/session"
	"github.com/nhr-fau/voidkv/internal/wire"
)

// TCPConfig describes one binary-framed listener.
type TCPConfig struct {
	Address        string
	Port           uint16
	TLS            *tls.Config
	MaxMessageSize uint32
}

// ServeTCP binds a framed-byte-stream listener and spawns one session per
// accepted connection until ctx is canceled. A bind failure is returned
// to the caller, who treats it as fatal-on-startup; per-accept errors are
// only logged, since a single bad Accept must never stop the process.
func ServeTCP(ctx context.Context, wg *sync.WaitGroup, cfg TCPConfig, sc *ServerContext) (net.Listener, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Address, cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listener: bind tcp %s: %w", addr, err)
	}

	if cfg.TLS != nil {
		ln = tls.NewListener(ln, cfg.TLS)
		corelog.Infof("tcp listener (tls) on %s", addr)
	} else {
		corelog.Infof("tcp listener on %s", addr)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer ln.Close()
		for {
			conn, err := ln.Accept()
			if err != nil {
				select {
				case <-ctx.Done():
					return
				default:
				}
				corelog.Warnf("tcp accept: %s", err)
				continue
			}
			go handleTCPConn(ctx, conn, cfg.MaxMessageSize, sc)
		}
	}()

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	return ln, nil
}

func handleTCPConn(ctx context.Context, conn net.Conn, maxMessageSize uint32, sc *ServerContext) {
	defer conn.Close()

	codec := wire.NewCodec(conn, maxMessageSize, sc.Pool)

	if !sc.Admission.TryAcquire() {
		session.RejectConnLimit(codec)
		return
	}
	defer sc.Admission.Release()

	s := session.New(conn.RemoteAddr().String(), codec, sc.Store, sc.Auth)
	s.Run(ctx)
}
