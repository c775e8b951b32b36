package listener

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nhr-fau/voidkv/internal/corelog"
	"github.com/nhr-fau/voidkv/internal/session"
	"github.com/nhr-fau/voidkv/internal/value"
	"github.com/nhr-fau/voidkv/internal/wire"
)

// WSConfig describes one WebSocket listener.
type WSConfig struct {
	Address string
	Port    uint16
	TLS     *tls.Config
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS binds an HTTP server that upgrades every request to a
// WebSocket and spawns one session per connection, shut down gracefully
// via http.Server.Shutdown when ctx is canceled.
func ServeWS(ctx context.Context, wg *sync.WaitGroup, cfg WSConfig, sc *ServerContext) (*http.Server, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Address, cfg.Port)

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			corelog.Warnf("ws upgrade: %s", err)
			return
		}
		go handleWSConn(ctx, conn, sc)
	})

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listener: bind ws %s: %w", addr, err)
	}

	server := &http.Server{
		Addr:         ln.Addr().String(),
		Handler:      mux,
		ReadTimeout:  0,
		WriteTimeout: 0,
	}
	if cfg.TLS != nil {
		server.TLSConfig = cfg.TLS
	}

	if cfg.TLS != nil {
		ln = tls.NewListener(ln, cfg.TLS)
		corelog.Infof("ws listener (tls) on %s", addr)
	} else {
		corelog.Infof("ws listener on %s", addr)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			corelog.Errorf("ws server: %s", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	return server, nil
}

func handleWSConn(ctx context.Context, conn *websocket.Conn, sc *ServerContext) {
	defer conn.Close()

	transport := &wsTransport{conn: conn}
	conn.SetPingHandler(func(appData string) error {
		// A client-originated control Ping is answered with an
		// application-level Pong, not just the control-frame Pong.
		return transport.Send(value.OK(value.PongPayload{}))
	})

	if !sc.Admission.TryAcquire() {
		session.RejectConnLimit(transport)
		return
	}
	defer sc.Admission.Release()

	s := session.New(conn.RemoteAddr().String(), transport, sc.Store, sc.Auth)
	s.Run(ctx)
}

// wsTransport adapts a gorilla/websocket connection's JSON text frames to
// session.Transport.
type wsTransport struct {
	conn *websocket.Conn
}

func (t *wsTransport) Recv(ctx context.Context) (value.Request, error) {
	_, data, err := t.conn.ReadMessage()
	if err != nil {
		return value.Request{}, err
	}
	var req value.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return value.Request{}, fmt.Errorf("%w: %v", wire.ErrBadFrame, err)
	}
	return req, nil
}

func (t *wsTransport) Send(resp value.Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return t.conn.WriteMessage(websocket.TextMessage, data)
}
