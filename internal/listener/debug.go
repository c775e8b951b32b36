package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/mux"

	"github.com/nhr-fau/voidkv/internal/corelog"
)

// DebugConfig describes the optional observability endpoint.
type DebugConfig struct {
	Address string
	Port    uint16
}

type healthResponse struct {
	Connections int64 `json:"connections"`
	Tables      int   `json:"tables"`
}

// ServeDebug binds a tiny HTTP server exposing GET /healthz with the live
// connection count and table count, gated by the caller on
// config.Debug.Enabled. It shares this package's Admission counter and
// the running Store rather than opening any new synchronization of its
// own.
func ServeDebug(ctx context.Context, wg *sync.WaitGroup, cfg DebugConfig, sc *ServerContext) (net.Listener, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Address, cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listener: bind debug %s: %w", addr, err)
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(healthResponse{
			Connections: sc.Admission.Current(),
			Tables:      len(sc.Store.ListTables()),
		})
	}).Methods(http.MethodGet)

	server := &http.Server{Handler: r}
	corelog.Infof("debug listener on %s", addr)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			corelog.Errorf("debug server: %s", err)
		}
	}()

	go func() {
		<-ctx.Done()
		server.Close()
	}()

	return ln, nil
}
