package listener

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/nhr-fau/voidkv/internal/compress"
	"github.com/nhr-fau/voidkv/internal/session"
	"github.com/nhr-fau/voidkv/internal/store"
	"github.com/nhr-fau/voidkv/internal/value"
)

func newTestContext(t *testing.T, maxConns int64) *ServerContext {
	t.Helper()
	auth, err := session.NewAuthenticator("admin", "password")
	if err != nil {
		t.Fatalf("NewAuthenticator() error = %v", err)
	}
	return &ServerContext{
		Store:     store.New(),
		Auth:      auth,
		Admission: NewAdmission(maxConns),
		Pool:      compress.NewPool(2),
	}
}

// writeClientFrame hand-rolls an uncompressed frame in the wire format
// (body_len u32 LE + compression u8 + body) since the test stands in for
// a client, and wire.Codec only offers the server-side Recv(Request)/
// Send(Response) pairing.
func writeClientFrame(t *testing.T, w io.Writer, req value.Request) {
	t.Helper()
	body, err := msgpack.Marshal(req)
	if err != nil {
		t.Fatalf("msgpack.Marshal() error = %v", err)
	}
	var header [5]byte
	binary.LittleEndian.PutUint32(header[0:4], uint32(len(body)))
	if _, err := w.Write(header[:]); err != nil {
		t.Fatalf("write header: %v", err)
	}
	if _, err := w.Write(body); err != nil {
		t.Fatalf("write body: %v", err)
	}
}

func readClientFrame(t *testing.T, r io.Reader) value.Response {
	t.Helper()
	var header [5]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		t.Fatalf("read header: %v", err)
	}
	bodyLen := binary.LittleEndian.Uint32(header[0:4])
	body := make([]byte, bodyLen)
	if _, err := io.ReadFull(r, body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	var resp value.Response
	if err := msgpack.Unmarshal(body, &resp); err != nil {
		t.Fatalf("msgpack.Unmarshal() error = %v", err)
	}
	return resp
}

func TestServeTCPRoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup

	sc := newTestContext(t, 4)
	defer sc.Pool.Close()

	ln, err := ServeTCP(ctx, &wg, TCPConfig{Address: "127.0.0.1", Port: 0, MaxMessageSize: 1 << 20}, sc)
	if err != nil {
		t.Fatalf("ServeTCP() error = %v", err)
	}

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("net.Dial() error = %v", err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))

	writeClientFrame(t, conn, value.Request{Action: value.ActionAuth, Username: "admin", Password: "password"})
	authResp := readClientFrame(t, conn)
	if authResp.Status != value.StatusSuccess {
		t.Fatalf("AUTH response = %v, want OK", authResp.Status)
	}

	writeClientFrame(t, conn, value.Request{Action: value.ActionPing})
	pingResp := readClientFrame(t, conn)
	if pingResp.Status != value.StatusSuccess {
		t.Fatalf("PING response = %v, want OK", pingResp.Status)
	}

	cancel()
	wg.Wait()
}

func TestServeTCPAdmissionRejectsOverLimit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup

	sc := newTestContext(t, 0)
	defer sc.Pool.Close()

	ln, err := ServeTCP(ctx, &wg, TCPConfig{Address: "127.0.0.1", Port: 0, MaxMessageSize: 1 << 20}, sc)
	if err != nil {
		t.Fatalf("ServeTCP() error = %v", err)
	}

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("net.Dial() error = %v", err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))

	resp := readClientFrame(t, conn)
	if resp.Status != value.StatusConnLimit {
		t.Errorf("response = %v, want ConnLimit", resp.Status)
	}

	cancel()
	wg.Wait()
}
