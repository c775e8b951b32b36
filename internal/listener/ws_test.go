package listener

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nhr-fau/voidkv/internal/value"
)

func TestServeWSRoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup

	sc := newTestContext(t, 4)
	defer sc.Pool.Close()

	server, err := ServeWS(ctx, &wg, WSConfig{Address: "127.0.0.1", Port: 0}, sc)
	if err != nil {
		t.Fatalf("ServeWS() error = %v", err)
	}

	wsURL := "ws://" + server.Addr + "/"
	var conn *websocket.Conn
	for i := 0; i < 50; i++ {
		conn, _, err = websocket.DefaultDialer.Dial(wsURL, nil)
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("websocket.Dial() error = %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(value.Request{Action: value.ActionAuth, Username: "admin", Password: "password"}); err != nil {
		t.Fatalf("WriteJSON(AUTH) error = %v", err)
	}
	var authResp value.Response
	if err := conn.ReadJSON(&authResp); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if authResp.Status != value.StatusSuccess {
		t.Fatalf("AUTH response = %v, want OK", authResp.Status)
	}

	if err := conn.WriteJSON(value.Request{Action: value.ActionListTables}); err != nil {
		t.Fatalf("WriteJSON(LIST TABLE) error = %v", err)
	}
	var listResp value.Response
	if err := conn.ReadJSON(&listResp); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if listResp.Status != value.StatusSuccess {
		t.Fatalf("LIST TABLE response = %v, want OK", listResp.Status)
	}

	cancel()
	wg.Wait()
}

func TestServeWSControlPingGetsApplicationPong(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup

	sc := newTestContext(t, 4)
	defer sc.Pool.Close()

	server, err := ServeWS(ctx, &wg, WSConfig{Address: "127.0.0.1", Port: 0}, sc)
	if err != nil {
		t.Fatalf("ServeWS() error = %v", err)
	}

	wsURL := "ws://" + server.Addr + "/"
	var conn *websocket.Conn
	for i := 0; i < 50; i++ {
		conn, _, err = websocket.DefaultDialer.Dial(wsURL, nil)
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("websocket.Dial() error = %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(5 * time.Second)
	if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
		t.Fatalf("WriteControl(Ping) error = %v", err)
	}

	var resp value.Response
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("ReadJSON() after control ping error = %v", err)
	}
	if resp.Status != value.StatusSuccess {
		t.Errorf("response after control ping = %v, want OK", resp.Status)
	}
	if _, ok := resp.Payload.(value.PongPayload); !ok {
		t.Errorf("response payload = %T, want PongPayload", resp.Payload)
	}

	cancel()
	wg.Wait()
}
