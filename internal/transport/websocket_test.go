// SPDX-License-Identifier: MIT
package transport

import (
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/goleak"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWebSocketTransportBroadcast(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	wst, err := NewWebSocketTransport("127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewWebSocketTransport() error = %v", err)
	}
	defer wst.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+wst.Addr().String()+"/ws", nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	waitFor(t, "client registration", func() bool { return wst.ClientCount() == 1 })

	want := Frame{
		Seq:          7,
		Timestamp:    1234,
		Left:         []float32{0, 0.5, -0.5},
		Right:        []float32{1, -1, 0},
		SpectrumLeft: []float32{0, 2},
		BinHz:        60,
	}
	if err := wst.Send(want); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got Frame
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if got.Seq != want.Seq || got.Timestamp != want.Timestamp || got.BinHz != want.BinHz {
		t.Errorf("got frame %+v, want %+v", got, want)
	}
	if len(got.Left) != 3 || got.Left[1] != 0.5 || len(got.SpectrumLeft) != 2 || got.SpectrumRight != nil {
		t.Errorf("got payload %+v", got)
	}

	if err := wst.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := wst.Send(want); err == nil {
		t.Error("Send() after Close() should fail")
	}
}

func TestWebSocketTransportClientDisconnect(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	wst, err := NewWebSocketTransport("127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewWebSocketTransport() error = %v", err)
	}
	defer wst.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+wst.Addr().String()+"/ws", nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	waitFor(t, "client registration", func() bool { return wst.ClientCount() == 1 })

	conn.Close()
	waitFor(t, "client removal", func() bool { return wst.ClientCount() == 0 })
}

func TestWebSocketTransportSendWithoutClients(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	wst, err := NewWebSocketTransport("127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewWebSocketTransport() error = %v", err)
	}
	// More frames than the queue holds must never block.
	for i := range 100 {
		if err := wst.Send(Frame{Seq: uint64(i)}); err != nil {
			t.Fatalf("Send() error = %v", err)
		}
	}
	if err := wst.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := wst.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestNewWebSocketTransportBadAddr(t *testing.T) {
	if _, err := NewWebSocketTransport("256.0.0.1:99999"); err == nil {
		t.Error("expected listen error")
	}
}

func TestLoggingTransport(t *testing.T) {
	lt := NewLoggingTransport()
	if err := lt.Send(Frame{Seq: 1}); err != nil {
		t.Errorf("Send() error = %v", err)
	}
	if err := lt.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
