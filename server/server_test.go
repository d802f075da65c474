package server

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/bithorde/bithorded/session"
)

func TestServeSpawnsASessionPerConnection(t *testing.T) {
	s, err := New(Config{TCPAddr: "127.0.0.1:0", SessionConfig: session.Config{OwnName: "test-server"}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	addr := s.tcpLn.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	conn, err := net.DialTimeout("tcp", addr, time.Second)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	// The spawned Session immediately sends its HandShake; observing any
	// bytes confirms a Session was constructed and started for this
	// connection.
	conn.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, 1)
	if _, err := conn.Read(buf); err != nil {
		t.Fatalf("expected the server to send a HandShake, got: %v", err)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestNewRejectsBadAddress(t *testing.T) {
	if _, err := New(Config{TCPAddr: "not-an-address"}); err == nil {
		t.Fatal("expected error binding an invalid TCP address")
	}
}
