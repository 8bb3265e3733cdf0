package irctest

import (
	"bufio"
	"crypto/tls"
	"crypto/x509"
	"net"
	"strings"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	server, err := New(nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer server.Close()

	if server.listener == nil {
		t.Error("listener is nil")
	}

	host, port := server.HostPort()
	if host != "127.0.0.1" {
		t.Errorf("host = %q, want 127.0.0.1", host)
	}
	if port == 0 {
		t.Error("port is 0")
	}
}

func TestServer_Close(t *testing.T) {
	server, err := New(nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := server.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}

	if _, err := server.Accept(time.Second); err != ErrServerClosed {
		t.Errorf("expected ErrServerClosed, got %v", err)
	}
}

func TestServer_Accept_Timeout(t *testing.T) {
	server, err := New(nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer server.Close()

	if _, err := server.Accept(50 * time.Millisecond); err != ErrTimeout {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
}

func TestServer_LineExchange(t *testing.T) {
	server, err := New(nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer server.Close()

	conn, err := net.Dial("tcp", server.Addr().String())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	client, err := server.Accept(5 * time.Second)
	if err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	defer client.Close()

	if _, err := conn.Write([]byte("NICK a\r\nUSER a 0 * :A\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	lines, err := client.ReadLines(2, 5*time.Second)
	if err != nil {
		t.Fatalf("ReadLines failed: %v", err)
	}
	if lines[0] != "NICK a" || lines[1] != "USER a 0 * :A" {
		t.Errorf("lines = %q", lines)
	}

	if err := client.WriteLine("PING :x"); err != nil {
		t.Fatalf("WriteLine failed: %v", err)
	}
	got, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if got != "PING :x\r\n" {
		t.Errorf("got %q", got)
	}

	if _, err := client.ReadLine(50 * time.Millisecond); err != ErrTimeout {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
}

func TestServer_TLS(t *testing.T) {
	serverTLS, certPEM, err := SelfSignedTLS()
	if err != nil {
		t.Fatalf("SelfSignedTLS failed: %v", err)
	}

	server, err := New(serverTLS)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer server.Close()

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(certPEM) {
		t.Fatal("certificate not accepted by pool")
	}

	conn, err := tls.Dial("tcp", server.Addr().String(), &tls.Config{RootCAs: pool, ServerName: "127.0.0.1"})
	if err != nil {
		t.Fatalf("tls.Dial failed: %v", err)
	}
	defer conn.Close()

	client, err := server.Accept(5 * time.Second)
	if err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	defer client.Close()

	if _, err := conn.Write([]byte("QUIT\r\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	line, err := client.ReadLine(5 * time.Second)
	if err != nil {
		t.Fatalf("ReadLine failed: %v", err)
	}
	if !strings.EqualFold(line, "QUIT") {
		t.Errorf("line = %q, want QUIT", line)
	}
}
