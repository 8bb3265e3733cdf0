// Package irctest provides a loopback IRC server for exercising clients
// over real TCP and TLS sockets.
package irctest

import (
	"bufio"
	"crypto/tls"
	"errors"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"
)

// Errors returned by the test server.
var (
	// ErrTimeout is returned when no client or line arrives in time.
	ErrTimeout = errors.New("irctest: timeout")
	// ErrServerClosed is returned by Accept after Close.
	ErrServerClosed = errors.New("irctest: server closed")
)

// Server accepts client connections on 127.0.0.1 and hands them to the test.
type Server struct {
	listener net.Listener
	logger   *slog.Logger
	clients  chan *Client

	mu       sync.Mutex
	shutdown bool
}

// New starts a server on an ephemeral loopback port. A non-nil tlsConfig
// makes every accepted connection a TLS server session.
func New(tlsConfig *tls.Config) (*Server, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	if tlsConfig != nil {
		listener = tls.NewListener(listener, tlsConfig)
	}

	s := &Server{
		listener: listener,
		logger:   slog.Default(),
		clients:  make(chan *Client, 16),
	}

	go s.serve()
	return s, nil
}

func (s *Server) serve() {
	var handshakes sync.WaitGroup
	defer func() {
		handshakes.Wait()
		close(s.clients)
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.mu.Lock()
			isShutdown := s.shutdown
			s.mu.Unlock()

			if isShutdown {
				s.logger.Debug("test server stopped", "addr", s.listener.Addr())
				return
			}

			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			s.logger.Error("accept error", "error", err)
			return
		}

		s.logger.Debug("accepted connection", "remote_addr", conn.RemoteAddr())

		// TLS clients block in their handshake until the server side runs it.
		handshakes.Add(1)
		go func() {
			defer handshakes.Done()
			if tc, ok := conn.(*tls.Conn); ok {
				_ = tc.SetDeadline(time.Now().Add(5 * time.Second))
				if err := tc.Handshake(); err != nil {
					s.logger.Debug("tls handshake failed", "error", err)
					_ = conn.Close()
					return
				}
				_ = tc.SetDeadline(time.Time{})
			}
			s.clients <- &Client{conn: conn, reader: bufio.NewReader(conn)}
		}()
	}
}

// Accept returns the next connected client.
func (s *Server) Accept(timeout time.Duration) (*Client, error) {
	select {
	case c, ok := <-s.clients:
		if !ok {
			return nil, ErrServerClosed
		}
		return c, nil
	case <-time.After(timeout):
		return nil, ErrTimeout
	}
}

// Close stops accepting. Clients already handed out stay open.
func (s *Server) Close() error {
	s.mu.Lock()
	s.shutdown = true
	s.mu.Unlock()

	return s.listener.Close()
}

// Addr returns the listener's network address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// HostPort returns the address split for an IRC client configuration.
func (s *Server) HostPort() (string, int) {
	addr := s.listener.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port
}

// Client is the server side of one accepted connection.
type Client struct {
	conn   net.Conn
	reader *bufio.Reader
}

// ReadLine returns the next line without its terminator.
func (c *Client) ReadLine(timeout time.Duration) (string, error) {
	_ = c.conn.SetReadDeadline(time.Now().Add(timeout))

	line, err := c.reader.ReadString('\n')
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return "", ErrTimeout
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// ReadLines reads n lines.
func (c *Client) ReadLines(n int, timeout time.Duration) ([]string, error) {
	lines := make([]string, 0, n)
	for i := 0; i < n; i++ {
		line, err := c.ReadLine(timeout)
		if err != nil {
			return lines, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// WriteLine sends line followed by CRLF.
func (c *Client) WriteLine(line string) error {
	return c.WriteRaw(line + "\r\n")
}

// WriteRaw sends data unchanged, for exercising fragmented input.
func (c *Client) WriteRaw(data string) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	_, err := io.WriteString(c.conn, data)
	return err
}

// Close closes the connection, which the client observes as EOF.
func (c *Client) Close() error {
	return c.conn.Close()
}
