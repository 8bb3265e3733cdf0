package irc

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"io"
	"net"
	"os"

	"github.com/pkg/errors"
)

// Transport is the byte stream a session runs over.
//
// Read blocks until at least one byte is available; io.EOF reports an orderly
// remote close and any other error a fault. Close unblocks a pending Read.
type Transport interface {
	io.ReadWriteCloser
}

// Dialer opens a Transport for a configuration.
type Dialer interface {
	Dial(ctx context.Context, cfg *Config) (Transport, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context, cfg *Config) (Transport, error)

// Dial calls f(ctx, cfg).
func (f DialerFunc) Dial(ctx context.Context, cfg *Config) (Transport, error) {
	return f(ctx, cfg)
}

// defaultDialer picks the backend from Config.TLS at connect time.
type defaultDialer struct{}

func (defaultDialer) Dial(ctx context.Context, cfg *Config) (Transport, error) {
	if cfg.TLS {
		return tlsDialer{}.Dial(ctx, cfg)
	}
	return tcpDialer{}.Dial(ctx, cfg)
}

// tcpDialer opens a plain stream socket.
type tcpDialer struct{}

func (tcpDialer) Dial(ctx context.Context, cfg *Config) (Transport, error) {
	d := net.Dialer{Timeout: cfg.DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", cfg.Addr())
	if err != nil {
		return nil, err
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.SetNoDelay(true)
	}
	return conn, nil
}

// tlsDialer negotiates TLS over the same endpoint.
type tlsDialer struct{}

func (tlsDialer) Dial(ctx context.Context, cfg *Config) (Transport, error) {
	tlsConfig, err := clientTLSConfig(cfg)
	if err != nil {
		return nil, err
	}

	d := tls.Dialer{
		NetDialer: &net.Dialer{Timeout: cfg.DialTimeout},
		Config:    tlsConfig,
	}
	conn, err := d.DialContext(ctx, "tcp", cfg.Addr())
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// clientTLSConfig builds the trust policy: an explicit *tls.Config wins, then a
// CA bundle file, then the system roots.
func clientTLSConfig(cfg *Config) (*tls.Config, error) {
	var tlsConfig *tls.Config
	if cfg.TLSConfig != nil {
		tlsConfig = cfg.TLSConfig.Clone()
	} else {
		tlsConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	if tlsConfig.ServerName == "" {
		tlsConfig.ServerName = cfg.Host
	}

	if cfg.CAFile != "" && tlsConfig.RootCAs == nil {
		pem, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, errors.Wrap(err, "read ca bundle")
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, errors.Errorf("no certificates found in %s", cfg.CAFile)
		}
		tlsConfig.RootCAs = pool
	}

	return tlsConfig, nil
}
