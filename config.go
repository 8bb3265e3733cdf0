package irc

import (
	"crypto/tls"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Default configuration values.
const (
	// DefaultPort is the plain-text IRC port.
	DefaultPort = 6667
	// defaultReceiveBufferSize is the size of a single transport read.
	defaultReceiveBufferSize = 512
	// defaultMaxLineBuffer bounds unterminated input held between reads (8KiB).
	defaultMaxLineBuffer = 8 * 1024
)

// Config describes one IRC session. It is copied by New and never mutated afterwards.
type Config struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Nick     string `yaml:"nick"`
	Password string `yaml:"password"`
	// Realname defaults to Nick.
	Realname string `yaml:"realname"`
	// Channel is joined once the server sends the welcome reply.
	Channel string `yaml:"channel"`

	TLS bool `yaml:"tls"`
	// CAFile is a PEM bundle used instead of the system roots.
	CAFile string `yaml:"ca_file"`
	// TLSConfig overrides the trust policy entirely (nil for defaults).
	TLSConfig *tls.Config `yaml:"-"`
	// DialTimeout bounds the TCP connect and TLS handshake. Zero means no limit.
	DialTimeout time.Duration `yaml:"dial_timeout"`

	ReceiveBufferSize int `yaml:"receive_buffer_size"` // bytes per transport read
	MaxLineBuffer     int `yaml:"max_line_buffer"`     // unterminated bytes held before failing
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "failed to parse config file")
	}

	return cfg, nil
}

// Validate checks that the required fields are present.
func (c *Config) Validate() error {
	if c.Host == "" {
		return errors.WithMessage(ErrInvalidConfig, "host is required")
	}
	if c.User == "" {
		return errors.WithMessage(ErrInvalidConfig, "user is required")
	}
	if c.Nick == "" {
		return errors.WithMessage(ErrInvalidConfig, "nick is required")
	}
	if c.Port < 0 || c.Port > 65535 {
		return errors.WithMessagef(ErrInvalidConfig, "invalid port: %d", c.Port)
	}
	if c.ReceiveBufferSize < 0 || c.MaxLineBuffer < 0 {
		return errors.WithMessage(ErrInvalidConfig, "buffer sizes must not be negative")
	}
	return nil
}

// withDefaults fills unset optional fields.
func (c Config) withDefaults() Config {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Realname == "" {
		c.Realname = c.Nick
	}
	if c.ReceiveBufferSize == 0 {
		c.ReceiveBufferSize = defaultReceiveBufferSize
	}
	if c.MaxLineBuffer == 0 {
		c.MaxLineBuffer = defaultMaxLineBuffer
	}
	if c.MaxLineBuffer < c.ReceiveBufferSize {
		c.MaxLineBuffer = c.ReceiveBufferSize
	}
	return c
}

// Addr returns the host:port pair to dial.
func (c *Config) Addr() string {
	port := c.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}
