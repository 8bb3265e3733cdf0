package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zereker/irc"
)

const adminHost = "admin.example.org"

func parse(t *testing.T, line string) *irc.Message {
	t.Helper()
	m, ok := irc.ParseMessage(line)
	require.True(t, ok)
	return &m
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		reply   string
		granted bool
	}{
		{
			name:    "channel granted",
			line:    ":root!r@admin.example.org PRIVMSG #ops :!admin",
			reply:   "PRIVMSG #ops :root: Access Granted.",
			granted: true,
		},
		{
			name:  "channel denied",
			line:  ":mallory!m@evil.example.net PRIVMSG #ops :!admin please",
			reply: "PRIVMSG #ops :mallory: Access Denied.",
		},
		{
			name:    "private granted",
			line:    ":root!r@admin.example.org PRIVMSG botnick :!admin",
			reply:   "PRIVMSG root :root: Access Granted.",
			granted: true,
		},
		{
			name:  "local channel",
			line:  ":bob!b@home.example.net PRIVMSG &local :!admin",
			reply: "PRIVMSG &local :bob: Access Denied.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := check(adminHost, parse(t, tt.line))
			require.True(t, ok)
			assert.Equal(t, tt.reply, v.reply.String())
			assert.Equal(t, tt.granted, v.granted)
		})
	}
}

func TestCheck_Ignored(t *testing.T) {
	for _, line := range []string{
		":root!r@admin.example.org PRIVMSG #ops :hello",
		":root!r@admin.example.org NOTICE #ops :!admin",
		"PRIVMSG #ops :!admin",
		":irc.example.org PRIVMSG #ops :!admin",
		":root@admin.example.org PRIVMSG #ops :!admin",
		":root!r PRIVMSG #ops :!admin",
		":root!r@admin.example.org PRIVMSG root :!admin",
		":root!r@admin.example.org PRIVMSG #ops",
	} {
		_, ok := check(adminHost, parse(t, line))
		assert.False(t, ok, line)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
host: irc.example.org
user: bot
nick: adminbot
channel: "#ops"
admin_host: admin.example.org
`), 0o600))

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "irc.example.org", cfg.Host)
	assert.Equal(t, "adminbot", cfg.Nick)
	assert.Equal(t, "#ops", cfg.Channel)
	assert.Equal(t, adminHost, cfg.AdminHost)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_MissingAdminHost(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("host: irc.example.org\n"), 0o600))

	_, err := loadConfig(path)
	assert.ErrorContains(t, err, "admin_host is required")
}
