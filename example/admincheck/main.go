// Command admincheck answers "!admin" with whether the sender connects from
// the configured admin host.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/Zereker/irc"
	"github.com/Zereker/irc/example/internal/bot"
)

const adminCommand = "!admin"

type config struct {
	irc.Config `yaml:",inline"`
	AdminHost  string `yaml:"admin_host"`
}

func loadConfig(filename string) (config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return config{}, errors.Wrap(err, "failed to read config file")
	}

	var cfg config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return config{}, errors.Wrap(err, "failed to parse config file")
	}
	if cfg.AdminHost == "" {
		return config{}, errors.New("admin_host is required")
	}
	return cfg, nil
}

// verdict is the outcome of one "!admin" request.
type verdict struct {
	reply   irc.Message
	nick    string
	host    string
	granted bool
}

// check decides whether m is an admin request and builds the answer.
// Channel requests are answered in the channel, private ones to the sender.
func check(adminHost string, m *irc.Message) (verdict, bool) {
	if m.Command != irc.CmdPrivmsg || m.Source == "" || len(m.Params) < 2 {
		return verdict{}, false
	}
	if !strings.HasPrefix(m.Params[1], adminCommand) {
		return verdict{}, false
	}
	if !strings.Contains(m.Source, "!") {
		return verdict{}, false
	}

	p := irc.ParsePrefix(m.Source)
	if p.Host == "" {
		return verdict{}, false
	}

	target := m.Params[0]
	if p.Nick == target {
		return verdict{}, false
	}
	if !irc.IsChannel(target) {
		target = p.Nick
	}

	v := verdict{nick: p.Nick, host: p.Host, granted: p.Host == adminHost}
	result := "Denied"
	if v.granted {
		result = "Granted"
	}
	v.reply = irc.Message{
		Command:  irc.CmdPrivmsg,
		Params:   []string{target, fmt.Sprintf("%s: Access %s.", p.Nick, result)},
		Trailing: true,
	}
	return v, true
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	debug := flag.Bool("debug", false, "log protocol traffic")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	conn, err := irc.New(cfg.Config, irc.LoggerOption(logger))
	if err != nil {
		logger.Error("failed to create connection", "error", err)
		os.Exit(1)
	}

	if err := conn.RegisterHandler(func(ev irc.Event) {
		switch ev.Kind {
		case irc.EventConnecting:
			logger.Info("connecting to irc")
		case irc.EventConnected:
			logger.Info("connected to irc")
		case irc.EventDisconnected:
			logger.Info("disconnected from irc", "cause", ev.Err)
		case irc.EventNewMessage:
			v, ok := check(cfg.AdminHost, ev.Message)
			if !ok {
				return
			}
			if v.granted {
				logger.Info("GRANTED", "nick", v.nick, "host", v.host)
			} else {
				logger.Info("DENIED", "nick", v.nick, "host", v.host)
			}
			if err := conn.SendMessage(v.reply); err != nil {
				logger.Warn("failed to answer", "nick", v.nick, "error", err)
			}
		}
	}); err != nil {
		logger.Error("failed to register handler", "error", err)
		os.Exit(1)
	}

	ctx, cancel := bot.SignalContext(logger)
	defer cancel()

	sup := &bot.Supervisor{Conn: conn, Logger: logger}
	if err := sup.Run(ctx); err != nil {
		logger.Error("client error", "error", err)
	}
	_ = conn.Close()
}
