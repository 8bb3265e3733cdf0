// Command echo relays every message it sees back to where it came from,
// prefixed with the sender.
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/Zereker/irc"
	"github.com/Zereker/irc/example/internal/bot"
)

// reply builds the echo for m. Channel messages are echoed to the channel and
// private messages to the sender.
func reply(m *irc.Message) (irc.Message, bool) {
	if m.Command != irc.CmdPrivmsg || m.Source == "" || len(m.Params) < 2 {
		return irc.Message{}, false
	}

	target := m.Params[0]
	if !irc.IsChannel(target) {
		target = irc.ParsePrefix(m.Source).Nick
	}

	return irc.Message{
		Command:  irc.CmdPrivmsg,
		Params:   []string{target, m.Source + " sent: " + m.Params[1]},
		Trailing: true,
	}, true
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

	cfg, err := irc.LoadConfig(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	conn, err := irc.New(cfg, irc.LoggerOption(logger))
	if err != nil {
		logger.Error("failed to create connection", "error", err)
		os.Exit(1)
	}

	if err := conn.RegisterHandler(func(ev irc.Event) {
		switch ev.Kind {
		case irc.EventConnected:
			logger.Info("connected", "channel", cfg.Channel)
		case irc.EventDisconnected:
			logger.Info("disconnected", "cause", ev.Err)
		case irc.EventNewMessage:
			if m, ok := reply(ev.Message); ok {
				if err := conn.SendMessage(m); err != nil {
					logger.Warn("failed to echo", "target", m.Params[0], "error", err)
				}
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
