package irc

import (
	"strings"
)

// Commands and numeric replies the engine acts on.
const (
	CmdPass    = "PASS"
	CmdUser    = "USER"
	CmdNick    = "NICK"
	CmdJoin    = "JOIN"
	CmdQuit    = "QUIT"
	CmdPing    = "PING"
	CmdPong    = "PONG"
	CmdError   = "ERROR"
	CmdPrivmsg = "PRIVMSG"

	NumWelcome       = "001"
	NumNicknameInUse = "433"
)

// MaxMessageLength is the longest line body that may be sent. With the CRLF
// terminator it fills the 512-byte protocol limit.
const MaxMessageLength = 510

// Message is one decoded protocol line.
//
// When Trailing is set, the last element of Params was introduced by a colon
// and may contain spaces. No other parameter contains a space.
type Message struct {
	Source   string // empty when the line has no prefix
	Command  string
	Params   []string
	Trailing bool
}

// ParseMessage tokenizes a single line without its terminator. It reports
// false for empty lines and lines without a command.
//
// Parameters are split on single spaces. Repeated spaces therefore produce
// empty parameters, which are kept in position.
func ParseMessage(line string) (Message, bool) {
	var m Message

	rest := line
	if strings.HasPrefix(rest, ":") {
		rest = rest[1:]
		i := strings.IndexByte(rest, ' ')
		if i < 0 {
			return Message{}, false
		}
		m.Source, rest = rest[:i], rest[i+1:]
	}

	rest = strings.TrimLeft(rest, " ")
	if rest == "" {
		return Message{}, false
	}

	i := strings.IndexByte(rest, ' ')
	if i < 0 {
		m.Command = rest
		return m, true
	}
	m.Command, rest = rest[:i], rest[i+1:]

	for {
		if strings.HasPrefix(rest, ":") {
			m.Params = append(m.Params, rest[1:])
			m.Trailing = true
			return m, true
		}
		i = strings.IndexByte(rest, ' ')
		if i < 0 {
			m.Params = append(m.Params, rest)
			return m, true
		}
		m.Params = append(m.Params, rest[:i])
		rest = rest[i+1:]
	}
}

// Param returns the i-th parameter or "" when there is none.
func (m *Message) Param(i int) string {
	if i < 0 || i >= len(m.Params) {
		return ""
	}
	return m.Params[i]
}

// Last returns the final parameter, usually the text of the line.
func (m *Message) Last() string {
	return m.Param(len(m.Params) - 1)
}

// String formats the message as a wire line without terminator.
func (m Message) String() string {
	var sb strings.Builder
	if m.Source != "" {
		sb.WriteByte(':')
		sb.WriteString(m.Source)
		sb.WriteByte(' ')
	}
	sb.WriteString(m.Command)
	for i, p := range m.Params {
		sb.WriteByte(' ')
		if m.Trailing && i == len(m.Params)-1 {
			sb.WriteByte(':')
		}
		sb.WriteString(p)
	}
	return sb.String()
}

// Prefix is a message source split into its parts. Server sources only have Nick set.
type Prefix struct {
	Nick string
	User string
	Host string
}

// ParsePrefix splits nick!user@host. Missing parts are left empty.
func ParsePrefix(source string) Prefix {
	var p Prefix
	rest := source
	if i := strings.IndexByte(rest, '@'); i >= 0 {
		p.Host = rest[i+1:]
		rest = rest[:i]
	}
	if i := strings.IndexByte(rest, '!'); i >= 0 {
		p.User = rest[i+1:]
		rest = rest[:i]
	}
	p.Nick = rest
	return p
}

// IsChannel reports whether target names a channel rather than a nick.
func IsChannel(target string) bool {
	return strings.HasPrefix(target, "#") || strings.HasPrefix(target, "&")
}
