package irc

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// Sendf formats one protocol line and writes it with a CRLF terminator.
//
// Lines longer than MaxMessageLength fail with ErrMessageTooLong and lines
// containing CR, LF or NUL fail with ErrInvalidArgument; neither touches the
// transport. A failed or short write returns a *TransportError.
func (c *Conn) Sendf(format string, args ...any) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()

	return c.writeLocked(fmt.Appendf(c.sendBuf[:0], format, args...))
}

// SendMessage writes m in wire syntax.
func (c *Conn) SendMessage(m Message) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()

	return c.writeLocked(append(c.sendBuf[:0], m.String()...))
}

// Privmsg sends text to a channel or nick.
func (c *Conn) Privmsg(target, text string) error {
	return c.SendMessage(Message{
		Command:  CmdPrivmsg,
		Params:   []string{target, text},
		Trailing: true,
	})
}

// writeLocked must be called with wmu held.
func (c *Conn) writeLocked(line []byte) error {
	if len(line) > MaxMessageLength {
		return errors.WithMessagef(ErrMessageTooLong, "%d bytes", len(line))
	}
	if bytes.ContainsAny(line, "\r\n\x00") {
		return errors.WithMessage(ErrInvalidArgument, "line contains a line break or NUL")
	}

	c.tmu.Lock()
	t := c.transport
	c.tmu.Unlock()
	if t == nil {
		return ErrNotConnected
	}

	if bytes.HasPrefix(line, []byte(CmdPass+" ")) {
		c.logger.Debug("<<", "line", CmdPass+" ********")
	} else {
		c.logger.Debug("<<", "line", string(line))
	}

	line = append(line, '\r', '\n')
	n, err := t.Write(line)
	if err != nil {
		c.logger.Error("failed to send message", "error", err)
		return &TransportError{Op: "write", Err: err}
	}
	if n != len(line) {
		return &TransportError{Op: "write", Err: io.ErrShortWrite}
	}
	return nil
}
