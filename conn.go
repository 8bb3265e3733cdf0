// Package irc provides an embeddable IRC client engine.
// It reassembles protocol lines from a TCP or TLS stream, runs the registration
// handshake and keepalive, and delivers decoded events to registered handlers.
package irc

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Conn is a single client session with one IRC server.
//
// Exactly one worker goroutine reads from the transport while a session is
// active. Handlers run on that goroutine and may send; sends from other
// goroutines are serialized with the worker's.
type Conn struct {
	id     string
	cfg    Config
	opts   options
	logger Logger

	events  dispatcher
	state   atomic.Int32
	running atomic.Bool
	closed  atomic.Bool

	tmu       sync.Mutex // guards transport
	transport Transport

	wmu     sync.Mutex // serializes sends and owns sendBuf
	sendBuf [MaxMessageLength + 2]byte

	gmu   sync.Mutex
	group *errgroup.Group

	// pmu guards the hand-off of a locally requested Disconnected event to
	// the goroutine that owns the session, so handlers never overlap.
	pmu            sync.Mutex
	owned          bool
	pendingDisconnect bool
}

// New validates cfg and returns a connection in StateInit.
// It returns an error wrapping ErrInvalidConfig if host, user or nick is empty.
func New(cfg Config, opt ...Option) (*Conn, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var opts options
	for _, o := range opt {
		o(&opts)
	}
	checkOptions(&opts)

	id := uuid.NewString()
	c := &Conn{
		id:     id,
		cfg:    cfg.withDefaults(),
		opts:   opts,
		logger: withAttrs(opts.logger, "conn_id", id),
	}
	c.state.Store(int32(StateInit))

	return c, nil
}

// ID returns the identifier attached to this connection's log records.
func (c *Conn) ID() string {
	return c.id
}

// Config returns the effective configuration, defaults applied.
func (c *Conn) Config() Config {
	return c.cfg
}

// State returns the current lifecycle state.
func (c *Conn) State() State {
	return State(c.state.Load())
}

// RegisterHandler adds h to the handlers invoked for every event.
func (c *Conn) RegisterHandler(h HandlerFunc) error {
	if c == nil {
		return ErrInvalidArgument
	}
	return c.events.register(h)
}

// UnregisterHandlers removes all registered handlers.
func (c *Conn) UnregisterHandlers() error {
	if c == nil {
		return ErrInvalidArgument
	}
	return c.events.unregisterAll()
}

// Connect dials the server, sends the registration handshake and starts the
// worker. ctx bounds the dial only; the session lasts until Disconnect or a
// transport failure. It returns ErrAlreadyRunning while a worker is active.
func (c *Conn) Connect(ctx context.Context) error {
	if c.closed.Load() {
		return ErrConnectionClosed
	}
	if !c.running.CompareAndSwap(false, true) {
		c.logger.Error("connect called while running")
		return ErrAlreadyRunning
	}

	c.logger.Debug("connecting",
		"addr", c.cfg.Addr(),
		"user", c.cfg.User,
		"nick", c.cfg.Nick,
		"tls", c.cfg.TLS)

	t, err := c.opts.dialer.Dial(ctx, &c.cfg)
	if err != nil {
		c.running.Store(false)
		c.logger.Error("dial failed", "addr", c.cfg.Addr(), "error", err)
		return &TransportError{Op: "dial", Err: err}
	}

	c.tmu.Lock()
	c.transport = t
	c.tmu.Unlock()
	c.acquire()
	c.state.Store(int32(StateConnecting))

	if err := c.register(); err != nil {
		c.logger.Error("registration failed", "error", err)
		_ = c.closeTransport()
		// A concurrent Disconnect may already have settled the state.
		c.state.CompareAndSwap(int32(StateConnecting), int32(StateError))
		c.release()
		c.running.Store(false)
		return err
	}

	c.logger.Info("connection established", "addr", c.cfg.Addr())
	_ = c.events.post(Event{Kind: EventConnecting})

	group := new(errgroup.Group)
	c.gmu.Lock()
	c.group = group
	c.gmu.Unlock()

	group.Go(func() error {
		defer c.running.Store(false)
		err := c.readLoop(t)
		c.release()
		return err
	})

	return nil
}

// register sends PASS (when configured), USER and NICK.
func (c *Conn) register() error {
	if c.cfg.Password != "" {
		if err := c.Sendf("%s %s", CmdPass, c.cfg.Password); err != nil {
			return err
		}
	}
	if err := c.Sendf("%s %s 0 * :%s", CmdUser, c.cfg.User, c.cfg.Realname); err != nil {
		return err
	}
	return c.Sendf("%s %s", CmdNick, c.cfg.Nick)
}

// Run connects and blocks until the session ends or ctx is canceled.
// Cancellation disconnects and Run returns ctx.Err().
func (c *Conn) Run(ctx context.Context) error {
	if err := c.Connect(ctx); err != nil {
		return err
	}

	done := make(chan struct{})
	var group errgroup.Group

	group.Go(func() error {
		defer close(done)
		return c.Wait()
	})

	group.Go(func() error {
		select {
		case <-ctx.Done():
			_ = c.Disconnect()
			<-done
			return ctx.Err()
		case <-done:
			return nil
		}
	})

	return group.Wait()
}

// Wait blocks until the worker exits. It returns nil after a local
// Disconnect and the disconnect cause otherwise.
func (c *Conn) Wait() error {
	c.gmu.Lock()
	group := c.group
	c.gmu.Unlock()

	if group == nil {
		return nil
	}
	return group.Wait()
}

// Disconnect sends QUIT, closes the transport and moves to StateDisconnected.
// It returns ErrNotConnected, leaving the state unchanged, when no session is
// connecting or connected. EventDisconnected is posted by the worker once it
// stops, so it may arrive after Disconnect returns; Wait observes it.
func (c *Conn) Disconnect() error {
	if !c.State().active() {
		c.logger.Error("disconnect called while not connected", "state", c.State())
		return ErrNotConnected
	}
	return c.teardown(StateDisconnected, nil, true, true)
}

// Close releases the connection. The worker must have exited; use Disconnect
// and Wait first. A closed connection cannot be reconnected.
func (c *Conn) Close() error {
	if c.running.Load() {
		return ErrAlreadyRunning
	}
	if c.closed.Swap(true) {
		return nil // already closed
	}

	_ = c.events.unregisterAll()
	err := c.closeTransport()
	c.state.Store(int32(StateUnknown))
	return err
}

// teardown ends the session exactly once, whichever of the worker or a
// Disconnect caller gets there first. A local teardown leaves the
// Disconnected event to the session owner when there is one.
func (c *Conn) teardown(final State, cause error, quit, local bool) error {
	for {
		s := c.State()
		if !s.active() {
			return ErrNotConnected
		}
		if c.state.CompareAndSwap(int32(s), int32(final)) {
			break
		}
	}

	if quit {
		if err := c.Sendf(CmdQuit); err != nil {
			c.logger.Debug("quit not sent", "error", err)
		}
	}

	err := c.closeTransport()
	if err != nil {
		c.logger.Error("failed to close transport", "error", err)
	}

	if cause != nil {
		c.logger.Info("disconnected", "state", final, "cause", cause)
	} else {
		c.logger.Info("disconnected", "state", final)
	}
	if local && c.handOff() {
		return err
	}
	_ = c.events.post(Event{Kind: EventDisconnected, Err: cause})

	return err
}

// acquire marks the calling goroutine, then the worker it starts, as the
// owner of the session's event stream.
func (c *Conn) acquire() {
	c.pmu.Lock()
	c.owned = true
	c.pendingDisconnect = false
	c.pmu.Unlock()
}

// release ends ownership and posts a Disconnected event handed off by a
// local Disconnect.
func (c *Conn) release() {
	c.pmu.Lock()
	c.owned = false
	pending := c.pendingDisconnect
	c.pendingDisconnect = false
	c.pmu.Unlock()

	if pending {
		_ = c.events.post(Event{Kind: EventDisconnected})
	}
}

// handOff reports whether an owner will post the Disconnected event.
func (c *Conn) handOff() bool {
	c.pmu.Lock()
	defer c.pmu.Unlock()
	if !c.owned {
		return false
	}
	c.pendingDisconnect = true
	return true
}

func (c *Conn) closeTransport() error {
	c.tmu.Lock()
	t := c.transport
	c.transport = nil
	c.tmu.Unlock()

	if t == nil {
		return nil
	}
	if err := t.Close(); err != nil {
		return &TransportError{Op: "close", Err: err}
	}
	return nil
}

// readLoop is the worker. It returns the disconnect cause, or nil when the
// session was ended locally.
func (c *Conn) readLoop(t Transport) error {
	c.logger.Debug("worker started",
		"receive_buffer", humanize.IBytes(uint64(c.cfg.ReceiveBufferSize)),
		"max_line_buffer", humanize.IBytes(uint64(c.cfg.MaxLineBuffer)))

	rbuf := make([]byte, c.cfg.ReceiveBufferSize)
	lines := newLineBuffer(c.cfg.ReceiveBufferSize, c.cfg.MaxLineBuffer)

	var received uint64
	defer func() {
		c.logger.Debug("worker stopped", "received", humanize.IBytes(received))
	}()

	for c.State().active() {
		n, err := t.Read(rbuf)
		if n > 0 {
			received += uint64(n)

			batch, ferr := lines.feed(rbuf[:n])
			if ferr != nil {
				c.logger.Error("line reassembly failed", "pending", lines.pending(), "error", ferr)
				_ = c.teardown(StateError, ferr, false, false)
				return ferr
			}
			if batch == nil {
				c.logger.Debug("waiting for line terminator", "pending", lines.pending())
			}

			for _, line := range batch {
				if !c.State().active() {
					return nil
				}
				if herr := c.handleLine(line); herr != nil {
					return herr
				}
			}
		}

		if err != nil {
			if !c.State().active() {
				return nil
			}

			terr := &TransportError{Op: "read", Err: err}
			if errors.Is(err, io.EOF) {
				c.logger.Info("server closed connection")
				_ = c.teardown(StateDisconnected, terr, false, false)
			} else {
				c.logger.Error("read failed", "error", err)
				_ = c.teardown(StateError, terr, false, false)
			}
			return terr
		}
	}

	return nil
}

// handleLine drives the state machine for one line. A non-nil error means the
// session has been torn down and the worker must stop.
func (c *Conn) handleLine(line string) error {
	c.logger.Debug(">>", "line", line)

	msg, ok := ParseMessage(line)
	if !ok {
		return nil
	}

	switch msg.Command {
	case CmdPing:
		pong := Message{Command: CmdPong, Params: msg.Params, Trailing: msg.Trailing}
		if err := c.SendMessage(pong); err != nil {
			c.logger.Warn("failed to answer ping", "error", err)
		}
		return nil
	case CmdError:
		cause := &ServerError{Reason: msg.Last()}
		c.logger.Error("server error", "reason", cause.Reason)
		_ = c.teardown(StateDisconnected, cause, true, false)
		return cause
	}

	switch c.State() {
	case StateConnecting:
		switch msg.Command {
		case NumWelcome:
			c.welcome()
		case NumNicknameInUse:
			c.logger.Error("nick is already in use", "nick", c.cfg.Nick)
			_ = c.teardown(StateDisconnected, ErrNicknameInUse, true, false)
			return ErrNicknameInUse
		}
	case StateConnected:
		_ = c.events.post(Event{Kind: EventNewMessage, Message: &msg})
	}

	return nil
}

// welcome completes registration.
func (c *Conn) welcome() {
	if !c.state.CompareAndSwap(int32(StateConnecting), int32(StateConnected)) {
		return
	}

	if c.cfg.Channel != "" {
		if err := c.Sendf("%s %s", CmdJoin, c.cfg.Channel); err != nil {
			c.logger.Warn("auto-join failed", "channel", c.cfg.Channel, "error", err)
		}
	}

	c.logger.Info("registered", "nick", c.cfg.Nick)
	_ = c.events.post(Event{Kind: EventConnected})
}
