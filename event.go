package irc

import "sync"

// EventKind identifies what happened on a connection.
type EventKind int

const (
	EventConnecting   EventKind = iota + 1 // registration sent
	EventConnected                         // welcome received, auto-join issued
	EventDisconnected                      // session ended; Event.Err holds the cause
	EventNewMessage                        // post-registration line; Event.Message is set
)

func (k EventKind) String() string {
	switch k {
	case EventConnecting:
		return "connecting"
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventNewMessage:
		return "new_message"
	default:
		return "unknown"
	}
}

// Event is delivered to handlers registered on a Conn.
type Event struct {
	Kind    EventKind
	Message *Message
	// Err is nil for a local Disconnect, ErrNicknameInUse, a *ServerError,
	// ErrLineTooLong or a *TransportError otherwise.
	Err error
}

// HandlerFunc receives connection events. Handlers run on the goroutine that
// owns the session: the Connect caller for EventConnecting and the worker for
// everything after it, including the Disconnected event of a local Disconnect.
// Handlers of one Conn therefore never run concurrently. They may call Sendf.
type HandlerFunc func(Event)

// dispatcher invokes handlers synchronously in registration order.
type dispatcher struct {
	mu       sync.RWMutex
	handlers []HandlerFunc
}

func (d *dispatcher) register(h HandlerFunc) error {
	if d == nil || h == nil {
		return ErrInvalidArgument
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = append(d.handlers, h)
	return nil
}

func (d *dispatcher) unregisterAll() error {
	if d == nil {
		return ErrInvalidArgument
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = nil
	return nil
}

// post runs every handler before returning. The list is copied so handlers
// may register or unregister while being called.
func (d *dispatcher) post(ev Event) error {
	if d == nil {
		return ErrInvalidArgument
	}
	d.mu.RLock()
	handlers := d.handlers
	d.mu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
	return nil
}
