package irc

// State is the lifecycle position of a connection.
type State int32

const (
	StateError State = iota - 2
	StateDisconnected
	StateUnknown
	StateInit
	StateConnecting
	StateConnected
)

// active reports whether a session is established or being registered.
func (s State) active() bool {
	return s >= StateConnecting
}

func (s State) String() string {
	switch s {
	case StateError:
		return "error"
	case StateDisconnected:
		return "disconnected"
	case StateInit:
		return "init"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}
