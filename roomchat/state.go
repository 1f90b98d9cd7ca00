package roomchat

// ConnectionState represents where the connection manager is in its lifecycle.
type ConnectionState int

const (
	// StateDisconnected means no transport is open and no retry is pending.
	StateDisconnected ConnectionState = iota

	// StateConnecting means a transport is being opened for the current room.
	StateConnecting

	// StateConnected means the transport finished its open handshake.
	StateConnected

	// StateReconnecting means a single delayed retry is scheduled.
	StateReconnecting
)

// String returns the string representation of a ConnectionState.
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// StatusEvent is delivered to the view on every state transition.
// Transport errors that do not change state are reported with Old == New and Err set.
type StatusEvent struct {
	Old    ConnectionState
	New    ConnectionState
	Room   string
	ConnID string // empty when no handle is involved
	Err    error
}

// Transition reports whether the event moved the manager to a different state.
func (e StatusEvent) Transition() bool { return e.Old != e.New }
