package roomchat

// View renders session output. All methods are called on the session's event
// loop, in the order events occur, and must not call back into the Session
// synchronously.
type View interface {
	OnStatusChange(ev StatusEvent)
	OnChatMessage(username, text, timestamp string)
	OnSystemMessage(text string)
	OnRosterUpdate(entries []RosterEntry)
	// OnRoomChanged tells the view to clear its message list and show room.
	OnRoomChanged(room string)
}

// NopView ignores everything. Embed it to implement only part of View.
type NopView struct{}

func (NopView) OnStatusChange(StatusEvent)           {}
func (NopView) OnChatMessage(string, string, string) {}
func (NopView) OnSystemMessage(string)               {}
func (NopView) OnRosterUpdate([]RosterEntry)         {}
func (NopView) OnRoomChanged(string)                 {}

// Metrics observes the connection lifecycle. States are passed by name so
// implementations need not import this package.
type Metrics interface {
	StateChanged(from, to string)
	ReconnectScheduled(room string)
	FrameSent()
	FrameReceived(kind string)
	FrameDropped()
}

type nopMetrics struct{}

func (nopMetrics) StateChanged(string, string) {}
func (nopMetrics) ReconnectScheduled(string)   {}
func (nopMetrics) FrameSent()                  {}
func (nopMetrics) FrameReceived(string)        {}
func (nopMetrics) FrameDropped()               {}
