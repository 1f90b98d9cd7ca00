package roomchat

// dispatcher routes decoded events to the view and the roster, in arrival order.
type dispatcher struct {
	view     View
	presence *presence
}

func (d *dispatcher) dispatch(ev IncomingEvent) {
	switch e := ev.(type) {
	case ChatMessage:
		d.view.OnChatMessage(e.Username, e.Text, e.Timestamp)
	case UserJoined:
		d.view.OnSystemMessage(e.Text)
	case UserLeft:
		d.view.OnSystemMessage(e.Text)
	case RoomInfo:
		d.presence.replace(e)
	}
}
