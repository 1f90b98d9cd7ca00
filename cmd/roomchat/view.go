package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/vovakirdan/roomchat-sdk-go/roomchat"
)

// terminalView prints session output as plain lines.
type terminalView struct {
	out  io.Writer
	self string
}

func (v *terminalView) OnStatusChange(ev roomchat.StatusEvent) {
	if ev.Err != nil {
		fmt.Fprintf(v.out, "!! connection error: %v\n", ev.Err)
		return
	}
	fmt.Fprintf(v.out, "-- %s (%s)\n", statusLabel(ev.New), ev.Room)
}

func (v *terminalView) OnChatMessage(username, text, timestamp string) {
	who := username
	if username == v.self {
		who = username + " (you)"
	}
	fmt.Fprintf(v.out, "[%s] %s: %s\n", formatTime(timestamp), who, text)
}

func (v *terminalView) OnSystemMessage(text string) {
	fmt.Fprintf(v.out, "* %s\n", text)
}

func (v *terminalView) OnRosterUpdate(entries []roomchat.RosterEntry) {
	if len(entries) == 0 {
		return
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, fmt.Sprintf("%s (%s)", e.Username, e.UserID))
	}
	fmt.Fprintf(v.out, "-- %d users: %s\n", len(entries), strings.Join(names, ", "))
}

func (v *terminalView) OnRoomChanged(room string) {
	fmt.Fprintf(v.out, "\n== Room: %s\n", room)
}

func statusLabel(s roomchat.ConnectionState) string {
	switch s {
	case roomchat.StateConnected:
		return "Connected"
	case roomchat.StateConnecting:
		return "Connecting..."
	case roomchat.StateReconnecting:
		return "Reconnecting..."
	default:
		return "Disconnected"
	}
}

// formatTime renders server timestamps as HH:MM, falling back to the raw value.
func formatTime(ts string) string {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999"} {
		if t, err := time.Parse(layout, ts); err == nil {
			return t.Format("15:04")
		}
	}
	return ts
}
