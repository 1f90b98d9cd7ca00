package roomchat

const (
	typeChatMessage = "chat_message"
	typeUserJoined  = "user_joined"
	typeUserLeft    = "user_left"
	typeRoomInfo    = "room_info"
)

// OutgoingMessage is a frame the client sends. Implemented by Identify and ChatSend.
type OutgoingMessage interface {
	outgoing()
}

// Identify announces the username. It is the first frame on every connection.
type Identify struct {
	Username string
}

// ChatSend publishes a chat line to the current room.
type ChatSend struct {
	Text string
}

func (Identify) outgoing() {}
func (ChatSend) outgoing() {}

// IncomingEvent is a decoded server push. Implemented by ChatMessage,
// UserJoined, UserLeft and RoomInfo.
type IncomingEvent interface {
	incoming()
}

// ChatMessage is a chat line broadcast to the room, including our own.
type ChatMessage struct {
	Username  string
	UserID    string
	Text      string
	Timestamp string // server-formatted, passed through untouched
}

// UserJoined is the server notice that someone entered the room.
type UserJoined struct {
	Text      string
	Username  string
	Timestamp string
}

// UserLeft is the server notice that someone left the room.
type UserLeft struct {
	Text      string
	Username  string
	Timestamp string
}

// RoomInfo is a full roster snapshot.
type RoomInfo struct {
	Room  string
	Users []RosterEntry
}

// RosterEntry is one user present in a room. UserID is unique within a snapshot.
type RosterEntry struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	JoinedAt string `json:"joined_at,omitempty"`
}

func (ChatMessage) incoming() {}
func (UserJoined) incoming()  {}
func (UserLeft) incoming()    {}
func (RoomInfo) incoming()    {}

// wire shapes

type identifyFrame struct {
	Username string `json:"username"`
}

type chatSendFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// inboundFrame is the union of every server push; Type selects which fields apply.
type inboundFrame struct {
	Type      string        `json:"type"`
	Username  string        `json:"username,omitempty"`
	UserID    string        `json:"user_id,omitempty"`
	Message   string        `json:"message,omitempty"`
	Timestamp string        `json:"timestamp,omitempty"`
	Room      string        `json:"room,omitempty"`
	Users     []RosterEntry `json:"users,omitempty"`
}
