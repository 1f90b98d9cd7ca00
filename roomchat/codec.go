package roomchat

import (
	"encoding/json"
	"fmt"
)

// Encode serializes an outgoing message into a JSON text frame.
func Encode(msg OutgoingMessage) ([]byte, error) {
	var frame any
	switch m := msg.(type) {
	case Identify:
		frame = identifyFrame{Username: m.Username}
	case ChatSend:
		frame = chatSendFrame{Type: typeChatMessage, Message: m.Text}
	default:
		return nil, NewError(ErrorSerialization, fmt.Sprintf("unsupported outgoing message %T", msg))
	}
	data, err := json.Marshal(frame)
	if err != nil {
		return nil, WrapError(ErrorSerialization, "encode outgoing message", err)
	}
	return data, nil
}

// Decode parses a server frame. It returns false for malformed payloads and
// for a missing or unknown type; those frames are dropped without an error.
func Decode(data []byte) (IncomingEvent, bool) {
	var in inboundFrame
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, false
	}
	switch in.Type {
	case typeChatMessage:
		return ChatMessage{Username: in.Username, UserID: in.UserID, Text: in.Message, Timestamp: in.Timestamp}, true
	case typeUserJoined:
		return UserJoined{Text: in.Message, Username: in.Username, Timestamp: in.Timestamp}, true
	case typeUserLeft:
		return UserLeft{Text: in.Message, Username: in.Username, Timestamp: in.Timestamp}, true
	case typeRoomInfo:
		users := in.Users
		if users == nil {
			users = []RosterEntry{}
		}
		return RoomInfo{Room: in.Room, Users: users}, true
	default:
		return nil, false
	}
}
