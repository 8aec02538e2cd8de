package websocket

import (
	"encoding/json"
)

// Event имя события в кадре.
type Event string

const (
	// Входящие
	EventJoinRoom    Event = "join_room"
	EventLeaveRoom   Event = "leave_room"
	EventSendMessage Event = "send_message"

	// Исходящие
	EventReceiveMessage Event = "receive_message"
	EventMessageDeleted Event = "message_deleted"
	EventError          Event = "error"
)

// Message кадр websocket в обе стороны: {"event": ..., "data": ...}.
type Message struct {
	Event Event           `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Encode собирает кадр с заданным событием.
func Encode(event Event, data interface{}) ([]byte, error) {
	msg := Message{Event: event}

	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		msg.Data = raw
	}

	return json.Marshal(msg)
}
