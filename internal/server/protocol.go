// Package server defines the JSON wire protocol exchanged with chat clients:
// the inbound message envelope and the outbound notification payloads.
package server

import (
	"encoding/json"
	"log"
	"strings"
)

// Inbound message types recognized by the dispatcher.
const (
	TypeUserConnect = "user_connect"
	TypeRoomJoin    = "room_join"
	TypeMessageSend = "message_send"
	TypeRoomLeave   = "room_leave"
)

// Outbound message types produced by the hub.
const (
	TypeUserConnected  = "user_connected"
	TypeUserJoined     = "user_joined"
	TypeRoomJoined     = "room_joined"
	TypeMessageReceive = "message_receive"
	TypeUserLeft       = "user_left"
	TypeError          = "error"
)

// envelope is the superset of fields a client may send. The dispatcher only
// requires Type; each handler validates the fields it needs.
type envelope struct {
	Type      string `json:"type"`
	Username  string `json:"username"`
	RoomID    string `json:"room_id"`
	Text      string `json:"text"`
	MessageID string `json:"message_id"`
}

// userConnectedMessage acknowledges a user_connect to the requesting
// connection only.
type userConnectedMessage struct {
	Type        string `json:"type"`
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	OnlineUsers int    `json:"online_users"`
}

// roomEventMessage carries the user_joined, room_joined, and user_left
// notifications, which share a shape.
type roomEventMessage struct {
	Type       string `json:"type"`
	RoomID     string `json:"room_id"`
	Username   string `json:"username"`
	UsersCount int    `json:"users_count"`
}

// messageReceiveMessage relays a chat message to every member of a room.
// Timestamp is seconds since epoch, formatted as a decimal string.
type messageReceiveMessage struct {
	Type      string `json:"type"`
	RoomID    string `json:"room_id"`
	MessageID string `json:"message_id"`
	Username  string `json:"username"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

type errorData struct {
	Message string `json:"message"`
}

// errorMessage is the reply sent to a connection whose inbound message could
// not be processed. The reason lives under data.message.
type errorMessage struct {
	Type string    `json:"type"`
	Data errorData `json:"data"`
}

// mustMarshal serializes an outbound payload. The payload types above contain
// nothing json.Marshal can reject, so a failure indicates a programming error
// and is logged rather than propagated.
func mustMarshal(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("Failed to marshal outbound message %T: %v", v, err)
		return nil
	}
	return data
}

func encodeUserConnected(userID, username string, onlineUsers int) []byte {
	return mustMarshal(userConnectedMessage{
		Type:        TypeUserConnected,
		UserID:      userID,
		Username:    username,
		OnlineUsers: onlineUsers,
	})
}

func encodeRoomEvent(msgType, roomID, username string, usersCount int) []byte {
	return mustMarshal(roomEventMessage{
		Type:       msgType,
		RoomID:     roomID,
		Username:   username,
		UsersCount: usersCount,
	})
}

func encodeMessageReceive(roomID, messageID, username, text, timestamp string) []byte {
	return mustMarshal(messageReceiveMessage{
		Type:      TypeMessageReceive,
		RoomID:    roomID,
		MessageID: messageID,
		Username:  username,
		Text:      text,
		Timestamp: timestamp,
	})
}

func encodeError(reason string) []byte {
	return mustMarshal(errorMessage{
		Type: TypeError,
		Data: errorData{Message: reason},
	})
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
