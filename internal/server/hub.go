// Package server coordinates sessions, room membership, message dispatch, and
// broadcast fan-out for the ChatCube WebSocket system via the Hub type.
package server

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"sync"
	"time"
)

// ConnID is the opaque identity of one live connection, issued by the
// transport adapter when the connection is accepted. The hub keys all of its
// state on ConnID and never holds the underlying socket.
type ConnID string

// Conn is the capability the transport adapter hands to the hub for each
// connection: deliver a text payload, and tear the connection down. SendText
// must not block; a send that cannot be accepted immediately returns an error.
type Conn interface {
	SendText(payload []byte) error
	Close() error
}

// Hub tracks which username is bound to which connection and which
// connections belong to which room, and fans outbound messages out to the
// correct recipient set. One mutex guards both structures so that room
// membership and the reported member counts are never observed mid-update.
type Hub struct {
	mu       sync.RWMutex
	conns    map[ConnID]Conn
	sessions map[ConnID]string
	rooms    map[string]map[ConnID]struct{}
	wg       sync.WaitGroup
}

// NewHub creates an empty Hub ready to accept connections.
func NewHub() *Hub {
	return &Hub{
		conns:    make(map[ConnID]Conn),
		sessions: make(map[ConnID]string),
		rooms:    make(map[string]map[ConnID]struct{}),
	}
}

var hub = NewHub()

// Register makes a connection addressable by the hub. It must be called by
// the transport adapter before any payload from that connection is dispatched.
func (h *Hub) Register(id ConnID, conn Conn) {
	h.mu.Lock()
	h.conns[id] = conn
	total := len(h.conns)
	h.mu.Unlock()

	log.Printf("Connection %s registered. Total connections: %d", id, total)
}

// Unregister removes a closed connection from the session registry and from
// every room, and closes its transport. It is idempotent and safe to call for
// a connection that was never registered. The transport adapter must invoke
// it when it observes the connection close.
func (h *Hub) Unregister(id ConnID) {
	h.mu.Lock()
	conn, ok := h.conns[id]
	if ok {
		delete(h.conns, id)
		delete(h.sessions, id)
		for _, members := range h.rooms {
			delete(members, id)
		}
	}
	total := len(h.conns)
	h.mu.Unlock()

	if !ok {
		return
	}

	// Close outside the lock; a blocking transport must not stall the hub.
	if err := conn.Close(); err != nil && !isExpectedCloseError(err) {
		log.Printf("Error closing connection %s: %v", id, err)
	}
	log.Printf("Connection %s unregistered. Total connections: %d", id, total)
}

// Dispatch parses a raw inbound payload from the given connection and routes
// it to the matching handler. A payload that cannot be parsed, or whose type
// is outside the recognized set, is answered with an error reply on the same
// connection and never disturbs shared state or other connections.
func (h *Hub) Dispatch(id ConnID, payload []byte) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		h.sendError(id, "Invalid JSON")
		return
	}

	switch env.Type {
	case TypeUserConnect:
		h.handleUserConnect(id, &env)
	case TypeRoomJoin:
		h.handleRoomJoin(id, &env)
	case TypeMessageSend:
		h.handleMessageSend(id, &env)
	case TypeRoomLeave:
		h.handleRoomLeave(id, &env)
	default:
		h.sendError(id, "Unknown message type")
	}
}

// handleUserConnect binds a username to the connection, overwriting any prior
// binding, and acknowledges with the connection's user id and the current
// number of registered sessions. Nothing is broadcast to other connections.
func (h *Hub) handleUserConnect(id ConnID, env *envelope) {
	if env.Username == "" {
		h.sendError(id, "username is required")
		return
	}

	h.mu.Lock()
	if _, registered := h.conns[id]; !registered {
		// The connection unregistered while this payload was in flight;
		// binding a session now would leak it.
		h.mu.Unlock()
		return
	}
	h.sessions[id] = env.Username
	online := len(h.sessions)
	h.mu.Unlock()

	h.send(id, encodeUserConnected(string(id), env.Username, online))
	log.Printf("User connected: %s (%d online)", env.Username, online)
}

// handleRoomJoin moves the connection into the requested room. Removal from
// every previously occupied room and insertion into the target happen as one
// step under the lock, so a connection is a member of at most one room at any
// observable moment. Prior members are notified with user_joined and the
// joiner receives room_joined, both carrying the post-join member count.
func (h *Hub) handleRoomJoin(id ConnID, env *envelope) {
	if env.RoomID == "" {
		h.sendError(id, "room_id is required")
		return
	}

	h.mu.Lock()
	username, ok := h.sessions[id]
	if !ok {
		h.mu.Unlock()
		h.sendError(id, "Not connected")
		return
	}

	for _, members := range h.rooms {
		delete(members, id)
	}

	room := h.rooms[env.RoomID]
	if room == nil {
		room = make(map[ConnID]struct{})
		h.rooms[env.RoomID] = room
	}
	room[id] = struct{}{}

	count := len(room)
	others := h.roomMembersLocked(env.RoomID, id)
	h.mu.Unlock()

	h.deliver(others, encodeRoomEvent(TypeUserJoined, env.RoomID, username, count))
	h.send(id, encodeRoomEvent(TypeRoomJoined, env.RoomID, username, count))
	log.Printf("%s joined room %s (%d members)", username, env.RoomID, count)
}

// handleMessageSend relays a chat message to every member of the room,
// including the sender. It mutates nothing; a room with no members, or one
// that was never created, produces no deliveries and no error.
func (h *Hub) handleMessageSend(id ConnID, env *envelope) {
	if env.RoomID == "" || env.Text == "" || env.MessageID == "" {
		h.sendError(id, "room_id, text and message_id are required")
		return
	}

	h.mu.RLock()
	username, ok := h.sessions[id]
	if !ok {
		h.mu.RUnlock()
		h.sendError(id, "Not connected")
		return
	}
	recipients := h.roomMembersLocked(env.RoomID, "")
	h.mu.RUnlock()

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	h.deliver(recipients, encodeMessageReceive(env.RoomID, env.MessageID, username, env.Text, timestamp))
	log.Printf("%s in %s: %s", username, env.RoomID, env.Text)
}

// handleRoomLeave removes the connection from the room and notifies the
// remaining members with the new member count. Leaving a room the connection
// is not in is not an error; the notification still goes to whoever is there.
func (h *Hub) handleRoomLeave(id ConnID, env *envelope) {
	if env.RoomID == "" {
		h.sendError(id, "room_id is required")
		return
	}

	h.mu.Lock()
	username, ok := h.sessions[id]
	if !ok {
		h.mu.Unlock()
		h.sendError(id, "Not connected")
		return
	}

	if members, exists := h.rooms[env.RoomID]; exists {
		delete(members, id)
	}
	count := len(h.rooms[env.RoomID])
	remaining := h.roomMembersLocked(env.RoomID, id)
	h.mu.Unlock()

	h.deliver(remaining, encodeRoomEvent(TypeUserLeft, env.RoomID, username, count))
	log.Printf("%s left room %s (%d members)", username, env.RoomID, count)
}

// roomMembersLocked snapshots the member ids of a room, excluding the given
// connection. Pass an empty exclude to snapshot every member. The caller must
// hold h.mu.
func (h *Hub) roomMembersLocked(roomID string, exclude ConnID) []ConnID {
	members := h.rooms[roomID]
	if len(members) == 0 {
		return nil
	}

	ids := make([]ConnID, 0, len(members))
	for id := range members {
		if id == exclude {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// deliver sends a payload to each recipient in turn. Sends happen outside the
// exclusive lock so one slow client cannot stall room operations, and each
// send is independent: a failed recipient is removed and delivery continues.
func (h *Hub) deliver(ids []ConnID, payload []byte) {
	if payload == nil {
		return
	}

	var failed []ConnID
	for _, id := range ids {
		if !h.trySend(id, payload) {
			failed = append(failed, id)
		}
	}

	for _, id := range failed {
		log.Printf("Connection %s removed after failed delivery", id)
		h.Unregister(id)
	}
}

// send delivers a payload to a single connection, removing it on failure.
func (h *Hub) send(id ConnID, payload []byte) {
	if payload == nil {
		return
	}
	if !h.trySend(id, payload) {
		log.Printf("Connection %s removed after failed delivery", id)
		h.Unregister(id)
	}
}

// trySend looks the connection up and attempts a non-blocking delivery. A
// connection that has already unregistered is skipped without error.
func (h *Hub) trySend(id ConnID, payload []byte) bool {
	h.mu.RLock()
	conn, ok := h.conns[id]
	h.mu.RUnlock()

	if !ok {
		return true
	}
	if err := conn.SendText(payload); err != nil {
		log.Printf("Failed to deliver to connection %s: %v", id, err)
		return false
	}
	return true
}

func (h *Hub) sendError(id ConnID, reason string) {
	h.send(id, encodeError(reason))
}

// OnlineUsers reports how many connections currently have a session bound.
func (h *Hub) OnlineUsers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// RoomCount reports the current member count of a room. An unknown room has
// zero members.
func (h *Hub) RoomCount(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// shutdownClients closes every registered connection so the transport pumps
// unwind and unregister themselves.
func (h *Hub) shutdownClients() {
	log.Println("Shutting down all client connections...")

	h.mu.RLock()
	conns := make([]Conn, 0, len(h.conns))
	for _, conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.Close(); err != nil && !isExpectedCloseError(err) {
			log.Printf("Error closing client connection: %v", err)
		}
	}

	log.Printf("Closed %d client connections", len(conns))
}

// Shutdown closes all client connections and waits for their transport
// goroutines to finish, or until the timeout is reached.
func (h *Hub) Shutdown(timeout time.Duration) error {
	log.Println("Initiating hub shutdown...")

	h.shutdownClients()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("Hub shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		log.Println("Hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
