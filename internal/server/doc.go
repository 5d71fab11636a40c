// Package server implements the core HTTP and WebSocket server functionality
// for ChatCube, a real-time chat relay.
//
// Clients open a WebSocket to /ws, bind a username with user_connect, join a
// named room with room_join, and exchange messages that are broadcast to the
// other members of the same room. The Hub owns all shared chat state behind
// one lock; the remaining files cover the per-connection transport, the wire
// protocol, configuration, routing, and the static asset server.
package server
