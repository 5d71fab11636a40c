// Package server wires HTTP handlers into a ServeMux for the ChatCube
// application via routing helpers.
package server

import "net/http"

// SetupRoutes configures and returns an HTTP ServeMux with all application
// routes: health check, service status, the WebSocket endpoint, and the
// static asset server when a directory is configured.
func SetupRoutes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", HealthHandler)
	mux.HandleFunc("/api/status", StatusHandler)
	mux.HandleFunc("/ws", WebSocketHandler)

	if dir := currentConfig().StaticDir; dir != "" {
		mux.Handle("/static/", http.StripPrefix("/static", NewStaticHandler(dir)))
	}

	return mux
}
