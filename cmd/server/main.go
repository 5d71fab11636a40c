package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chatcube/chatcube-server/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	fmt.Println("Starting ChatCube server...")

	config := server.NewConfigFromEnv()
	server.SetConfig(config)

	mux := server.SetupRoutes()
	httpServer := server.CreateServer(config.Port, mux)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.StartServer(httpServer)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-stop:
		log.Printf("Received signal %v, shutting down...", sig)

		if err := server.ShutdownServer(httpServer, shutdownTimeout); err != nil {
			log.Printf("HTTP shutdown did not complete cleanly: %v", err)
		}
		if err := server.GetHub().Shutdown(shutdownTimeout); err != nil {
			log.Printf("Hub shutdown did not complete cleanly: %v", err)
		}
	}
}
