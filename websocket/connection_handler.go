// websocket/connection_handler.go
package websocket

import (
	"net/http"

	"github.com/google/uuid"
)

// HandleConnections upgrades the request and attaches the client to the hub
func (manager *Manager) HandleConnections(w http.ResponseWriter, r *http.Request) {
	conn, err := manager.upgrader.Upgrade(w, r, nil)
	if err != nil {
		manager.logger.Warn("Websocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		ID:     uuid.NewString(),
		Socket: conn,
		Send:   make(chan []byte, sendBufferSize),
	}

	select {
	case manager.register <- client:
	case <-manager.done:
		conn.Close()
		return
	case <-r.Context().Done():
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(manager)
}
