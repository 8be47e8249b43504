// websocket/manager.go
package websocket

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/LilVoxy/obeya_headcount/ETL/utils"
)

// NewManager creates a hub. allowedOrigins empty accepts any origin.
func NewManager(logger *utils.ETLLogger, allowedOrigins ...string) *Manager {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Manager{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, sendBufferSize),
		replies:    make(chan reply, sendBufferSize),
		done:       make(chan struct{}),
		logger:     logger,
		instance:   uuid.NewString(),
		upgrader:   newUpgrader(allowedOrigins),
	}
}

// WithBus relays events through a pub/sub bus so every instance's clients see them
func (manager *Manager) WithBus(bus Bus) *Manager {
	manager.bus = bus
	return manager
}

// Run serves the hub until ctx is done
func (manager *Manager) Run(ctx context.Context) error {
	defer close(manager.done)

	if manager.bus != nil {
		err := manager.bus.StartForwarder(ctx, func(event Event) {
			if event.Origin == manager.instance {
				return
			}
			manager.enqueue(event)
		})
		if err != nil {
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			for id, client := range manager.clients {
				close(client.Send)
				delete(manager.clients, id)
			}
			manager.setCount(0)
			return nil

		case client := <-manager.register:
			manager.clients[client.ID] = client
			manager.setCount(len(manager.clients))
			manager.logger.Debug("Client %s connected", client.ID)

		case client := <-manager.unregister:
			if _, ok := manager.clients[client.ID]; ok {
				delete(manager.clients, client.ID)
				close(client.Send)
				manager.setCount(len(manager.clients))
				manager.logger.Debug("Client %s disconnected", client.ID)
			}

		case message := <-manager.broadcast:
			manager.fanOut(message)

		case r := <-manager.replies:
			// the client may have left while the reply was queued
			if client, ok := manager.clients[r.client.ID]; ok && client == r.client {
				select {
				case client.Send <- r.data:
				default:
				}
			}
		}
	}
}

// fanOut drops clients whose queue is full
func (manager *Manager) fanOut(message []byte) {
	for id, client := range manager.clients {
		select {
		case client.Send <- message:
		default:
			close(client.Send)
			delete(manager.clients, id)
			manager.logger.Warn("Client %s too slow, dropped", id)
		}
	}
	manager.setCount(len(manager.clients))
}

// Broadcast sends an event to local clients and to the bus
func (manager *Manager) Broadcast(eventType string, payload interface{}) {
	event := Event{Type: eventType, Payload: payload, At: time.Now().UTC(), Origin: manager.instance}
	manager.enqueue(event)

	if manager.bus != nil {
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		defer cancel()
		if err := manager.bus.Publish(ctx, event); err != nil {
			manager.logger.Error("Publishing %s event: %v", eventType, err)
		}
	}
}

// reply queues a frame for one client. Only the hub writes to Send.
func (manager *Manager) reply(client *Client, data []byte) {
	select {
	case manager.replies <- reply{client: client, data: data}:
	case <-manager.done:
	default:
		manager.logger.Debug("Reply queue full, frame for %s dropped", client.ID)
	}
}

func (manager *Manager) enqueue(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		manager.logger.Error("Encoding %s event: %v", event.Type, err)
		return
	}
	select {
	case manager.broadcast <- data:
	default:
		manager.logger.Warn("Event queue full, %s event dropped", event.Type)
	}
}

// ClientCount returns the number of connected clients
func (manager *Manager) ClientCount() int {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	return manager.count
}

func (manager *Manager) setCount(n int) {
	manager.mu.Lock()
	manager.count = n
	manager.mu.Unlock()
}
