// websocket/types.go
package websocket

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/LilVoxy/obeya_headcount/ETL/utils"
)

// Event is the JSON frame pushed to dashboard clients
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
	At      time.Time   `json:"at"`
	// Origin is the instance that produced the event
	Origin string `json:"origin,omitempty"`
}

// Message is what clients may send
type Message struct {
	Type string `json:"type"`
}

// Client is one websocket connection
type Client struct {
	ID     string
	Socket *websocket.Conn
	Send   chan []byte
}

// reply is a frame for a single client
type reply struct {
	client *Client
	data   []byte
}

// Manager fans dataset events out to every connected client
type Manager struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	replies    chan reply
	done       chan struct{}

	mu       sync.RWMutex
	count    int
	logger   *utils.ETLLogger
	bus      Bus
	instance string
	upgrader websocket.Upgrader
}

func newUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if allowed == "*" || allowed == origin {
					return true
				}
			}
			return false
		},
	}
}
