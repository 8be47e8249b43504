// websocket/constants.go
package websocket

import (
	"time"
)

const (
	// Time allowed to write a message to the client
	writeWait = 10 * time.Second

	// Time allowed to read the next pong from the client
	pongWait = 60 * time.Second

	// Ping period, must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Clients only send pings, so inbound messages stay small
	maxMessageSize = 4 * 1024

	// Outbound queue per client
	sendBufferSize = 64

	// Default pub/sub channel shared by every instance
	DefaultChannel = "obeya:events"
)
