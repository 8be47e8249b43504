// websocket/write_pump.go
package websocket

import (
	"time"

	"github.com/gorilla/websocket"
)

// writePump delivers queued events and keepalive pings until the queue closes
// or a write fails.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Socket.Close()
	}()

	for {
		var err error
		select {
		case event, open := <-c.Send:
			if !open {
				c.write(websocket.CloseMessage, []byte{})
				return
			}
			// one frame per event, clients decode each frame as JSON
			err = c.write(websocket.TextMessage, event)
		case <-ticker.C:
			err = c.write(websocket.PingMessage, nil)
		}
		if err != nil {
			return
		}
	}
}

func (c *Client) write(messageType int, payload []byte) error {
	if err := c.Socket.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.Socket.WriteMessage(messageType, payload)
}
