package websocket

import (
	"encoding/json"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ServeWs registers the connection and pushes initial before any broadcast.
func ServeWs(hub *Hub, conn *websocket.Conn, initial Frame) {
	client := &Client{Hub: hub, Conn: conn, ID: uuid.New(), Send: make(chan []byte, 32)}
	if payload, err := json.Marshal(initial); err == nil {
		client.Send <- payload
	}
	if !hub.join(client) {
		conn.Close()
		return
	}

	go client.writePump()
	client.readPump()
}
