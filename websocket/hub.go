package websocket

import (
	"log"
	"sync"

	"github.com/classroomtt/tutor_marketplace/events"
	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

// The hub pushes domain events to connected dashboard clients. It is
// one subscriber among others on the event bus; a user who is not
// connected simply misses the push and catches up by polling.

type Client struct {
	UserID uuid.UUID
	Conn   *websocket.Conn
}

var clients = make(map[uuid.UUID]*websocket.Conn)
var clientsMu sync.RWMutex
var Register = make(chan *Client)
var Unregister = make(chan *Client)

func init() {
	events.Subscribe(pushEvent)
}

func RunHub() {
	for {
		select {
		case client := <-Register:
			log.Printf("Client registered: %s", client.UserID)
			clientsMu.Lock()
			clients[client.UserID] = client.Conn
			clientsMu.Unlock()
		case client := <-Unregister:
			log.Printf("Client unregistered: %s", client.UserID)
			clientsMu.Lock()
			if conn, ok := clients[client.UserID]; ok && conn == client.Conn {
				delete(clients, client.UserID)
			}
			clientsMu.Unlock()
		}
	}
}

func pushEvent(e events.Event) {
	var stale []uuid.UUID

	clientsMu.RLock()
	for _, recipientID := range e.Recipients {
		conn, ok := clients[recipientID]
		if !ok {
			continue
		}
		if err := conn.WriteJSON(e); err != nil {
			log.Printf("Error pushing event to client %s: %v", recipientID, err)
			conn.Close()
			stale = append(stale, recipientID)
		}
	}
	clientsMu.RUnlock()

	if len(stale) > 0 {
		clientsMu.Lock()
		for _, recipientID := range stale {
			delete(clients, recipientID)
		}
		clientsMu.Unlock()
	}
}
