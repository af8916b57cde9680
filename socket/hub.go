package socket

import (
	"context"
	"encoding/json"
	"sync"

	"smartpen/pkg/logger"
)

const (
	PresenceUpdateType = "PRESENCE_UPDATE" // A device of the same user connected or left
)

// WSMessage is the envelope for everything pushed to a device.
type WSMessage struct {
	Type    string          `json:"type"`
	UserID  string          `json:"user_id"`
	Payload json.RawMessage `json:"payload"`
}

type Presence struct {
	Devices []string `json:"devices"`
}

// Hub keeps one room per user holding that user's connected devices, and
// pushes note change events into the owner's room only.
type Hub struct {
	Rooms      map[string]map[*Client]bool // userID -> clients
	Broadcast  chan WSMessage
	Register   chan *Client
	Unregister chan *Client
	done       chan struct{}
	mu         sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		Rooms:      make(map[string]map[*Client]bool),
		Broadcast:  make(chan WSMessage, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run is the hub's event loop. It returns when ctx is cancelled, after
// closing every connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.Register:
			h.mu.Lock()
			if h.Rooms[client.UserID] == nil {
				h.Rooms[client.UserID] = make(map[*Client]bool)
			}
			h.Rooms[client.UserID][client] = true
			h.mu.Unlock()

			logger.Sugar.Debugf("Device %s of user %s connected", client.DeviceID, client.UserID)
			h.broadcastPresenceUpdate(client.UserID)

		case client := <-h.Unregister:
			if h.remove(client) {
				h.broadcastPresenceUpdate(client.UserID)
			}

		case msg := <-h.Broadcast:
			payload, err := json.Marshal(msg)
			if err != nil {
				logger.Sugar.Errorf("Error marshalling broadcast message: %v", err)
				continue
			}
			for _, client := range h.clients(msg.UserID) {
				select {
				case client.Send <- payload:
				default:
					// The client is lagging; drop it rather than block the hub.
					logger.Sugar.Warnf("Client %s's send buffer is full. Unregistering.", client.UserID)
					h.remove(client)
				}
			}
		}
	}
}

// NotifyUser queues an event for every connected device of userID. It never
// blocks; if the hub is saturated the event is dropped, since clients
// re-list notes on reconnect anyway.
func (h *Hub) NotifyUser(userID, eventType string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		logger.Sugar.Errorf("Error marshalling %s payload: %v", eventType, err)
		return
	}
	select {
	case h.Broadcast <- WSMessage{Type: eventType, UserID: userID, Payload: raw}:
	default:
		logger.Sugar.Warnf("Hub is saturated, dropping %s for user %s", eventType, userID)
	}
}

// Connected reports how many devices userID has online.
func (h *Hub) Connected(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.Rooms[userID])
}

func (h *Hub) remove(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.Rooms[client.UserID][client]; !ok {
		return false
	}
	delete(h.Rooms[client.UserID], client)
	close(client.Send)
	if len(h.Rooms[client.UserID]) == 0 {
		delete(h.Rooms, client.UserID)
	}
	return true
}

func (h *Hub) clients(userID string) []*Client {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*Client, 0, len(h.Rooms[userID]))
	for client := range h.Rooms[userID] {
		out = append(out, client)
	}
	return out
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, room := range h.Rooms {
		for client := range room {
			close(client.Send)
			client.Conn.Close()
		}
		delete(h.Rooms, userID)
	}
}

func (h *Hub) broadcastPresenceUpdate(userID string) {
	clientsToSend := h.clients(userID)
	if len(clientsToSend) == 0 {
		return
	}

	devices := make([]string, 0, len(clientsToSend))
	for _, c := range clientsToSend {
		devices = append(devices, c.DeviceID)
	}
	payload, err := json.Marshal(Presence{Devices: devices})
	if err != nil {
		logger.Sugar.Errorf("Error marshalling presence broadcast: %v", err)
		return
	}
	broadcastPayload, _ := json.Marshal(WSMessage{Type: PresenceUpdateType, UserID: userID, Payload: payload})

	for _, client := range clientsToSend {
		select {
		case client.Send <- broadcastPayload:
		default:
			// Don't unregister here, just log. The pumps will handle unresponsive clients.
			logger.Sugar.Warnf("Client %s's send buffer was full during presence update.", client.UserID)
		}
	}
}
