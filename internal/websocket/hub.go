package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ikkim/bizdirectory-backend/internal/app/model"
	"github.com/ikkim/bizdirectory-backend/pkg/logger"
	"github.com/ikkim/bizdirectory-backend/pkg/metrics"
)

// activityEvent is the frame pushed to admin feed clients.
type activityEvent struct {
	Type     string              `json:"type"`
	Activity model.AdminActivity `json:"activity"`
}

// Client is one admin feed session. An admin may hold several.
type Client struct {
	hub    *Hub
	conn   *Conn
	UserID uint
	send   chan []byte
}

// Hub fans admin activity out to connected feed clients. It implements
// the service layer's ActivityPublisher.
type Hub struct {
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		broadcast:  make(chan []byte, 256),
	}
}

// Run serves register, unregister and broadcast until ctx is done, then
// closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			metrics.ActivityFeedClients.Set(0)
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			metrics.ActivityFeedClients.Set(float64(total))
			logger.Info("Activity feed client registered", map[string]interface{}{
				"user_id":       client.UserID,
				"total_clients": total,
			})

		case client := <-h.unregister:
			h.removeClient(client)

		case message := <-h.broadcast:
			h.mu.RLock()
			var slow []*Client
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					slow = append(slow, client)
				}
			}
			h.mu.RUnlock()

			for _, client := range slow {
				logger.Warn("Feed client send buffer full, disconnecting", map[string]interface{}{
					"user_id": client.UserID,
				})
				h.removeClient(client)
			}
		}
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	close(client.send)
	total := len(h.clients)
	h.mu.Unlock()

	metrics.ActivityFeedClients.Set(float64(total))
	logger.Info("Activity feed client unregistered", map[string]interface{}{
		"user_id":           client.UserID,
		"remaining_clients": total,
	})
}

// Publish queues activity for every connected client. A full queue drops
// the event; the feed is best effort and the log table is authoritative.
func (h *Hub) Publish(activity model.AdminActivity) {
	data, err := json.Marshal(activityEvent{Type: "admin_activity", Activity: activity})
	if err != nil {
		logger.Error("Failed to marshal activity", err, nil)
		return
	}

	select {
	case h.broadcast <- data:
	default:
		logger.Warn("Activity broadcast channel full, event dropped", map[string]interface{}{
			"action": activity.Action,
		})
	}
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
