package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/dariogeorge21/prayer-collector/internal/domain"
)

// Message types
const (
	MessageTypeLeaderboardUpdate = "leaderboard_update"
	MessageTypeTopScorersUpdate  = "top_scorers_update"
	MessageTypeSubscribe         = "subscribe"
	MessageTypeUnsubscribe       = "unsubscribe"
	MessageTypeSubscribed        = "subscribed"
	MessageTypeUnsubscribed      = "unsubscribed"
	MessageTypePing              = "ping"
	MessageTypePong              = "pong"
	MessageTypeError             = "error"
)

// Channels clients can subscribe to
const (
	ChannelLeaderboard = "leaderboard"
	ChannelTopScorers  = "top_scorers"
)

// validChannel reports whether name is a known channel
func validChannel(name string) bool {
	return name == ChannelLeaderboard || name == ChannelTopScorers
}

// Message represents a WebSocket message
type Message struct {
	Type      string    `json:"type"`
	Channel   string    `json:"channel,omitempty"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// LeaderboardUpdate contains leaderboard data for broadcast
type LeaderboardUpdate struct {
	Entries    []domain.LeaderboardEntry `json:"entries"`
	TotalUsers int                       `json:"total_users"`
}

// ConnectionStats describes the hub's current connections
type ConnectionStats struct {
	TotalConnections int            `json:"total_connections"`
	Subscribers      map[string]int `json:"subscribers"`
}

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	// Subscribed clients by channel
	clients map[string]map[*Client]bool

	// All connected clients
	allClients map[*Client]bool

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Outbound messages
	broadcast chan *Message

	// Subscription requests
	subscribe chan *subscriptionRequest

	// Unsubscription requests
	unsubscribe chan *subscriptionRequest

	// Last encoded message per channel, replayed to new subscribers
	latest map[string][]byte

	mu sync.RWMutex

	logger *slog.Logger

	// Context for shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

type subscriptionRequest struct {
	client  *Client
	channel string
}

// NewHub creates a new Hub
func NewHub(logger *slog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:     make(map[string]map[*Client]bool),
		allClients:  make(map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		broadcast:   make(chan *Message, 256),
		subscribe:   make(chan *subscriptionRequest, 64),
		unsubscribe: make(chan *subscriptionRequest, 64),
		latest:      make(map[string][]byte),
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	h.logger.Info("WebSocket hub started")
	for {
		select {
		case <-h.ctx.Done():
			h.logger.Info("WebSocket hub stopping")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.allClients[client] = true
			h.mu.Unlock()
			h.logger.Debug("client registered", "client_id", client.id)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.allClients[client]; ok {
				delete(h.allClients, client)
				for channel, clients := range h.clients {
					if _, ok := clients[client]; ok {
						delete(clients, client)
						if len(clients) == 0 {
							delete(h.clients, channel)
						}
					}
				}
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Debug("client unregistered", "client_id", client.id)

		case req := <-h.subscribe:
			h.mu.Lock()
			if !h.allClients[req.client] {
				// Unregistered before the request was processed; its send channel is closed
				h.mu.Unlock()
				continue
			}
			if _, ok := h.clients[req.channel]; !ok {
				h.clients[req.channel] = make(map[*Client]bool)
			}
			h.clients[req.channel][req.client] = true
			last := h.latest[req.channel]
			h.mu.Unlock()
			if last != nil {
				select {
				case req.client.send <- last:
				default:
				}
			}
			h.logger.Debug("client subscribed", "client_id", req.client.id, "channel", req.channel)

		case req := <-h.unsubscribe:
			h.mu.Lock()
			if clients, ok := h.clients[req.channel]; ok {
				delete(clients, req.client)
				if len(clients) == 0 {
					delete(h.clients, req.channel)
				}
			}
			h.mu.Unlock()
			h.logger.Debug("client unsubscribed", "client_id", req.client.id, "channel", req.channel)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

// Stop stops the hub
func (h *Hub) Stop() {
	h.cancel()
}

// broadcastMessage sends a message to every client subscribed to its channel
// and remembers it for clients that subscribe later
func (h *Hub) broadcastMessage(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("failed to marshal message", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest[message.Channel] = data

	for client := range h.clients[message.Channel] {
		select {
		case client.send <- data:
		default:
			// Client's buffer is full, skip
			h.logger.Warn("client buffer full, skipping", "client_id", client.id)
		}
	}
}

func (h *Hub) enqueue(message *Message) {
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("broadcast channel full, dropping message", "channel", message.Channel)
	}
}

// BroadcastLeaderboard sends the refreshed leaderboard to its subscribers
func (h *Hub) BroadcastLeaderboard(board []domain.LeaderboardEntry) {
	h.enqueue(&Message{
		Type:    MessageTypeLeaderboardUpdate,
		Channel: ChannelLeaderboard,
		Data: LeaderboardUpdate{
			Entries:    board,
			TotalUsers: len(board),
		},
		Timestamp: time.Now(),
	})
}

// BroadcastTopScorers sends the refreshed top-scorer lists to their subscribers
func (h *Hub) BroadcastTopScorers(ts domain.TopScorers) {
	h.enqueue(&Message{
		Type:      MessageTypeTopScorersUpdate,
		Channel:   ChannelTopScorers,
		Data:      ts,
		Timestamp: time.Now(),
	})
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Subscribe adds a client to a channel
func (h *Hub) Subscribe(client *Client, channel string) {
	h.subscribe <- &subscriptionRequest{
		client:  client,
		channel: channel,
	}
}

// Unsubscribe removes a client from a channel
func (h *Hub) Unsubscribe(client *Client, channel string) {
	h.unsubscribe <- &subscriptionRequest{
		client:  client,
		channel: channel,
	}
}

// SubscriberCount returns the number of subscribers on a channel
func (h *Hub) SubscriberCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[channel])
}

// TotalConnections returns the total number of connected clients
func (h *Hub) TotalConnections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.allClients)
}

// Stats returns connection and per-channel subscriber counts
func (h *Hub) Stats() ConnectionStats {
	return ConnectionStats{
		TotalConnections: h.TotalConnections(),
		Subscribers: map[string]int{
			ChannelLeaderboard: h.SubscriberCount(ChannelLeaderboard),
			ChannelTopScorers:  h.SubscriberCount(ChannelTopScorers),
		},
	}
}
