package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisChannel = "careconnect:events"

// Delivery scopes for the Redis envelope.
const (
	scopeUser         = "user"
	scopeConversation = "conversation"
	scopeBroadcast    = "broadcast"
)

// Hub manages all WebSocket connections and event fanout.
// Redis Pub/Sub carries events across instances so any node can deliver.
type Hub struct {
	// userID -> set of connections (one user can have multiple tabs/devices)
	clients map[uuid.UUID]map[*Client]bool
	// conversationID -> set of connections viewing that thread. A client
	// subscribes to at most one conversation at a time; subscribing to a
	// new one releases the old subscription.
	subscriptions map[uuid.UUID]map[*Client]bool
	mu            sync.RWMutex

	register   chan *Client
	unregister chan *Client

	rdb *redis.Client

	// Called when a user's first connection opens or last connection closes
	onStatusChange func(userID uuid.UUID, online bool)
}

func NewHub(rdb *redis.Client, onStatusChange func(userID uuid.UUID, online bool)) *Hub {
	return &Hub{
		clients:        make(map[uuid.UUID]map[*Client]bool),
		subscriptions:  make(map[uuid.UUID]map[*Client]bool),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		rdb:            rdb,
		onStatusChange: onStatusChange,
	}
}

// Run starts the Hub's main event loop.
func (h *Hub) Run(ctx context.Context) {
	go h.subscribeRedis(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

// Register queues a client for registration with the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.UserID]; !ok {
		h.clients[client.UserID] = make(map[*Client]bool)
		if h.onStatusChange != nil {
			go h.onStatusChange(client.UserID, true)
		}
	}
	h.clients[client.UserID][client] = true
	log.Printf("✅ Client connected: %s (connections: %d)", client.UserID, len(h.clients[client.UserID]))
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.dropSubscriptionLocked(client)

	if clients, ok := h.clients[client.UserID]; ok {
		delete(clients, client)
		close(client.send)

		if len(clients) == 0 {
			delete(h.clients, client.UserID)
			if h.onStatusChange != nil {
				go h.onStatusChange(client.UserID, false)
			}
		}
	}
	log.Printf("❌ Client disconnected: %s", client.UserID)
}

// Subscribe attaches the client to a conversation's event stream. The
// previous subscription, if any, is released first: a client follows one
// thread at a time.
func (h *Hub) Subscribe(client *Client, conversationID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.dropSubscriptionLocked(client)

	if _, ok := h.subscriptions[conversationID]; !ok {
		h.subscriptions[conversationID] = make(map[*Client]bool)
	}
	h.subscriptions[conversationID][client] = true
	client.conversationID = conversationID
}

// Unsubscribe detaches the client from its current conversation.
func (h *Hub) Unsubscribe(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropSubscriptionLocked(client)
}

func (h *Hub) dropSubscriptionLocked(client *Client) {
	if client.conversationID == uuid.Nil {
		return
	}
	if subs, ok := h.subscriptions[client.conversationID]; ok {
		delete(subs, client)
		if len(subs) == 0 {
			delete(h.subscriptions, client.conversationID)
		}
	}
	client.conversationID = uuid.Nil
}

// SendToUser delivers an event to every connection a user has, on any
// instance.
func (h *Hub) SendToUser(userID uuid.UUID, event *Event) {
	h.publishToRedis(envelope{Scope: scopeUser, TargetID: userID, Event: event})
}

// SendToUsers delivers an event to multiple users.
func (h *Hub) SendToUsers(userIDs []uuid.UUID, event *Event) {
	for _, userID := range userIDs {
		h.SendToUser(userID, event)
	}
}

// SendToConversation delivers an event to every client currently viewing
// the conversation, on any instance.
func (h *Hub) SendToConversation(conversationID uuid.UUID, event *Event) {
	h.publishToRedis(envelope{Scope: scopeConversation, TargetID: conversationID, Event: event})
}

// Broadcast delivers an event to every connected client.
func (h *Hub) Broadcast(event *Event) {
	h.publishToRedis(envelope{Scope: scopeBroadcast, Event: event})
}

func (h *Hub) sendToLocalUser(userID uuid.UUID, event *Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.clients[userID]
	if !ok {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error marshaling event: %v", err)
		return
	}
	for client := range clients {
		select {
		case client.send <- data:
		default:
			// Client's send buffer is full, close connection
			close(client.send)
			delete(clients, client)
		}
	}
}

func (h *Hub) sendToLocalConversation(conversationID uuid.UUID, event *Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	subs, ok := h.subscriptions[conversationID]
	if !ok {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error marshaling event: %v", err)
		return
	}
	for client := range subs {
		select {
		case client.send <- data:
		default:
			close(client.send)
			delete(subs, client)
		}
	}
}

func (h *Hub) broadcastToLocal(event *Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error marshaling broadcast event: %v", err)
		return
	}
	for _, clients := range h.clients {
		for client := range clients {
			select {
			case client.send <- data:
			default:
				close(client.send)
				delete(clients, client)
			}
		}
	}
}

// IsUserOnline checks if a user has any active connections on this instance.
func (h *Hub) IsUserOnline(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// ========== Redis Pub/Sub for Horizontal Scaling ==========

// envelope wraps an event with its delivery scope for Redis Pub/Sub.
type envelope struct {
	Scope    string    `json:"scope"`
	TargetID uuid.UUID `json:"target_id,omitempty"`
	Event    *Event    `json:"event"`
}

func (h *Hub) publishToRedis(env envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		log.Printf("Error marshaling for Redis: %v", err)
		return
	}
	if err := h.rdb.Publish(context.Background(), redisChannel, data).Err(); err != nil {
		log.Printf("Error publishing to Redis: %v", err)
	}
}

func (h *Hub) subscribeRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, redisChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	log.Println("📡 Redis Pub/Sub subscriber started")

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-ch:
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				log.Printf("Error unmarshaling Redis message: %v", err)
				continue
			}
			if env.Event == nil {
				continue
			}
			switch env.Scope {
			case scopeUser:
				h.sendToLocalUser(env.TargetID, env.Event)
			case scopeConversation:
				h.sendToLocalConversation(env.TargetID, env.Event)
			case scopeBroadcast:
				h.broadcastToLocal(env.Event)
			}
		}
	}
}
