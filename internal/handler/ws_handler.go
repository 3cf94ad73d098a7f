package handler

import (
	"log"
	"net/http"

	"github.com/carecollective/careconnect/internal/service"
	"github.com/carecollective/careconnect/internal/ws"
	"github.com/carecollective/careconnect/pkg/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // In production, validate origin
	},
}

// WSHandler handles WebSocket connections.
type WSHandler struct {
	hub        *ws.Hub
	messaging  *service.MessagingService
	jwtManager *auth.JWTManager
	typing     *ws.TypingTracker
}

func NewWSHandler(hub *ws.Hub, messaging *service.MessagingService, jwtManager *auth.JWTManager, typing *ws.TypingTracker) *WSHandler {
	return &WSHandler{
		hub:        hub,
		messaging:  messaging,
		jwtManager: jwtManager,
		typing:     typing,
	}
}

// HandleWebSocket upgrades HTTP to WebSocket and manages the connection.
// Client connects with: ws://host/ws?token=<jwt_token>
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	// Authenticate via query parameter (WebSocket can't use Authorization header)
	tokenString := c.Query("token")
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token required"})
		return
	}

	claims, err := h.jwtManager.ValidateToken(tokenString)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := ws.NewClient(h.hub, conn, claims.UserID, claims.Name)
	h.hub.Register(client)

	log.Printf("✅ WS Connected: UserID=%s Name=%s", claims.UserID, claims.Name)

	go client.WritePump()
	go client.ReadPump(h.handleWSEvent)
}

// handleWSEvent processes incoming WebSocket frames from clients.
func (h *WSHandler) handleWSEvent(client *ws.Client, event ws.Event) {
	switch event.Kind {
	case ws.ControlSubscribe:
		h.handleSubscribe(client, event)

	case ws.ControlUnsubscribe:
		h.hub.Unsubscribe(client)

	case ws.EventTypingStart, ws.EventTypingStop:
		h.handleTyping(client, event)

	default:
		log.Printf("Unknown WebSocket event kind: %s", event.Kind)
	}
}

// handleSubscribe attaches the client to a conversation's stream after
// verifying membership. Subscribing replaces any previous subscription.
func (h *WSHandler) handleSubscribe(client *ws.Client, event ws.Event) {
	payload, err := event.DecodeSubscribe()
	if err != nil {
		return
	}

	if _, err := h.messaging.GetConversation(payload.ConversationID, client.UserID); err != nil {
		log.Printf("Subscribe rejected for %s: %v", client.UserID, err)
		return
	}

	h.hub.Subscribe(client, payload.ConversationID)
}

// handleTyping records the indicator and relays it to the other
// participants. Stop frames are best-effort; the tracker's TTL covers
// the ones that never arrive.
func (h *WSHandler) handleTyping(client *ws.Client, event ws.Event) {
	payload, err := event.DecodeTyping()
	if err != nil {
		return
	}

	isMember, err := h.isParticipant(payload.ConversationID, client)
	if err != nil || !isMember {
		return
	}

	if event.Kind == ws.EventTypingStart {
		h.typing.Start(payload.ConversationID, client.UserID, payload.At)
	} else {
		h.typing.Stop(payload.ConversationID, client.UserID)
	}

	relay := ws.TypingEvent(event.Kind, payload.ConversationID, client.UserID)
	h.hub.SendToConversation(payload.ConversationID, relay)
}

func (h *WSHandler) isParticipant(conversationID uuid.UUID, client *ws.Client) (bool, error) {
	_, err := h.messaging.GetConversation(conversationID, client.UserID)
	if err != nil {
		return false, err
	}
	return true, nil
}
