package notification

import (
	"context"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// TokenStore resolves a user's registered device tokens.
type TokenStore interface {
	Tokens(userID uuid.UUID) ([]string, error)
}

// PreferenceSource answers whether a user wants push notifications.
type PreferenceSource interface {
	PushEnabled(userID uuid.UUID) bool
}

// NotificationService sends FCM pushes for messages that arrive while the
// recipient is offline. A nil service is safe to call; pushes are simply
// disabled.
type NotificationService struct {
	client *messaging.Client
	tokens TokenStore
	prefs  PreferenceSource
}

func NewNotificationService(credentialsFile string, tokens TokenStore, prefs PreferenceSource) (*NotificationService, error) {
	if credentialsFile == "" {
		log.Println("⚠️ Firebase credentials not provided, push notifications disabled")
		return nil, nil
	}

	opt := option.WithCredentialsFile(credentialsFile)
	app, err := firebase.NewApp(context.Background(), nil, opt)
	if err != nil {
		// Log warning instead of error to not block server startup
		log.Printf("⚠️ Failed to initialize Firebase app: %v (push notifications disabled)", err)
		return nil, nil
	}

	client, err := app.Messaging(context.Background())
	if err != nil {
		log.Printf("⚠️ Failed to get messaging client: %v", err)
		return nil, nil
	}

	log.Println("✅ Firebase FCM initialized")
	return &NotificationService{client: client, tokens: tokens, prefs: prefs}, nil
}

// NotifyNewMessage pushes a new-message notification to every device the
// recipient has registered.
func (s *NotificationService) NotifyNewMessage(recipientID uuid.UUID, senderName, preview string) {
	if s == nil || s.client == nil {
		return
	}
	if s.prefs != nil && !s.prefs.PushEnabled(recipientID) {
		return
	}

	tokens, err := s.tokens.Tokens(recipientID)
	if err != nil {
		log.Printf("⚠️ Failed to load device tokens for %s: %v", recipientID, err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	message := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: senderName,
			Body:  preview,
		},
		Data: map[string]string{
			"type":        "new_message",
			"sender_name": senderName,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
				},
			},
		},
	}

	br, err := s.client.SendMulticast(context.Background(), message)
	if err != nil {
		log.Printf("⚠️ FCM send error: %v", err)
		return
	}
	if br.FailureCount > 0 {
		for idx, resp := range br.Responses {
			if !resp.Success {
				log.Printf("⚠️ FCM failure for token %s: %v", tokens[idx], resp.Error)
			}
		}
	}
}
