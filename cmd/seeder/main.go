package main

import (
	"fmt"
	"log"
	"time"

	"github.com/carecollective/careconnect/internal/config"
	"github.com/carecollective/careconnect/internal/model"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	cfg := config.Load()

	// Force DB logging off to avoid noise
	db, err := gorm.Open(postgres.Open(cfg.DB.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	log.Println("✅ Connected to Database")

	// Common password for all users
	password := "password123"
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("❌ Failed to hash password: %v", err)
	}

	locations := []string{"Riverside", "Oakwood", "Maple Hill", "Cedar Park", "Elm Grove"}

	log.Println("🌱 Seeding 10 users...")
	for i := 1; i <= 10; i++ {
		email := fmt.Sprintf("neighbor%d@careconnect.local", i)

		var existing model.User
		if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
			continue
		}

		user := model.User{
			ID:       uuid.New(),
			Name:     fmt.Sprintf("Neighbor %d", i),
			Email:    email,
			Password: string(hashedPassword),
			Location: locations[i%len(locations)],
			IsAdmin:  i == 1, // first user moderates
			Presence: model.PresenceOffline,
		}

		if err := db.Create(&user).Error; err != nil {
			log.Printf("❌ Failed to create user %s: %v", email, err)
		} else {
			log.Printf("✅ Created user: %s | Pass: %s", email, password)
		}
	}

	seedHelpRequests(db)
	seedHelpConversation(db)

	log.Println("🎉 Seeding completed!")
}

func seedHelpRequests(db *gorm.DB) {
	var users []model.User
	if err := db.Limit(4).Find(&users).Error; err != nil || len(users) < 4 {
		return
	}

	requests := []model.HelpRequest{
		{UserID: users[1].ID, Title: "Need a ride to the pharmacy on Friday", Category: "transport", Urgency: "medium", Status: model.HelpRequestOpen},
		{UserID: users[2].ID, Title: "Looking for help moving a couch", Category: "errands", Urgency: "low", Status: model.HelpRequestOpen},
		{UserID: users[3].ID, Title: "Groceries for an elderly neighbor", Category: "errands", Urgency: "high", Status: model.HelpRequestOpen},
	}

	for i := range requests {
		var count int64
		db.Model(&model.HelpRequest{}).Where("title = ?", requests[i].Title).Count(&count)
		if count > 0 {
			continue
		}
		if err := db.Create(&requests[i]).Error; err != nil {
			log.Printf("❌ Failed to create help request: %v", err)
		} else {
			log.Printf("✅ Created help request: %s", requests[i].Title)
		}
	}
}

func seedHelpConversation(db *gorm.DB) {
	var helpReq model.HelpRequest
	if err := db.First(&helpReq).Error; err != nil {
		return
	}

	var helper model.User
	if err := db.Where("id <> ?", helpReq.UserID).First(&helper).Error; err != nil {
		return
	}

	var count int64
	db.Model(&model.Conversation{}).Where("help_request_id = ?", helpReq.ID).Count(&count)
	if count > 0 {
		return
	}

	now := time.Now()
	conv := model.Conversation{
		ID:            uuid.New(),
		HelpRequestID: &helpReq.ID,
		CreatedBy:     helper.ID,
		Status:        model.ConversationStatusActive,
		LastMessageAt: now,
	}
	if err := db.Create(&conv).Error; err != nil {
		log.Printf("❌ Failed to create conversation: %v", err)
		return
	}

	participants := []model.Participant{
		{ConversationID: conv.ID, UserID: helper.ID, Role: model.ParticipantRoleMember, JoinedAt: now},
		{ConversationID: conv.ID, UserID: helpReq.UserID, Role: model.ParticipantRoleMember, JoinedAt: now},
	}
	if err := db.Create(&participants).Error; err != nil {
		log.Printf("❌ Failed to create participants: %v", err)
		return
	}

	msg := model.Message{
		ConversationID: conv.ID,
		SenderID:       helper.ID,
		RecipientID:    helpReq.UserID,
		HelpRequestID:  &helpReq.ID,
		Content:        "Hi! I saw your request and I'd be glad to help out this week.",
		MessageType:    model.MessageTypeText,
		Status:         model.MessageStatusSent,
	}
	if err := db.Create(&msg).Error; err != nil {
		log.Printf("❌ Failed to create message: %v", err)
		return
	}

	log.Printf("✅ Created demo help conversation %s", conv.ID)
}
