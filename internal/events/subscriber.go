package events

import (
	"context"
	"encoding/json"
	"log"

	"freight-market-api-server/internal/models"
	"freight-market-api-server/internal/repository"
	"freight-market-api-server/internal/socket"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Mailer delivers high-priority notifications by email.
type Mailer interface {
	Send(to, subject, body string) error
}

// Subscriber consumes domain events and fans them out: a persisted
// Notification, a websocket push, and an email for high priority. Each
// sink is independent, a failed one does not block the others.
type Subscriber struct {
	rdb           *redis.Client
	notifications repository.NotificationRepository
	users         repository.UserRepository
	hub           *socket.Hub
	mailer        Mailer
}

func NewSubscriber(rdb *redis.Client, notifications repository.NotificationRepository, users repository.UserRepository, hub *socket.Hub, mailer Mailer) *Subscriber {
	return &Subscriber{
		rdb:           rdb,
		notifications: notifications,
		users:         users,
		hub:           hub,
		mailer:        mailer,
	}
}

// Run blocks consuming the events channel until ctx is cancelled.
func (s *Subscriber) Run(ctx context.Context) {
	pubsub := s.rdb.Subscribe(ctx, Channel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	log.Println("Subscribed to events channel:", Channel)

	for {
		select {
		case <-ctx.Done():
			log.Println("Stopping event subscriber")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Printf("Invalid event payload: %v", err)
				continue
			}
			s.Handle(ctx, event)
		}
	}
}

// Handle persists and delivers one event.
func (s *Subscriber) Handle(ctx context.Context, event Event) {
	userID, err := primitive.ObjectIDFromHex(event.User)
	if err != nil {
		log.Printf("Event %s has invalid user id %q: %v", event.Type, event.User, err)
		return
	}

	priority := event.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}

	notification := &models.Notification{
		User:     userID,
		Type:     event.Type,
		Title:    event.Title,
		Message:  event.Message,
		Data:     bson.M(event.Data),
		Priority: priority,
	}
	if err := s.notifications.Create(ctx, notification); err != nil {
		log.Printf("Failed to save %s notification for %s: %v", event.Type, event.User, err)
		return
	}

	if s.hub != nil {
		if payload, err := json.Marshal(notification); err == nil {
			if err := s.hub.Send(event.User, payload); err != nil {
				log.Printf("Failed to push notification to %s: %v", event.User, err)
			}
		}
	}

	if priority == models.PriorityHigh && s.mailer != nil {
		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			log.Printf("Failed to look up %s for notification email: %v", event.User, err)
			return
		}
		if err := s.mailer.Send(user.Email, event.Title, event.Message); err != nil {
			log.Printf("Failed to email notification to %s: %v", user.Email, err)
		}
	}
}
