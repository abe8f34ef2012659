package services

import (
	"context"
	"errors"
	"log"

	"freight-market-api-server/internal/models"
	"freight-market-api-server/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MessageService interface {
	Send(ctx context.Context, senderID, receiverID primitive.ObjectID, content string) (*models.Message, error)
	Conversations(ctx context.Context, userID primitive.ObjectID) ([]models.Conversation, error)
	// Thread returns the messages between two users oldest first, and
	// marks the caller's side of the conversation read.
	Thread(ctx context.Context, userID, otherID primitive.ObjectID) ([]models.Message, error)
}

type messageService struct {
	messages repository.MessageRepository
	users    repository.UserRepository
}

func NewMessageService(messages repository.MessageRepository, users repository.UserRepository) MessageService {
	return &messageService{messages: messages, users: users}
}

func (s *messageService) Send(ctx context.Context, senderID, receiverID primitive.ObjectID, content string) (*models.Message, error) {
	var fields fieldErrors
	if content == "" {
		fields.add("content", "content is required")
	}
	if err := fields.err(); err != nil {
		return nil, err
	}
	if senderID == receiverID {
		return nil, conflict("cannot message yourself")
	}
	if _, err := s.users.GetByID(ctx, receiverID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	message := &models.Message{
		ConversationID: models.ConversationID(senderID, receiverID),
		Sender:         senderID,
		Receiver:       receiverID,
		Content:        content,
	}
	if err := s.messages.Create(ctx, message); err != nil {
		return nil, err
	}
	return message, nil
}

func (s *messageService) Conversations(ctx context.Context, userID primitive.ObjectID) ([]models.Conversation, error) {
	return s.messages.Conversations(ctx, userID)
}

func (s *messageService) Thread(ctx context.Context, userID, otherID primitive.ObjectID) ([]models.Message, error) {
	conversationID := models.ConversationID(userID, otherID)
	messages, err := s.messages.ListConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if _, err := s.messages.MarkConversationRead(ctx, conversationID, userID); err != nil {
		log.Printf("Failed to mark conversation %s read: %v", conversationID, err)
	}
	return messages, nil
}
