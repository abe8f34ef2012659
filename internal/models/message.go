package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Message struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ConversationID string             `bson:"conversationID" json:"conversationID"`
	Sender         primitive.ObjectID `bson:"sender" json:"sender"`
	Receiver       primitive.ObjectID `bson:"receiver" json:"receiver"`
	Content        string             `bson:"content" json:"content"`
	Read           bool               `bson:"read" json:"read"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
}

// ConversationID derives the stable, order-independent key that groups
// the messages between two users: the two hex ids sorted and joined.
func ConversationID(a, b primitive.ObjectID) string {
	ah, bh := a.Hex(), b.Hex()
	if ah < bh {
		return ah + "_" + bh
	}
	return bh + "_" + ah
}

// Conversation is the inbox summary entry: the latest message of a
// thread plus the unread count for the requesting user.
type Conversation struct {
	ConversationID string  `json:"conversationID"`
	LastMessage    Message `json:"lastMessage"`
	Unread         int64   `json:"unread"`
}
