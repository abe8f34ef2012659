package repository

import (
	"context"
	"time"

	"freight-market-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	ListConversation(ctx context.Context, conversationID string) ([]models.Message, error)
	MarkConversationRead(ctx context.Context, conversationID string, receiverID primitive.ObjectID) (int64, error)
	// Conversations returns the latest message of every thread the user
	// is part of, newest thread first, with the user's unread count.
	Conversations(ctx context.Context, userID primitive.ObjectID) ([]models.Conversation, error)
}

type messageRepository struct {
	collection *mongo.Collection
}

func NewMessageRepository(db *mongo.Database) MessageRepository {
	return &messageRepository{collection: db.Collection("messages")}
}

func (r *messageRepository) Create(ctx context.Context, message *models.Message) error {
	message.ID = primitive.NewObjectID()
	message.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, message)
	return translate(err)
}

func (r *messageRepository) ListConversation(ctx context.Context, conversationID string) ([]models.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"conversationID": conversationID}, opts)
	if err != nil {
		return nil, translate(err)
	}
	defer cursor.Close(ctx)

	var messages []models.Message
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, translate(err)
	}
	if messages == nil {
		messages = []models.Message{}
	}
	return messages, nil
}

func (r *messageRepository) MarkConversationRead(ctx context.Context, conversationID string, receiverID primitive.ObjectID) (int64, error) {
	result, err := r.collection.UpdateMany(ctx,
		bson.M{"conversationID": conversationID, "receiver": receiverID, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return 0, translate(err)
	}
	return result.ModifiedCount, nil
}

func (r *messageRepository) Conversations(ctx context.Context, userID primitive.ObjectID) ([]models.Conversation, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"$or": []bson.M{
			{"sender": userID},
			{"receiver": userID},
		}}}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		{{Key: "$group", Value: bson.M{
			"_id":         "$conversationID",
			"lastMessage": bson.M{"$first": "$$ROOT"},
			"unread": bson.M{"$sum": bson.M{"$cond": []interface{}{
				bson.M{"$and": []bson.M{
					{"$eq": []interface{}{"$receiver", userID}},
					{"$eq": []interface{}{"$read", false}},
				}},
				1,
				0,
			}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "lastMessage.createdAt", Value: -1}}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, translate(err)
	}
	defer cursor.Close(ctx)

	conversations := []models.Conversation{}
	for cursor.Next(ctx) {
		var doc struct {
			ID          string         `bson:"_id"`
			LastMessage models.Message `bson:"lastMessage"`
			Unread      int64          `bson:"unread"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, translate(err)
		}
		conversations = append(conversations, models.Conversation{
			ConversationID: doc.ID,
			LastMessage:    doc.LastMessage,
			Unread:         doc.Unread,
		})
	}
	return conversations, translate(cursor.Err())
}
