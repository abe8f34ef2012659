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

type ReviewRepository interface {
	// Create inserts a review; the unique (reviewer, reviewee, job)
	// index turns a second submission into ErrDuplicate.
	Create(ctx context.Context, review *models.Review) error
	ListByReviewee(ctx context.Context, revieweeID primitive.ObjectID) ([]models.Review, error)
	// RatingsFor returns every rating value recorded against the user,
	// for the full scan-and-average recomputation.
	RatingsFor(ctx context.Context, revieweeID primitive.ObjectID) ([]int, error)
}

type reviewRepository struct {
	collection *mongo.Collection
}

func NewReviewRepository(db *mongo.Database) ReviewRepository {
	return &reviewRepository{collection: db.Collection("reviews")}
}

func (r *reviewRepository) Create(ctx context.Context, review *models.Review) error {
	review.ID = primitive.NewObjectID()
	review.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, review)
	return translate(err)
}

func (r *reviewRepository) ListByReviewee(ctx context.Context, revieweeID primitive.ObjectID) ([]models.Review, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"reviewee": revieweeID}, opts)
	if err != nil {
		return nil, translate(err)
	}
	defer cursor.Close(ctx)

	var reviews []models.Review
	if err = cursor.All(ctx, &reviews); err != nil {
		return nil, translate(err)
	}
	if reviews == nil {
		reviews = []models.Review{}
	}
	return reviews, nil
}

func (r *reviewRepository) RatingsFor(ctx context.Context, revieweeID primitive.ObjectID) ([]int, error) {
	opts := options.Find().SetProjection(bson.M{"rating": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"reviewee": revieweeID}, opts)
	if err != nil {
		return nil, translate(err)
	}
	defer cursor.Close(ctx)

	var ratings []int
	for cursor.Next(ctx) {
		var doc struct {
			Rating int `bson:"rating"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, translate(err)
		}
		ratings = append(ratings, doc.Rating)
	}
	return ratings, translate(cursor.Err())
}
