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

type BidRepository interface {
	// Create inserts a pending bid. The unique index on (job, bidder)
	// makes the duplicate check race-safe: the second insert loses with
	// ErrDuplicate no matter how close the submissions are.
	Create(ctx context.Context, bid *models.Bid) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Bid, error)
	ExistsForJobAndBidder(ctx context.Context, jobID, bidderID primitive.ObjectID) (bool, error)
	ListByJob(ctx context.Context, jobID primitive.ObjectID) ([]models.Bid, error)
	ListByBidder(ctx context.Context, bidderID primitive.ObjectID) ([]models.Bid, error)
	ListByJobs(ctx context.Context, jobIDs []primitive.ObjectID) ([]models.Bid, error)
	// UpdateStatusIf transitions the bid only if it still has the
	// expected current status. Reports whether the update applied.
	UpdateStatusIf(ctx context.Context, id primitive.ObjectID, from, to string) (bool, error)
	// RejectOtherPending fails every pending bid on the job except the
	// accepted one.
	RejectOtherPending(ctx context.Context, jobID, acceptedBidID primitive.ObjectID) (int64, error)
	// WithdrawPendingByJob force-withdraws all pending bids of a job,
	// used before the job itself is deleted.
	WithdrawPendingByJob(ctx context.Context, jobID primitive.ObjectID) (int64, error)
}

type bidRepository struct {
	collection *mongo.Collection
}

func NewBidRepository(db *mongo.Database) BidRepository {
	return &bidRepository{collection: db.Collection("bids")}
}

func (r *bidRepository) Create(ctx context.Context, bid *models.Bid) error {
	bid.ID = primitive.NewObjectID()
	bid.Status = models.BidStatusPending
	bid.CreatedAt = time.Now()
	bid.UpdatedAt = bid.CreatedAt
	_, err := r.collection.InsertOne(ctx, bid)
	return translate(err)
}

func (r *bidRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Bid, error) {
	var bid models.Bid
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&bid)
	if err != nil {
		return nil, translate(err)
	}
	return &bid, nil
}

func (r *bidRepository) ExistsForJobAndBidder(ctx context.Context, jobID, bidderID primitive.ObjectID) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"job": jobID, "bidder": bidderID})
	if err != nil {
		return false, translate(err)
	}
	return count > 0, nil
}

// newestFirst is the canonical bid ordering.
var newestFirst = options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

func (r *bidRepository) find(ctx context.Context, filter bson.M) ([]models.Bid, error) {
	cursor, err := r.collection.Find(ctx, filter, newestFirst)
	if err != nil {
		return nil, translate(err)
	}
	defer cursor.Close(ctx)

	var bids []models.Bid
	if err = cursor.All(ctx, &bids); err != nil {
		return nil, translate(err)
	}
	if bids == nil {
		bids = []models.Bid{}
	}
	return bids, nil
}

func (r *bidRepository) ListByJob(ctx context.Context, jobID primitive.ObjectID) ([]models.Bid, error) {
	return r.find(ctx, bson.M{"job": jobID})
}

func (r *bidRepository) ListByBidder(ctx context.Context, bidderID primitive.ObjectID) ([]models.Bid, error) {
	return r.find(ctx, bson.M{"bidder": bidderID})
}

func (r *bidRepository) ListByJobs(ctx context.Context, jobIDs []primitive.ObjectID) ([]models.Bid, error) {
	if len(jobIDs) == 0 {
		return []models.Bid{}, nil
	}
	return r.find(ctx, bson.M{"job": bson.M{"$in": jobIDs}})
}

func (r *bidRepository) UpdateStatusIf(ctx context.Context, id primitive.ObjectID, from, to string) (bool, error) {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to, "updatedAt": time.Now()}},
	)
	if err != nil {
		return false, translate(err)
	}
	return result.ModifiedCount == 1, nil
}

func (r *bidRepository) RejectOtherPending(ctx context.Context, jobID, acceptedBidID primitive.ObjectID) (int64, error) {
	result, err := r.collection.UpdateMany(ctx,
		bson.M{"job": jobID, "_id": bson.M{"$ne": acceptedBidID}, "status": models.BidStatusPending},
		bson.M{"$set": bson.M{"status": models.BidStatusRejected, "updatedAt": time.Now()}},
	)
	if err != nil {
		return 0, translate(err)
	}
	return result.ModifiedCount, nil
}

func (r *bidRepository) WithdrawPendingByJob(ctx context.Context, jobID primitive.ObjectID) (int64, error) {
	result, err := r.collection.UpdateMany(ctx,
		bson.M{"job": jobID, "status": models.BidStatusPending},
		bson.M{"$set": bson.M{"status": models.BidStatusWithdrawn, "updatedAt": time.Now()}},
	)
	if err != nil {
		return 0, translate(err)
	}
	return result.ModifiedCount, nil
}
