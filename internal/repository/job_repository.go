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

// JobQuery carries the server-side filter, sort and pagination for job
// listings. Page is 1-indexed.
type JobQuery struct {
	Search      string
	City        string
	LoadType    string
	VehicleType string
	MinAmount   *float64
	MaxAmount   *float64
	SortBy      string
	Page        int64
	Limit       int64
}

type JobRepository interface {
	Create(ctx context.Context, job *models.Job) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Job, error)
	List(ctx context.Context, q JobQuery) ([]models.Job, int64, error)
	ListByPoster(ctx context.Context, posterID primitive.ObjectID) ([]models.Job, error)
	Update(ctx context.Context, id primitive.ObjectID, patch bson.M) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	PushBid(ctx context.Context, jobID, bidID primitive.ObjectID) error
	IncrementViews(ctx context.Context, id primitive.ObjectID) error
	// TransitionStatus flips the job status only if it still has the
	// expected current status, optionally recording the accepted bid.
	// Reports whether this caller won the update.
	TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to string, acceptedBid *primitive.ObjectID) (bool, error)
	// ClearAcceptedBid rolls a job back to active bidding after a failed
	// acceptance.
	ClearAcceptedBid(ctx context.Context, id primitive.ObjectID) error
	GetMany(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Job, error)
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}

type jobRepository struct {
	collection *mongo.Collection
}

func NewJobRepository(db *mongo.Database) JobRepository {
	return &jobRepository{collection: db.Collection("jobs")}
}

func (r *jobRepository) Create(ctx context.Context, job *models.Job) error {
	job.ID = primitive.NewObjectID()
	job.CreatedAt = time.Now()
	job.UpdatedAt = job.CreatedAt
	_, err := r.collection.InsertOne(ctx, job)
	return translate(err)
}

func (r *jobRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Job, error) {
	var job models.Job
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&job)
	if err != nil {
		return nil, translate(err)
	}
	return &job, nil
}

// BuildJobFilter turns a JobQuery into the Mongo filter document.
// Exported so the query construction stays directly testable.
func BuildJobFilter(q JobQuery) bson.M {
	filter := bson.M{"status": models.JobStatusActive}

	if q.Search != "" {
		pattern := primitive.Regex{Pattern: q.Search, Options: "i"}
		filter["$or"] = []bson.M{
			{"title": pattern},
			{"description": pattern},
			{"route.from.city": pattern},
			{"route.to.city": pattern},
		}
	}
	if q.City != "" {
		city := primitive.Regex{Pattern: "^" + q.City + "$", Options: "i"}
		filter["$and"] = []bson.M{
			{"$or": []bson.M{
				{"route.from.city": city},
				{"route.to.city": city},
			}},
		}
	}
	if q.LoadType != "" {
		filter["loadDetails.type"] = q.LoadType
	}
	if q.VehicleType != "" {
		filter["vehicleRequirement.type"] = q.VehicleType
	}
	amount := bson.M{}
	if q.MinAmount != nil {
		amount["$gte"] = *q.MinAmount
	}
	if q.MaxAmount != nil {
		amount["$lte"] = *q.MaxAmount
	}
	if len(amount) > 0 {
		filter["payment.amount"] = amount
	}
	return filter
}

// BuildJobSort maps a sort key to the Mongo sort document. Newest first
// is the default.
func BuildJobSort(sortBy string) bson.D {
	switch sortBy {
	case "oldest":
		return bson.D{{Key: "createdAt", Value: 1}}
	case "highest":
		return bson.D{{Key: "payment.amount", Value: -1}}
	case "lowest":
		return bson.D{{Key: "payment.amount", Value: 1}}
	case "soonest":
		return bson.D{{Key: "schedule.pickupDate", Value: 1}}
	default:
		return bson.D{{Key: "createdAt", Value: -1}}
	}
}

func (r *jobRepository) List(ctx context.Context, q JobQuery) ([]models.Job, int64, error) {
	filter := BuildJobFilter(q)

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, translate(err)
	}

	opts := options.Find().
		SetSort(BuildJobSort(q.SortBy)).
		SetSkip((q.Page - 1) * q.Limit).
		SetLimit(q.Limit)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, translate(err)
	}
	defer cursor.Close(ctx)

	var jobs []models.Job
	if err = cursor.All(ctx, &jobs); err != nil {
		return nil, 0, translate(err)
	}
	if jobs == nil {
		jobs = []models.Job{}
	}
	return jobs, total, nil
}

func (r *jobRepository) ListByPoster(ctx context.Context, posterID primitive.ObjectID) ([]models.Job, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"postedBy": posterID}, opts)
	if err != nil {
		return nil, translate(err)
	}
	defer cursor.Close(ctx)

	var jobs []models.Job
	if err = cursor.All(ctx, &jobs); err != nil {
		return nil, translate(err)
	}
	if jobs == nil {
		jobs = []models.Job{}
	}
	return jobs, nil
}

func (r *jobRepository) Update(ctx context.Context, id primitive.ObjectID, patch bson.M) error {
	patch["updatedAt"] = time.Now()
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": patch})
	if err != nil {
		return translate(err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *jobRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate(err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *jobRepository) PushBid(ctx context.Context, jobID, bidID primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": jobID}, bson.M{
		"$push": bson.M{"bids": bidID},
		"$set":  bson.M{"updatedAt": time.Now()},
	})
	return translate(err)
}

func (r *jobRepository) IncrementViews(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"views": 1}})
	return translate(err)
}

func (r *jobRepository) TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to string, acceptedBid *primitive.ObjectID) (bool, error) {
	set := bson.M{"status": to, "updatedAt": time.Now()}
	if acceptedBid != nil {
		set["acceptedBid"] = *acceptedBid
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id, "status": from}, bson.M{"$set": set})
	if err != nil {
		return false, translate(err)
	}
	return result.ModifiedCount == 1, nil
}

func (r *jobRepository) ClearAcceptedBid(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set":   bson.M{"status": models.JobStatusActive, "updatedAt": time.Now()},
		"$unset": bson.M{"acceptedBid": ""},
	})
	return translate(err)
}

func (r *jobRepository) GetMany(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Job, error) {
	jobs := make(map[primitive.ObjectID]models.Job, len(ids))
	if len(ids) == 0 {
		return jobs, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, translate(err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var job models.Job
		if err := cursor.Decode(&job); err != nil {
			return nil, translate(err)
		}
		jobs[job.ID] = job
	}
	return jobs, translate(cursor.Err())
}

func (r *jobRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.collection.UpdateMany(ctx,
		bson.M{"status": models.JobStatusActive, "expiresAt": bson.M{"$lt": now}},
		bson.M{"$set": bson.M{"status": models.JobStatusExpired, "updatedAt": now}},
	)
	if err != nil {
		return 0, translate(err)
	}
	return result.ModifiedCount, nil
}
