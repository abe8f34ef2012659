package services

import (
	"context"
	"errors"
	"log"
	"math"

	"freight-market-api-server/internal/models"
	"freight-market-api-server/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CreateReviewInput struct {
	JobID      primitive.ObjectID
	Rating     int
	Categories models.CategoryRatings
	Comment    string
}

type ReviewService interface {
	// Create persists a review against the counterpart of a completed
	// job and recomputes the reviewee's rating aggregate.
	Create(ctx context.Context, reviewerID primitive.ObjectID, input CreateReviewInput) (*models.Review, error)
	ForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Review, error)
}

type reviewService struct {
	reviews repository.ReviewRepository
	jobs    repository.JobRepository
	bids    repository.BidRepository
	users   repository.UserRepository
}

func NewReviewService(reviews repository.ReviewRepository, jobs repository.JobRepository, bids repository.BidRepository, users repository.UserRepository) ReviewService {
	return &reviewService{reviews: reviews, jobs: jobs, bids: bids, users: users}
}

func validCategory(v int) bool { return v == 0 || (v >= 1 && v <= 5) }

func (s *reviewService) Create(ctx context.Context, reviewerID primitive.ObjectID, input CreateReviewInput) (*models.Review, error) {
	var fields fieldErrors
	if input.Rating < 1 || input.Rating > 5 {
		fields.add("rating", "rating must be an integer between 1 and 5")
	}
	if !validCategory(input.Categories.Communication) {
		fields.add("categories.communication", "rating must be between 1 and 5")
	}
	if !validCategory(input.Categories.Punctuality) {
		fields.add("categories.punctuality", "rating must be between 1 and 5")
	}
	if !validCategory(input.Categories.Care) {
		fields.add("categories.care", "rating must be between 1 and 5")
	}
	if err := fields.err(); err != nil {
		return nil, err
	}

	job, err := s.jobs.GetByID(ctx, input.JobID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if job.Status != models.JobStatusCompleted {
		return nil, conflict("reviews are only allowed once the job is completed")
	}
	if job.AcceptedBid == nil {
		return nil, conflict("job has no accepted bid to review against")
	}

	bid, err := s.bids.GetByID(ctx, *job.AcceptedBid)
	if err != nil {
		return nil, err
	}

	// The reviewer must be one side of the completed job; the reviewee
	// is the counterpart.
	var revieweeID primitive.ObjectID
	switch reviewerID {
	case job.PostedBy:
		revieweeID = bid.Bidder
	case bid.Bidder:
		revieweeID = job.PostedBy
	default:
		return nil, ErrForbidden
	}

	review := &models.Review{
		Reviewer:   reviewerID,
		Reviewee:   revieweeID,
		Job:        job.ID,
		RatingVal:  input.Rating,
		Categories: input.Categories,
		Comment:    input.Comment,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflict("review already submitted for this job")
		}
		return nil, err
	}

	// Best-effort: the review stands even if the aggregate update fails.
	if err := s.recomputeRating(ctx, revieweeID); err != nil {
		log.Printf("Failed to recompute rating of %s: %v", revieweeID.Hex(), err)
	}

	return review, nil
}

func (s *reviewService) ForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Review, error) {
	return s.reviews.ListByReviewee(ctx, userID)
}

// RecomputeRating derives the aggregate from the full set of ratings.
// Idempotent: re-running with the same inputs yields the same aggregate.
func RecomputeRating(ratings []int) models.Rating {
	if len(ratings) == 0 {
		return models.Rating{Average: 0, Count: 0}
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	mean := float64(sum) / float64(len(ratings))
	return models.Rating{
		Average: math.Round(mean*10) / 10,
		Count:   len(ratings),
	}
}

func (s *reviewService) recomputeRating(ctx context.Context, revieweeID primitive.ObjectID) error {
	ratings, err := s.reviews.RatingsFor(ctx, revieweeID)
	if err != nil {
		return err
	}
	return s.users.SetRating(ctx, revieweeID, RecomputeRating(ratings))
}
