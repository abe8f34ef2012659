package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"freight-market-api-server/internal/cache"
	"freight-market-api-server/internal/events"
	"freight-market-api-server/internal/models"
	"freight-market-api-server/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	jobListCachePrefix = "jobs:list:"
	jobListCacheTTL    = time.Minute
)

type CreateJobInput struct {
	Title       string
	Description string
	Route       models.Route
	Load        models.LoadDetails
	Vehicle     models.VehicleRequirement
	Schedule    models.Schedule
	Payment     models.Payment
}

// UpdateJobInput carries the fields of a shallow-merge edit; nil means
// leave as is.
type UpdateJobInput struct {
	Title       *string
	Description *string
	Route       *models.Route
	Load        *models.LoadDetails
	Vehicle     *models.VehicleRequirement
	Schedule    *models.Schedule
	Payment     *models.Payment
}

// JobPage is one page of a filtered listing.
type JobPage struct {
	Jobs       []models.Job `json:"jobs"`
	Total      int64        `json:"total"`
	Page       int64        `json:"page"`
	Limit      int64        `json:"limit"`
	TotalPages int64        `json:"totalPages"`
}

type JobService interface {
	Create(ctx context.Context, posterID primitive.ObjectID, input CreateJobInput) (*models.Job, error)
	List(ctx context.Context, q repository.JobQuery) (*JobPage, error)
	// Get resolves one job and counts the view. Lost increments under
	// concurrent reads are tolerated.
	Get(ctx context.Context, id primitive.ObjectID) (*models.Job, error)
	Update(ctx context.Context, id, actorID primitive.ObjectID, input UpdateJobInput) (*models.Job, error)
	Delete(ctx context.Context, id, actorID primitive.ObjectID) error
	Complete(ctx context.Context, id, actorID primitive.ObjectID) (*models.Job, error)
	Mine(ctx context.Context, posterID primitive.ObjectID) ([]models.Job, error)
	StartExpirySweep(ctx context.Context, interval time.Duration)
}

type jobService struct {
	jobs      repository.JobRepository
	bids      repository.BidRepository
	publisher events.Publisher
	cache     *cache.Cache
}

func NewJobService(jobs repository.JobRepository, bids repository.BidRepository, publisher events.Publisher, c *cache.Cache) JobService {
	return &jobService{jobs: jobs, bids: bids, publisher: publisher, cache: c}
}

// ValidateJob collects every failing required field of a posting.
func ValidateJob(input CreateJobInput) error {
	var fields fieldErrors
	if input.Title == "" {
		fields.add("title", "title is required")
	}
	if input.Description == "" {
		fields.add("description", "description is required")
	}
	if input.Route.From.City == "" {
		fields.add("route.from.city", "origin city is required")
	}
	if input.Route.To.City == "" {
		fields.add("route.to.city", "destination city is required")
	}
	if input.Load.Type == "" {
		fields.add("loadDetails.type", "load type is required")
	}
	if input.Payment.Amount <= 0 {
		fields.add("payment.amount", "payment amount must be a positive number")
	}
	return fields.err()
}

func (s *jobService) Create(ctx context.Context, posterID primitive.ObjectID, input CreateJobInput) (*models.Job, error) {
	if err := ValidateJob(input); err != nil {
		return nil, err
	}

	job := &models.Job{
		PostedBy:    posterID,
		Title:       input.Title,
		Description: input.Description,
		Route:       input.Route,
		Load:        input.Load,
		Vehicle:     input.Vehicle,
		Schedule:    input.Schedule,
		Payment:     input.Payment,
		Status:      models.JobStatusActive,
		Bids:        []primitive.ObjectID{},
		Views:       0,
		ExpiresAt:   time.Now().Add(models.JobExpiry),
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}
	s.invalidateListings(ctx)
	return job, nil
}

// TotalPages computes the page count of an offset-paginated listing.
func TotalPages(total, limit int64) int64 {
	if limit <= 0 {
		return 0
	}
	return int64(math.Ceil(float64(total) / float64(limit)))
}

func (s *jobService) List(ctx context.Context, q repository.JobQuery) (*JobPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 12
	}

	key := cache.Key(jobListCachePrefix, q)
	var cached JobPage
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	jobs, total, err := s.jobs.List(ctx, q)
	if err != nil {
		return nil, err
	}
	page := &JobPage{
		Jobs:       jobs,
		Total:      total,
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: TotalPages(total, q.Limit),
	}
	s.cache.Set(ctx, key, page, jobListCacheTTL)
	return page, nil
}

func (s *jobService) Get(ctx context.Context, id primitive.ObjectID) (*models.Job, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.jobs.IncrementViews(ctx, id); err != nil {
		log.Printf("Failed to count view of job %s: %v", id.Hex(), err)
	} else {
		job.Views++
	}
	return job, nil
}

// ownedJob resolves a job and checks the acting user posted it.
func (s *jobService) ownedJob(ctx context.Context, id, actorID primitive.ObjectID) (*models.Job, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if job.PostedBy != actorID {
		return nil, ErrForbidden
	}
	return job, nil
}

func (s *jobService) Update(ctx context.Context, id, actorID primitive.ObjectID, input UpdateJobInput) (*models.Job, error) {
	if _, err := s.ownedJob(ctx, id, actorID); err != nil {
		return nil, err
	}

	patch := bson.M{}
	if input.Title != nil {
		patch["title"] = *input.Title
	}
	if input.Description != nil {
		patch["description"] = *input.Description
	}
	if input.Route != nil {
		patch["route"] = *input.Route
	}
	if input.Load != nil {
		patch["loadDetails"] = *input.Load
	}
	if input.Vehicle != nil {
		patch["vehicleRequirement"] = *input.Vehicle
	}
	if input.Schedule != nil {
		patch["schedule"] = *input.Schedule
	}
	if input.Payment != nil {
		if input.Payment.Amount <= 0 {
			return nil, &ValidationError{Fields: []FieldError{{Field: "payment.amount", Message: "payment amount must be a positive number"}}}
		}
		patch["payment"] = *input.Payment
	}
	if len(patch) > 0 {
		if err := s.jobs.Update(ctx, id, patch); err != nil {
			return nil, err
		}
		s.invalidateListings(ctx)
	}
	return s.jobs.GetByID(ctx, id)
}

// Delete removes a posting. A job with an accepted bid cannot be
// deleted; remaining pending bids are force-withdrawn first so no bid is
// left dangling in a live state.
func (s *jobService) Delete(ctx context.Context, id, actorID primitive.ObjectID) error {
	job, err := s.ownedJob(ctx, id, actorID)
	if err != nil {
		return err
	}
	if job.AcceptedBid != nil {
		return conflict("job with an accepted bid cannot be deleted")
	}
	if _, err := s.bids.WithdrawPendingByJob(ctx, id); err != nil {
		return err
	}
	if err := s.jobs.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.invalidateListings(ctx)
	return nil
}

// Complete moves an in-progress job to completed, which is what unlocks
// reviews for both sides.
func (s *jobService) Complete(ctx context.Context, id, actorID primitive.ObjectID) (*models.Job, error) {
	job, err := s.ownedJob(ctx, id, actorID)
	if err != nil {
		return nil, err
	}

	won, err := s.jobs.TransitionStatus(ctx, id, models.JobStatusInProgress, models.JobStatusCompleted, nil)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, conflict("job is not in progress")
	}
	job.Status = models.JobStatusCompleted

	if job.AcceptedBid != nil {
		if bid, err := s.bids.GetByID(ctx, *job.AcceptedBid); err == nil {
			events.LogPublish(ctx, s.publisher, events.Event{
				Type:     models.NotificationJobCompleted,
				User:     bid.Bidder.Hex(),
				Title:    "Job completed",
				Message:  fmt.Sprintf("%q was marked as completed, you can now leave a review", job.Title),
				Priority: models.PriorityNormal,
				Data: map[string]interface{}{
					"jobId": job.ID.Hex(),
					"bidId": bid.ID.Hex(),
				},
			})
		} else {
			log.Printf("Failed to load accepted bid of job %s for completion notice: %v", job.ID.Hex(), err)
		}
	}
	return job, nil
}

func (s *jobService) Mine(ctx context.Context, posterID primitive.ObjectID) ([]models.Job, error) {
	return s.jobs.ListByPoster(ctx, posterID)
}

// StartExpirySweep runs the background loop that retires active jobs
// past their expiry date.
func (s *jobService) StartExpirySweep(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Println("Stopping job expiry sweep")
				return
			case <-ticker.C:
				expired, err := s.jobs.ExpireOverdue(ctx, time.Now())
				if err != nil {
					log.Printf("Job expiry sweep failed: %v", err)
					continue
				}
				if expired > 0 {
					log.Printf("Expired %d overdue jobs", expired)
					s.invalidateListings(ctx)
				}
			}
		}
	}()
}

func (s *jobService) invalidateListings(ctx context.Context) {
	s.cache.DeletePrefix(ctx, jobListCachePrefix)
}
