package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"freight-market-api-server/internal/cache"
	"freight-market-api-server/internal/events"
	"freight-market-api-server/internal/models"
	"freight-market-api-server/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SubmitBidInput is a driver's proposal against an open job.
type SubmitBidInput struct {
	JobID             primitive.ObjectID
	Amount            float64
	Currency          string
	Message           string
	ProposedStartDate time.Time
	EstimatedDays     int
}

type BidService interface {
	Submit(ctx context.Context, bidderID primitive.ObjectID, input SubmitBidInput) (*models.BidView, error)
	Accept(ctx context.Context, bidID, actorID primitive.ObjectID) (*models.Bid, error)
	Reject(ctx context.Context, bidID, actorID primitive.ObjectID) (*models.Bid, error)
	Withdraw(ctx context.Context, bidID, actorID primitive.ObjectID) error
	ListForJob(ctx context.Context, jobID, actorID primitive.ObjectID) ([]models.BidView, error)
	ListForEmployer(ctx context.Context, employerID primitive.ObjectID) ([]models.BidView, error)
	ListMine(ctx context.Context, bidderID primitive.ObjectID) ([]models.BidView, error)
}

type bidService struct {
	bids      repository.BidRepository
	jobs      repository.JobRepository
	users     repository.UserRepository
	publisher events.Publisher
	cache     *cache.Cache
}

func NewBidService(bids repository.BidRepository, jobs repository.JobRepository, users repository.UserRepository, publisher events.Publisher, c *cache.Cache) BidService {
	return &bidService{bids: bids, jobs: jobs, users: users, publisher: publisher, cache: c}
}

// Submit runs the precondition chain in its fixed order: existence,
// state, ownership, uniqueness. The first violated condition wins.
func (s *bidService) Submit(ctx context.Context, bidderID primitive.ObjectID, input SubmitBidInput) (*models.BidView, error) {
	var fields fieldErrors
	if input.Amount <= 0 {
		fields.add("amount", "amount must be a positive number")
	}
	if input.Currency == "" {
		fields.add("currency", "currency is required")
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
	if job.Status != models.JobStatusActive {
		return nil, conflict("bidding is closed for this job")
	}
	if job.PostedBy == bidderID {
		return nil, conflict("cannot bid on own job")
	}

	// Friendly pre-check; the unique (job, bidder) index is what makes
	// the duplicate race lose at the store.
	exists, err := s.bids.ExistsForJobAndBidder(ctx, input.JobID, bidderID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, conflict("duplicate bid")
	}

	bid := &models.Bid{
		Job:               input.JobID,
		Bidder:            bidderID,
		Amount:            input.Amount,
		Currency:          input.Currency,
		Message:           input.Message,
		ProposedStartDate: input.ProposedStartDate,
		EstimatedDays:     input.EstimatedDays,
	}
	if err := s.bids.Create(ctx, bid); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflict("duplicate bid")
		}
		return nil, err
	}
	if err := s.jobs.PushBid(ctx, job.ID, bid.ID); err != nil {
		return nil, err
	}

	events.LogPublish(ctx, s.publisher, events.Event{
		Type:     models.NotificationBidReceived,
		User:     job.PostedBy.Hex(),
		Title:    "New bid received",
		Message:  fmt.Sprintf("A new bid of %.2f %s was placed on %q", bid.Amount, bid.Currency, job.Title),
		Priority: models.PriorityNormal,
		Data: map[string]interface{}{
			"jobId":  job.ID.Hex(),
			"bidId":  bid.ID.Hex(),
			"amount": bid.Amount,
		},
	})

	view := models.BidView{Bid: *bid, JobTitle: job.Title, JobStatus: job.Status}
	if bidder, err := s.users.GetByID(ctx, bidderID); err == nil {
		view.BidderName = bidder.Name
		view.BidderRating = bidder.Rating
	}
	return &view, nil
}

// loadBidAndJob resolves a bid with its parent job, mapping missing
// documents to NotFound.
func (s *bidService) loadBidAndJob(ctx context.Context, bidID primitive.ObjectID) (*models.Bid, *models.Job, error) {
	bid, err := s.bids.GetByID(ctx, bidID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	job, err := s.jobs.GetByID(ctx, bid.Job)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	return bid, job, nil
}

// Accept awards the job to one bid. The job transition active ->
// in-progress is the compare-and-swap that decides races: of two
// near-simultaneous accepts on different bids of the same job, exactly
// one caller flips the status and the other observes a conflict.
func (s *bidService) Accept(ctx context.Context, bidID, actorID primitive.ObjectID) (*models.Bid, error) {
	bid, job, err := s.loadBidAndJob(ctx, bidID)
	if err != nil {
		return nil, err
	}
	if job.PostedBy != actorID {
		return nil, ErrForbidden
	}
	if bid.Status != models.BidStatusPending {
		return nil, conflict("bid is not pending")
	}

	won, err := s.jobs.TransitionStatus(ctx, job.ID, models.JobStatusActive, models.JobStatusInProgress, &bid.ID)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, conflict("job is no longer open for bidding")
	}

	flipped, err := s.bids.UpdateStatusIf(ctx, bid.ID, models.BidStatusPending, models.BidStatusAccepted)
	if err != nil || !flipped {
		// The bid reached a terminal state between the load and the
		// update (e.g. withdrawn). Reopen the job.
		if rbErr := s.jobs.ClearAcceptedBid(ctx, job.ID); rbErr != nil {
			log.Printf("CRITICAL: failed to reopen job %s after aborted accept of bid %s: %v", job.ID.Hex(), bid.ID.Hex(), rbErr)
		}
		if err != nil {
			return nil, err
		}
		return nil, conflict("bid is not pending")
	}
	bid.Status = models.BidStatusAccepted

	rejected, err := s.bids.RejectOtherPending(ctx, job.ID, bid.ID)
	if err != nil {
		log.Printf("Failed to reject competing bids on job %s: %v", job.ID.Hex(), err)
	} else if rejected > 0 {
		s.notifyRejected(ctx, job, bid.ID)
	}

	s.cache.DeletePrefix(ctx, jobListCachePrefix)

	events.LogPublish(ctx, s.publisher, events.Event{
		Type:     models.NotificationBidAccepted,
		User:     bid.Bidder.Hex(),
		Title:    "Bid accepted",
		Message:  fmt.Sprintf("Your bid on %q was accepted", job.Title),
		Priority: models.PriorityHigh,
		Data: map[string]interface{}{
			"jobId":  job.ID.Hex(),
			"bidId":  bid.ID.Hex(),
			"amount": bid.Amount,
		},
	})

	return bid, nil
}

// notifyRejected emits a rejection event to every bidder whose pending
// bid lost to the accepted one. Best-effort.
func (s *bidService) notifyRejected(ctx context.Context, job *models.Job, acceptedBidID primitive.ObjectID) {
	bids, err := s.bids.ListByJob(ctx, job.ID)
	if err != nil {
		log.Printf("Failed to list bids of job %s for rejection notices: %v", job.ID.Hex(), err)
		return
	}
	for _, b := range bids {
		if b.ID == acceptedBidID || b.Status != models.BidStatusRejected {
			continue
		}
		events.LogPublish(ctx, s.publisher, events.Event{
			Type:     models.NotificationBidRejected,
			User:     b.Bidder.Hex(),
			Title:    "Bid rejected",
			Message:  fmt.Sprintf("Your bid on %q was not selected", job.Title),
			Priority: models.PriorityNormal,
			Data: map[string]interface{}{
				"jobId": job.ID.Hex(),
				"bidId": b.ID.Hex(),
			},
		})
	}
}

func (s *bidService) Reject(ctx context.Context, bidID, actorID primitive.ObjectID) (*models.Bid, error) {
	bid, job, err := s.loadBidAndJob(ctx, bidID)
	if err != nil {
		return nil, err
	}
	if job.PostedBy != actorID {
		return nil, ErrForbidden
	}

	flipped, err := s.bids.UpdateStatusIf(ctx, bid.ID, models.BidStatusPending, models.BidStatusRejected)
	if err != nil {
		return nil, err
	}
	if !flipped {
		return nil, conflict("bid is not pending")
	}
	bid.Status = models.BidStatusRejected

	events.LogPublish(ctx, s.publisher, events.Event{
		Type:     models.NotificationBidRejected,
		User:     bid.Bidder.Hex(),
		Title:    "Bid rejected",
		Message:  fmt.Sprintf("Your bid on %q was rejected", job.Title),
		Priority: models.PriorityNormal,
		Data: map[string]interface{}{
			"jobId": job.ID.Hex(),
			"bidId": bid.ID.Hex(),
		},
	})

	return bid, nil
}

func (s *bidService) Withdraw(ctx context.Context, bidID, actorID primitive.ObjectID) error {
	bid, err := s.bids.GetByID(ctx, bidID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if bid.Bidder != actorID {
		return ErrForbidden
	}
	flipped, err := s.bids.UpdateStatusIf(ctx, bid.ID, models.BidStatusPending, models.BidStatusWithdrawn)
	if err != nil {
		return err
	}
	if !flipped {
		return conflict("only pending bids may be withdrawn")
	}
	return nil
}

func (s *bidService) ListForJob(ctx context.Context, jobID, actorID primitive.ObjectID) ([]models.BidView, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if job.PostedBy != actorID {
		return nil, ErrForbidden
	}
	bids, err := s.bids.ListByJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, bids, map[primitive.ObjectID]models.Job{job.ID: *job})
}

func (s *bidService) ListForEmployer(ctx context.Context, employerID primitive.ObjectID) ([]models.BidView, error) {
	jobs, err := s.jobs.ListByPoster(ctx, employerID)
	if err != nil {
		return nil, err
	}
	jobMap := make(map[primitive.ObjectID]models.Job, len(jobs))
	jobIDs := make([]primitive.ObjectID, 0, len(jobs))
	for _, j := range jobs {
		jobMap[j.ID] = j
		jobIDs = append(jobIDs, j.ID)
	}
	bids, err := s.bids.ListByJobs(ctx, jobIDs)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, bids, jobMap)
}

func (s *bidService) ListMine(ctx context.Context, bidderID primitive.ObjectID) ([]models.BidView, error) {
	bids, err := s.bids.ListByBidder(ctx, bidderID)
	if err != nil {
		return nil, err
	}
	jobIDs := make([]primitive.ObjectID, 0, len(bids))
	seen := make(map[primitive.ObjectID]bool, len(bids))
	for _, b := range bids {
		if !seen[b.Job] {
			seen[b.Job] = true
			jobIDs = append(jobIDs, b.Job)
		}
	}
	jobMap, err := s.jobs.GetMany(ctx, jobIDs)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, bids, jobMap)
}

// enrich joins bidder profiles and job titles into the bid list.
func (s *bidService) enrich(ctx context.Context, bids []models.Bid, jobMap map[primitive.ObjectID]models.Job) ([]models.BidView, error) {
	bidderIDs := make([]primitive.ObjectID, 0, len(bids))
	seen := make(map[primitive.ObjectID]bool, len(bids))
	for _, b := range bids {
		if !seen[b.Bidder] {
			seen[b.Bidder] = true
			bidderIDs = append(bidderIDs, b.Bidder)
		}
	}
	userMap, err := s.users.GetMany(ctx, bidderIDs)
	if err != nil {
		return nil, err
	}

	views := make([]models.BidView, 0, len(bids))
	for _, b := range bids {
		view := models.BidView{Bid: b}
		if u, ok := userMap[b.Bidder]; ok {
			view.BidderName = u.Name
			view.BidderRating = u.Rating
		}
		if j, ok := jobMap[b.Job]; ok {
			view.JobTitle = j.Title
			view.JobStatus = j.Status
		}
		views = append(views, view)
	}
	return views, nil
}
