package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"freight-market-api-server/internal/models"
	"freight-market-api-server/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func validJobInput() CreateJobInput {
	return CreateJobInput{
		Title:       "Istanbul to Ankara pallets",
		Description: "12 pallets of packaged goods",
		Route: models.Route{
			From: models.Endpoint{City: "Istanbul"},
			To:   models.Endpoint{City: "Ankara"},
		},
		Load:    models.LoadDetails{Type: "pallet", WeightKg: 8000},
		Payment: models.Payment{Amount: 5000, Currency: "TRY"},
	}
}

func TestValidateJob(t *testing.T) {
	if err := ValidateJob(validJobInput()); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}

	err := ValidateJob(CreateJobInput{})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	// Every failing field is reported at once, not just the first.
	if len(vErr.Fields) != 6 {
		t.Errorf("fields = %d, want 6", len(vErr.Fields))
	}
}

func TestTotalPages(t *testing.T) {
	cases := []struct {
		total, limit, want int64
	}{
		{0, 12, 0},
		{1, 12, 1},
		{12, 12, 1},
		{20, 12, 2},
		{24, 12, 2},
		{25, 12, 3},
		{5, 0, 0},
	}
	for _, c := range cases {
		if got := TotalPages(c.total, c.limit); got != c.want {
			t.Errorf("TotalPages(%d, %d) = %d, want %d", c.total, c.limit, got, c.want)
		}
	}
}

func TestCreateJobDefaults(t *testing.T) {
	jobs := newStubJobRepo()
	service := NewJobService(jobs, newStubBidRepo(), nil, nil)
	posterID := primitive.NewObjectID()

	job, err := service.Create(context.Background(), posterID, validJobInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if job.Status != models.JobStatusActive {
		t.Errorf("status = %q, want active", job.Status)
	}
	if job.Bids == nil || len(job.Bids) != 0 {
		t.Errorf("bids = %v, want empty slice", job.Bids)
	}
	until := time.Until(job.ExpiresAt)
	if until < 29*24*time.Hour || until > 31*24*time.Hour {
		t.Errorf("ExpiresAt %v away, want about 30 days", until)
	}
}

func TestListDefaults(t *testing.T) {
	jobs := newStubJobRepo()
	jobs.listJobs = []models.Job{}
	jobs.listTotal = 25
	service := NewJobService(jobs, newStubBidRepo(), nil, nil)

	page, err := service.List(context.Background(), repository.JobQuery{Page: 0, Limit: 0})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if jobs.lastQuery.Page != 1 || jobs.lastQuery.Limit != 12 {
		t.Errorf("query defaults = page %d limit %d, want 1/12", jobs.lastQuery.Page, jobs.lastQuery.Limit)
	}
	if page.TotalPages != 3 {
		t.Errorf("TotalPages = %d, want 3", page.TotalPages)
	}

	// Oversized limits fall back to the default too.
	if _, err := service.List(context.Background(), repository.JobQuery{Limit: 500}); err != nil {
		t.Fatalf("List: %v", err)
	}
	if jobs.lastQuery.Limit != 12 {
		t.Errorf("capped limit = %d, want 12", jobs.lastQuery.Limit)
	}
}

func TestGetCountsView(t *testing.T) {
	job := &models.Job{Status: models.JobStatusActive}
	jobs := newStubJobRepo(job)
	service := NewJobService(jobs, newStubBidRepo(), nil, nil)

	got, err := service.Get(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Views != 1 {
		t.Errorf("views = %d, want 1", got.Views)
	}

	if _, err := service.Get(context.Background(), primitive.NewObjectID()); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing job err = %v, want ErrNotFound", err)
	}
}

func TestUpdateJobForbidden(t *testing.T) {
	job := &models.Job{PostedBy: primitive.NewObjectID(), Status: models.JobStatusActive}
	jobs := newStubJobRepo(job)
	service := NewJobService(jobs, newStubBidRepo(), nil, nil)

	title := "new title"
	_, err := service.Update(context.Background(), job.ID, primitive.NewObjectID(), UpdateJobInput{Title: &title})
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
}

func TestDeleteJobWithAcceptedBid(t *testing.T) {
	posterID := primitive.NewObjectID()
	acceptedBid := primitive.NewObjectID()
	job := &models.Job{PostedBy: posterID, Status: models.JobStatusInProgress, AcceptedBid: &acceptedBid}
	jobs := newStubJobRepo(job)
	service := NewJobService(jobs, newStubBidRepo(), nil, nil)

	err := service.Delete(context.Background(), job.ID, posterID)
	if !errors.Is(err, ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
	if _, err := jobs.GetByID(context.Background(), job.ID); err != nil {
		t.Errorf("job was deleted despite the accepted bid")
	}
}

func TestDeleteJobWithdrawsPendingBids(t *testing.T) {
	ctx := context.Background()
	posterID := primitive.NewObjectID()
	job := &models.Job{PostedBy: posterID, Status: models.JobStatusActive}
	jobs := newStubJobRepo(job)
	bids := newStubBidRepo()
	bid := &models.Bid{Job: job.ID, Bidder: primitive.NewObjectID(), Amount: 100, Currency: "TRY"}
	if err := bids.Create(ctx, bid); err != nil {
		t.Fatalf("seed bid: %v", err)
	}
	service := NewJobService(jobs, bids, nil, nil)

	if err := service.Delete(ctx, job.ID, posterID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := jobs.GetByID(ctx, job.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("job still present after delete")
	}
	got, _ := bids.GetByID(ctx, bid.ID)
	if got.Status != models.BidStatusWithdrawn {
		t.Errorf("pending bid status = %q, want withdrawn", got.Status)
	}
}

func TestCompleteJob(t *testing.T) {
	ctx := context.Background()
	posterID := primitive.NewObjectID()
	driverID := primitive.NewObjectID()

	job := &models.Job{PostedBy: posterID, Status: models.JobStatusActive, Title: "pallets"}
	jobs := newStubJobRepo(job)
	bids := newStubBidRepo()
	bid := &models.Bid{Job: job.ID, Bidder: driverID, Amount: 100, Currency: "TRY"}
	if err := bids.Create(ctx, bid); err != nil {
		t.Fatalf("seed bid: %v", err)
	}
	publisher := &capturePublisher{}
	service := NewJobService(jobs, bids, publisher, nil)

	// Not in progress yet.
	if _, err := service.Complete(ctx, job.ID, posterID); !errors.Is(err, ErrConflict) {
		t.Errorf("complete active job err = %v, want ErrConflict", err)
	}

	job.Status = models.JobStatusInProgress
	job.AcceptedBid = &bid.ID

	completed, err := service.Complete(ctx, job.ID, posterID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if completed.Status != models.JobStatusCompleted {
		t.Errorf("status = %q, want completed", completed.Status)
	}

	completedEvents := publisher.byType(models.NotificationJobCompleted)
	if len(completedEvents) != 1 || completedEvents[0].User != driverID.Hex() {
		t.Errorf("job_completed events = %v, want one for the accepted bidder", completedEvents)
	}

	if _, err := service.Complete(ctx, job.ID, posterID); !errors.Is(err, ErrConflict) {
		t.Errorf("second complete err = %v, want ErrConflict", err)
	}
}
