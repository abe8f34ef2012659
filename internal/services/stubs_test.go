package services

import (
	"context"
	"time"

	"freight-market-api-server/internal/events"
	"freight-market-api-server/internal/models"
	"freight-market-api-server/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repository stubs so the lifecycle rules can be tested
// without a running MongoDB.

type stubJobRepo struct {
	jobs      map[primitive.ObjectID]*models.Job
	lastQuery repository.JobQuery
	listJobs  []models.Job
	listTotal int64
}

func newStubJobRepo(jobs ...*models.Job) *stubJobRepo {
	r := &stubJobRepo{jobs: make(map[primitive.ObjectID]*models.Job)}
	for _, j := range jobs {
		if j.ID.IsZero() {
			j.ID = primitive.NewObjectID()
		}
		r.jobs[j.ID] = j
	}
	return r
}

func (r *stubJobRepo) Create(ctx context.Context, job *models.Job) error {
	job.ID = primitive.NewObjectID()
	job.CreatedAt = time.Now()
	job.UpdatedAt = job.CreatedAt
	r.jobs[job.ID] = job
	return nil
}

func (r *stubJobRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Job, error) {
	job, ok := r.jobs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *job
	return &cp, nil
}

func (r *stubJobRepo) List(ctx context.Context, q repository.JobQuery) ([]models.Job, int64, error) {
	r.lastQuery = q
	return r.listJobs, r.listTotal, nil
}

func (r *stubJobRepo) ListByPoster(ctx context.Context, posterID primitive.ObjectID) ([]models.Job, error) {
	var jobs []models.Job
	for _, j := range r.jobs {
		if j.PostedBy == posterID {
			jobs = append(jobs, *j)
		}
	}
	return jobs, nil
}

func (r *stubJobRepo) Update(ctx context.Context, id primitive.ObjectID, patch bson.M) error {
	if _, ok := r.jobs[id]; !ok {
		return repository.ErrNotFound
	}
	return nil
}

func (r *stubJobRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, ok := r.jobs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.jobs, id)
	return nil
}

func (r *stubJobRepo) PushBid(ctx context.Context, jobID, bidID primitive.ObjectID) error {
	job, ok := r.jobs[jobID]
	if !ok {
		return repository.ErrNotFound
	}
	job.Bids = append(job.Bids, bidID)
	return nil
}

func (r *stubJobRepo) IncrementViews(ctx context.Context, id primitive.ObjectID) error {
	job, ok := r.jobs[id]
	if !ok {
		return repository.ErrNotFound
	}
	job.Views++
	return nil
}

func (r *stubJobRepo) TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to string, acceptedBid *primitive.ObjectID) (bool, error) {
	job, ok := r.jobs[id]
	if !ok || job.Status != from {
		return false, nil
	}
	job.Status = to
	if acceptedBid != nil {
		bid := *acceptedBid
		job.AcceptedBid = &bid
	}
	return true, nil
}

func (r *stubJobRepo) ClearAcceptedBid(ctx context.Context, id primitive.ObjectID) error {
	job, ok := r.jobs[id]
	if !ok {
		return repository.ErrNotFound
	}
	job.Status = models.JobStatusActive
	job.AcceptedBid = nil
	return nil
}

func (r *stubJobRepo) GetMany(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Job, error) {
	jobs := make(map[primitive.ObjectID]models.Job, len(ids))
	for _, id := range ids {
		if j, ok := r.jobs[id]; ok {
			jobs[id] = *j
		}
	}
	return jobs, nil
}

func (r *stubJobRepo) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for _, j := range r.jobs {
		if j.Status == models.JobStatusActive && j.ExpiresAt.Before(now) {
			j.Status = models.JobStatusExpired
			n++
		}
	}
	return n, nil
}

type stubBidRepo struct {
	bids  map[primitive.ObjectID]*models.Bid
	order []primitive.ObjectID
	// failFlip forces UpdateStatusIf to report a lost update for the
	// given bid, simulating a concurrent state change.
	failFlip map[primitive.ObjectID]bool
}

func newStubBidRepo() *stubBidRepo {
	return &stubBidRepo{
		bids:     make(map[primitive.ObjectID]*models.Bid),
		failFlip: make(map[primitive.ObjectID]bool),
	}
}

func (r *stubBidRepo) Create(ctx context.Context, bid *models.Bid) error {
	for _, b := range r.bids {
		if b.Job == bid.Job && b.Bidder == bid.Bidder {
			return repository.ErrDuplicate
		}
	}
	bid.ID = primitive.NewObjectID()
	bid.Status = models.BidStatusPending
	bid.CreatedAt = time.Now()
	bid.UpdatedAt = bid.CreatedAt
	r.bids[bid.ID] = bid
	r.order = append(r.order, bid.ID)
	return nil
}

func (r *stubBidRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Bid, error) {
	bid, ok := r.bids[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *bid
	return &cp, nil
}

func (r *stubBidRepo) ExistsForJobAndBidder(ctx context.Context, jobID, bidderID primitive.ObjectID) (bool, error) {
	for _, b := range r.bids {
		if b.Job == jobID && b.Bidder == bidderID {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubBidRepo) list(match func(*models.Bid) bool) []models.Bid {
	bids := []models.Bid{}
	for _, id := range r.order {
		if b := r.bids[id]; match(b) {
			bids = append(bids, *b)
		}
	}
	return bids
}

func (r *stubBidRepo) ListByJob(ctx context.Context, jobID primitive.ObjectID) ([]models.Bid, error) {
	return r.list(func(b *models.Bid) bool { return b.Job == jobID }), nil
}

func (r *stubBidRepo) ListByBidder(ctx context.Context, bidderID primitive.ObjectID) ([]models.Bid, error) {
	return r.list(func(b *models.Bid) bool { return b.Bidder == bidderID }), nil
}

func (r *stubBidRepo) ListByJobs(ctx context.Context, jobIDs []primitive.ObjectID) ([]models.Bid, error) {
	ids := make(map[primitive.ObjectID]bool, len(jobIDs))
	for _, id := range jobIDs {
		ids[id] = true
	}
	return r.list(func(b *models.Bid) bool { return ids[b.Job] }), nil
}

func (r *stubBidRepo) UpdateStatusIf(ctx context.Context, id primitive.ObjectID, from, to string) (bool, error) {
	if r.failFlip[id] {
		return false, nil
	}
	bid, ok := r.bids[id]
	if !ok || bid.Status != from {
		return false, nil
	}
	bid.Status = to
	return true, nil
}

func (r *stubBidRepo) RejectOtherPending(ctx context.Context, jobID, acceptedBidID primitive.ObjectID) (int64, error) {
	var n int64
	for _, b := range r.bids {
		if b.Job == jobID && b.ID != acceptedBidID && b.Status == models.BidStatusPending {
			b.Status = models.BidStatusRejected
			n++
		}
	}
	return n, nil
}

func (r *stubBidRepo) WithdrawPendingByJob(ctx context.Context, jobID primitive.ObjectID) (int64, error) {
	var n int64
	for _, b := range r.bids {
		if b.Job == jobID && b.Status == models.BidStatusPending {
			b.Status = models.BidStatusWithdrawn
			n++
		}
	}
	return n, nil
}

type stubUserRepo struct {
	users   map[primitive.ObjectID]*models.User
	ratings map[primitive.ObjectID]models.Rating
}

func newStubUserRepo(users ...*models.User) *stubUserRepo {
	r := &stubUserRepo{
		users:   make(map[primitive.ObjectID]*models.User),
		ratings: make(map[primitive.ObjectID]models.Rating),
	}
	for _, u := range users {
		if u.ID.IsZero() {
			u.ID = primitive.NewObjectID()
		}
		u.Active = true
		r.users[u.ID] = u
	}
	return r
}

func (r *stubUserRepo) Create(ctx context.Context, user *models.User) error {
	for _, u := range r.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	user.ID = primitive.NewObjectID()
	user.Active = true
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = user
	return nil
}

func (r *stubUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *user
	return &cp, nil
}

func (r *stubUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubUserRepo) GetMany(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error) {
	users := make(map[primitive.ObjectID]models.User, len(ids))
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			users[id] = *u
		}
	}
	return users, nil
}

func (r *stubUserRepo) Update(ctx context.Context, id primitive.ObjectID, patch bson.M) error {
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	return nil
}

func (r *stubUserRepo) SetRating(ctx context.Context, id primitive.ObjectID, rating models.Rating) error {
	r.ratings[id] = rating
	if u, ok := r.users[id]; ok {
		u.Rating = rating
	}
	return nil
}

type stubReviewRepo struct {
	reviews []*models.Review
}

func (r *stubReviewRepo) Create(ctx context.Context, review *models.Review) error {
	for _, existing := range r.reviews {
		if existing.Reviewer == review.Reviewer && existing.Reviewee == review.Reviewee && existing.Job == review.Job {
			return repository.ErrDuplicate
		}
	}
	review.ID = primitive.NewObjectID()
	review.CreatedAt = time.Now()
	r.reviews = append(r.reviews, review)
	return nil
}

func (r *stubReviewRepo) ListByReviewee(ctx context.Context, revieweeID primitive.ObjectID) ([]models.Review, error) {
	reviews := []models.Review{}
	for _, rv := range r.reviews {
		if rv.Reviewee == revieweeID {
			reviews = append(reviews, *rv)
		}
	}
	return reviews, nil
}

func (r *stubReviewRepo) RatingsFor(ctx context.Context, revieweeID primitive.ObjectID) ([]int, error) {
	var ratings []int
	for _, rv := range r.reviews {
		if rv.Reviewee == revieweeID {
			ratings = append(ratings, rv.RatingVal)
		}
	}
	return ratings, nil
}

type stubMessageRepo struct {
	messages []*models.Message
}

func (r *stubMessageRepo) Create(ctx context.Context, message *models.Message) error {
	message.ID = primitive.NewObjectID()
	message.CreatedAt = time.Now()
	r.messages = append(r.messages, message)
	return nil
}

func (r *stubMessageRepo) ListConversation(ctx context.Context, conversationID string) ([]models.Message, error) {
	messages := []models.Message{}
	for _, m := range r.messages {
		if m.ConversationID == conversationID {
			messages = append(messages, *m)
		}
	}
	return messages, nil
}

func (r *stubMessageRepo) MarkConversationRead(ctx context.Context, conversationID string, receiverID primitive.ObjectID) (int64, error) {
	var n int64
	for _, m := range r.messages {
		if m.ConversationID == conversationID && m.Receiver == receiverID && !m.Read {
			m.Read = true
			n++
		}
	}
	return n, nil
}

func (r *stubMessageRepo) Conversations(ctx context.Context, userID primitive.ObjectID) ([]models.Conversation, error) {
	latest := make(map[string]*models.Conversation)
	for _, m := range r.messages {
		if m.Sender != userID && m.Receiver != userID {
			continue
		}
		c, ok := latest[m.ConversationID]
		if !ok {
			c = &models.Conversation{ConversationID: m.ConversationID}
			latest[m.ConversationID] = c
		}
		c.LastMessage = *m
		if m.Receiver == userID && !m.Read {
			c.Unread++
		}
	}
	conversations := []models.Conversation{}
	for _, c := range latest {
		conversations = append(conversations, *c)
	}
	return conversations, nil
}

type stubNotificationRepo struct {
	notifications map[primitive.ObjectID]*models.Notification
	lastLimit     int64
	lastOffset    int64
}

func newStubNotificationRepo() *stubNotificationRepo {
	return &stubNotificationRepo{notifications: make(map[primitive.ObjectID]*models.Notification)}
}

func (r *stubNotificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	notification.ID = primitive.NewObjectID()
	notification.CreatedAt = time.Now()
	notification.ExpiresAt = notification.CreatedAt.Add(models.NotificationTTL)
	r.notifications[notification.ID] = notification
	return nil
}

func (r *stubNotificationRepo) ListByUser(ctx context.Context, userID primitive.ObjectID, unreadOnly bool, limit, offset int64) ([]models.Notification, error) {
	r.lastLimit = limit
	r.lastOffset = offset
	notifications := []models.Notification{}
	for _, n := range r.notifications {
		if n.User != userID {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		notifications = append(notifications, *n)
	}
	return notifications, nil
}

func (r *stubNotificationRepo) MarkRead(ctx context.Context, id, userID primitive.ObjectID) (bool, error) {
	n, ok := r.notifications[id]
	if !ok || n.User != userID {
		return false, nil
	}
	n.Read = true
	return true, nil
}

func (r *stubNotificationRepo) MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	var count int64
	for _, n := range r.notifications {
		if n.User == userID && !n.Read {
			n.Read = true
			count++
		}
	}
	return count, nil
}

func (r *stubNotificationRepo) Delete(ctx context.Context, id, userID primitive.ObjectID) (bool, error) {
	n, ok := r.notifications[id]
	if !ok || n.User != userID {
		return false, nil
	}
	delete(r.notifications, id)
	return true, nil
}

// capturePublisher records every event the services emit.
type capturePublisher struct {
	events []events.Event
}

func (p *capturePublisher) Publish(ctx context.Context, event events.Event) error {
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) byType(eventType string) []events.Event {
	var matched []events.Event
	for _, e := range p.events {
		if e.Type == eventType {
			matched = append(matched, e)
		}
	}
	return matched
}
