package handlers

import (
	"time"

	"freight-market-api-server/internal/models"
	"freight-market-api-server/internal/services"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BidHandler struct {
	Bids services.BidService
}

type SubmitBidRequest struct {
	JobID             string    `json:"jobId" binding:"required"`
	Amount            float64   `json:"amount" binding:"required"`
	Currency          string    `json:"currency"`
	Message           string    `json:"message"`
	ProposedStartDate time.Time `json:"proposedStartDate"`
	EstimatedDays     int       `json:"estimatedDurationDays"`
}

func (h *BidHandler) SubmitBid(c *gin.Context) {
	bidderID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req SubmitBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	jobID, err := primitive.ObjectIDFromHex(req.JobID)
	if err != nil {
		badRequest(c, "invalid job id")
		return
	}
	currency := req.Currency
	if currency == "" {
		currency = "TRY"
	}

	bid, err := h.Bids.Submit(c.Request.Context(), bidderID, services.SubmitBidInput{
		JobID:             jobID,
		Amount:            req.Amount,
		Currency:          currency,
		Message:           req.Message,
		ProposedStartDate: req.ProposedStartDate,
		EstimatedDays:     req.EstimatedDays,
	})
	if err != nil {
		fail(c, err)
		return
	}
	created(c, bid)
}

func (h *BidHandler) GetJobBids(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	jobID, ok := pathID(c, "jobId")
	if !ok {
		return
	}
	bids, err := h.Bids.ListForJob(c.Request.Context(), jobID, userID)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, bids)
}

func (h *BidHandler) GetEmployerBids(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	bids, err := h.Bids.ListForEmployer(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, bids)
}

func (h *BidHandler) GetMyBids(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	bids, err := h.Bids.ListMine(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, bids)
}

type UpdateBidStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateBidStatus handles the owner's accept/reject decision.
func (h *BidHandler) UpdateBidStatus(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	bidID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req UpdateBidStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	var bid *models.Bid
	var err error
	switch req.Status {
	case models.BidStatusAccepted:
		bid, err = h.Bids.Accept(c.Request.Context(), bidID, userID)
	case models.BidStatusRejected:
		bid, err = h.Bids.Reject(c.Request.Context(), bidID, userID)
	default:
		badRequest(c, "status must be accepted or rejected")
		return
	}
	if err != nil {
		fail(c, err)
		return
	}
	success(c, bid)
}

func (h *BidHandler) WithdrawBid(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	bidID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.Bids.Withdraw(c.Request.Context(), bidID, userID); err != nil {
		fail(c, err)
		return
	}
	okMessage(c, "Bid withdrawn")
}
