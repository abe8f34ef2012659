package handlers

import (
	"freight-market-api-server/internal/models"
	"freight-market-api-server/internal/services"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReviewHandler struct {
	Reviews services.ReviewService
}

type CreateReviewRequest struct {
	JobID      string                 `json:"jobId" binding:"required"`
	Rating     int                    `json:"rating" binding:"required"`
	Categories models.CategoryRatings `json:"categories"`
	Comment    string                 `json:"comment"`
}

func (h *ReviewHandler) CreateReview(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	jobID, err := primitive.ObjectIDFromHex(req.JobID)
	if err != nil {
		badRequest(c, "invalid job id")
		return
	}

	review, err := h.Reviews.Create(c.Request.Context(), userID, services.CreateReviewInput{
		JobID:      jobID,
		Rating:     req.Rating,
		Categories: req.Categories,
		Comment:    req.Comment,
	})
	if err != nil {
		fail(c, err)
		return
	}
	created(c, review)
}

func (h *ReviewHandler) GetUserReviews(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	reviews, err := h.Reviews.ForUser(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, reviews)
}
