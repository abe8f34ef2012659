package handlers

import (
	"freight-market-api-server/internal/services"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MessageHandler struct {
	Messages services.MessageService
}

type SendMessageRequest struct {
	ReceiverID string `json:"receiverId" binding:"required"`
	Content    string `json:"content" binding:"required"`
}

func (h *MessageHandler) SendMessage(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	receiverID, err := primitive.ObjectIDFromHex(req.ReceiverID)
	if err != nil {
		badRequest(c, "invalid receiver id")
		return
	}

	message, err := h.Messages.Send(c.Request.Context(), userID, receiverID, req.Content)
	if err != nil {
		fail(c, err)
		return
	}
	created(c, message)
}

func (h *MessageHandler) GetConversations(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	conversations, err := h.Messages.Conversations(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, conversations)
}

func (h *MessageHandler) GetThread(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	otherID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	messages, err := h.Messages.Thread(c.Request.Context(), userID, otherID)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, messages)
}
