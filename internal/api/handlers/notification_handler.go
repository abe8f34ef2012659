package handlers

import (
	"strconv"

	"freight-market-api-server/internal/services"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	Notifications services.NotificationService
}

func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	unreadOnly := c.Query("unread") == "true"
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	offset, _ := strconv.ParseInt(c.DefaultQuery("offset", "0"), 10, 64)

	notifications, err := h.Notifications.List(c.Request.Context(), userID, unreadOnly, limit, offset)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, notifications)
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.Notifications.MarkRead(c.Request.Context(), id, userID); err != nil {
		fail(c, err)
		return
	}
	okMessage(c, "Notification marked as read")
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	count, err := h.Notifications.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, gin.H{"updated": count})
}

func (h *NotificationHandler) DeleteNotification(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.Notifications.Delete(c.Request.Context(), id, userID); err != nil {
		fail(c, err)
		return
	}
	okMessage(c, "Notification deleted")
}
