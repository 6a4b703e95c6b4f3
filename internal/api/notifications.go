package api

import (
	"net/http"
	"strconv"

	"inventory-service/internal/models"
	"inventory-service/internal/service"

	"github.com/gin-gonic/gin"
)

// listNotifications handles GET /notifications?userId=&unreadOnly=&limit=
func (h *Handler) listNotifications(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	filter := models.NotificationFilter{UserID: userID}
	if raw := c.Query("unreadOnly"); raw != "" {
		unread, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, "unreadOnly must be a boolean")
			return
		}
		filter.UnreadOnly = unread
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			badRequest(c, "limit must be a positive integer")
			return
		}
		filter.Limit = limit
	}

	notifications, err := h.notifications.List(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, notifications)
}

func (h *Handler) unreadCount(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	count, err := h.notifications.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (h *Handler) getNotification(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	n, err := h.notifications.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (h *Handler) markRead(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	n, err := h.notifications.MarkRead(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (h *Handler) markAllRead(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	updated, err := h.notifications.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

func (h *Handler) createNotification(c *gin.Context) {
	var req service.CreateNotificationRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	n, err := h.notifications.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, n)
}

// generateNotifications runs the bulk stock scan synchronously
func (h *Handler) generateNotifications(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	summary, err := h.notifications.Generate(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) deleteNotification(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.notifications.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
