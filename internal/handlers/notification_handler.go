package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/putraaxzy/be-artemis/internal/services"
)

// NotificationHandler serves Web Push subscription management.
type NotificationHandler struct {
	pushService services.PushService
}

func NewNotificationHandler(pushService services.PushService) *NotificationHandler {
	return &NotificationHandler{pushService: pushService}
}

// VAPIDKey returns the public VAPID key the browser needs to subscribe.
func (h *NotificationHandler) VAPIDKey(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"public_key": h.pushService.VAPIDPublicKey()})
}

// Subscribe registers the caller's push subscription.
func (h *NotificationHandler) Subscribe(c *gin.Context) {
	var req services.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	req.UserAgent = c.GetHeader("User-Agent")

	if err := h.pushService.Subscribe(currentUser(c).ID, &req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "subscribed"})
}

// Unsubscribe removes one of the caller's push subscriptions.
func (h *NotificationHandler) Unsubscribe(c *gin.Context) {
	var req struct {
		Endpoint string `json:"endpoint" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "endpoint is required"})
		return
	}

	if err := h.pushService.Unsubscribe(currentUser(c).ID, req.Endpoint); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "unsubscribed"})
}

// Count returns how many subscriptions the caller holds.
func (h *NotificationHandler) Count(c *gin.Context) {
	count, err := h.pushService.SubscriptionCount(currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// Test sends a test notification to the caller's own subscriptions.
func (h *NotificationHandler) Test(c *gin.Context) {
	delivered := h.pushService.SendToUser(currentUser(c).ID, &services.PushMessage{
		Title: "Notifikasi Uji Coba",
		Body:  "Push notification berfungsi dengan baik.",
		Tag:   "test",
	})
	c.JSON(http.StatusOK, gin.H{"delivered": delivered})
}
