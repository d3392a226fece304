package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/putraaxzy/be-artemis/internal/models"
	"github.com/putraaxzy/be-artemis/internal/services"
)

// BotHandler serves the reminder bot integration endpoints, guarded by the
// static API key middleware.
type BotHandler struct {
	reminderService services.ReminderService
}

func NewBotHandler(reminderService services.ReminderService) *BotHandler {
	return &BotHandler{reminderService: reminderService}
}

// PendingStudents lists every student who needs a reminder across all tasks.
func (h *BotHandler) PendingStudents(c *gin.Context) {
	targets, err := h.reminderService.PendingReminders()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":    len(targets),
		"students": targets,
	})
}

// PendingStudentsByTask lists students who need a reminder for one task.
func (h *BotHandler) PendingStudentsByTask(c *gin.Context) {
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}
	targets, err := h.reminderService.PendingRemindersByTask(taskID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":    len(targets),
		"students": targets,
	})
}

// DeliveryStatus receives the provider's delivery report for a reminder.
func (h *BotHandler) DeliveryStatus(c *gin.Context) {
	var req struct {
		MessageID string                `json:"message_id" binding:"required"`
		Status    models.ReminderStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message_id and status are required"})
		return
	}

	if err := h.reminderService.UpdateDeliveryStatus(req.MessageID, req.Status); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "status updated"})
}

// RecordReminder acknowledges one delivered reminder.
func (h *BotHandler) RecordReminder(c *gin.Context) {
	var req services.RecordReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	record, err := h.reminderService.RecordReminder(&req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"reminder": record})
}
