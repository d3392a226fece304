package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/putraaxzy/be-artemis/internal/services"
)

// ReminderHandler serves the teacher-facing reminder endpoints.
type ReminderHandler struct {
	reminderService services.ReminderService
}

func NewReminderHandler(reminderService services.ReminderService) *ReminderHandler {
	return &ReminderHandler{reminderService: reminderService}
}

// SendDigest posts a pending-student digest for the task to the configured
// Telegram chat.
func (h *ReminderHandler) SendDigest(c *gin.Context) {
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}
	digest, err := h.reminderService.SendReminderDigest(currentUser(c).ID, taskID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, digest)
}

// History lists the reminders already recorded for the task.
func (h *ReminderHandler) History(c *gin.Context) {
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}
	records, err := h.reminderService.History(currentUser(c).ID, taskID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reminders": records})
}
