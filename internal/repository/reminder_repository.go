package repository

import (
	"gorm.io/gorm"

	"github.com/putraaxzy/be-artemis/internal/models"
)

// ReminderRepository provides access to the reminder delivery log.
type ReminderRepository interface {
	Create(record *models.ReminderRecord) error
	ExistsByMessageID(messageID string) (bool, error)
	ListByTask(taskID uint) ([]*models.ReminderRecord, error)
	// UpdateStatusByMessageID returns the number of records updated.
	UpdateStatusByMessageID(messageID string, status models.ReminderStatus) (int64, error)
}

type reminderRepository struct {
	db *gorm.DB
}

func NewReminderRepository(db *gorm.DB) ReminderRepository {
	return &reminderRepository{db: db}
}

func (r *reminderRepository) Create(record *models.ReminderRecord) error {
	return r.db.Create(record).Error
}

func (r *reminderRepository) ExistsByMessageID(messageID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.ReminderRecord{}).
		Where("message_id = ?", messageID).
		Count(&count).Error
	return count > 0, err
}

func (r *reminderRepository) UpdateStatusByMessageID(messageID string, status models.ReminderStatus) (int64, error) {
	result := r.db.Model(&models.ReminderRecord{}).
		Where("message_id = ?", messageID).
		Update("status", status)
	return result.RowsAffected, result.Error
}

func (r *reminderRepository) ListByTask(taskID uint) ([]*models.ReminderRecord, error) {
	var records []*models.ReminderRecord
	err := r.db.Preload("Student").
		Where("task_id = ?", taskID).
		Order("created_at DESC").
		Find(&records).Error
	return records, err
}
