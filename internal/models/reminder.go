package models

import "time"

// ReminderStatus is the delivery state the external bot reports back.
type ReminderStatus string

const (
	ReminderStatusSent      ReminderStatus = "sent"
	ReminderStatusDelivered ReminderStatus = "delivered"
	ReminderStatusRead      ReminderStatus = "read"
	ReminderStatusFailed    ReminderStatus = "failed"
)

// ReminderRecord logs that the external bot delivered a reminder for one
// (task, student) pair. MessageID is the bot's message identifier; its
// uniqueness makes recording idempotent.
type ReminderRecord struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	TaskID    uint           `json:"task_id" gorm:"not null;index"`
	StudentID uint           `json:"student_id" gorm:"not null;index"`
	Message   string         `json:"message" gorm:"not null"`
	MessageID string         `json:"message_id" gorm:"uniqueIndex;size:100;not null"`
	Status    ReminderStatus `json:"status" gorm:"type:varchar(10);default:'sent'"`
	CreatedAt time.Time      `json:"created_at"`

	Task    Task `json:"task,omitempty" gorm:"foreignKey:TaskID"`
	Student User `json:"student,omitempty" gorm:"foreignKey:StudentID"`
}
