package services

import (
	"fmt"
	"log"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/putraaxzy/be-artemis/internal/apperr"
	"github.com/putraaxzy/be-artemis/internal/models"
	"github.com/putraaxzy/be-artemis/internal/repository"
	"github.com/putraaxzy/be-artemis/pkg/telegram"
)

// reminderWindow suppresses repeat reminders: a student who was reminded
// about a task inside this window is excluded from the pending feed.
const reminderWindow = 24 * time.Hour

// ReminderTarget is one pending-student row served to the reminder bot.
type ReminderTarget struct {
	AssignmentID uint      `json:"assignment_id"`
	TaskID       uint      `json:"task_id"`
	TaskTitle    string    `json:"task_title"`
	TeacherName  string    `json:"teacher_name"`
	Deadline     *time.Time `json:"deadline,omitempty"`
	StudentID    uint      `json:"student_id"`
	StudentName  string    `json:"student_name"`
	Username     string    `json:"username"`
	Phone        string    `json:"phone"`
	Class        string    `json:"class"`
	Major        string    `json:"major"`
	AssignedAt   time.Time `json:"assigned_at"`
}

// RecordReminderRequest acknowledges one delivered reminder. MessageID is the
// bot's own delivery id and deduplicates retried acknowledgements.
type RecordReminderRequest struct {
	TaskID    uint   `json:"task_id" validate:"required"`
	StudentID uint   `json:"student_id" validate:"required"`
	Message   string `json:"message" validate:"required"`
	MessageID string `json:"message_id" validate:"required,max=100"`
}

// ReminderDigest summarizes one digest dispatch for a task.
type ReminderDigest struct {
	TaskID    uint             `json:"task_id"`
	TaskTitle string           `json:"task_title"`
	Students  []ReminderTarget `json:"students"`
	Posted    bool             `json:"posted"`
}

// ReminderService is the boundary between pending assignments and the
// external reminder bot.
type ReminderService interface {
	PendingReminders() ([]ReminderTarget, error)
	PendingRemindersByTask(taskID uint) ([]ReminderTarget, error)
	RecordReminder(req *RecordReminderRequest) (*models.ReminderRecord, error)
	// UpdateDeliveryStatus records what the bot's provider reported for a
	// previously recorded reminder.
	UpdateDeliveryStatus(messageID string, status models.ReminderStatus) error
	// SendReminderDigest posts a pending-student summary for the task to the
	// configured Telegram chat and returns what was (or would be) posted.
	SendReminderDigest(teacherID, taskID uint) (*ReminderDigest, error)
	History(teacherID, taskID uint) ([]*models.ReminderRecord, error)
}

type reminderService struct {
	taskRepo       repository.TaskRepository
	assignmentRepo repository.AssignmentRepository
	reminderRepo   repository.ReminderRepository
	bot            *telegram.Bot
}

// NewReminderService creates the service. bot may be nil when no Telegram
// token is configured; digests then skip the chat post.
func NewReminderService(
	taskRepo repository.TaskRepository,
	assignmentRepo repository.AssignmentRepository,
	reminderRepo repository.ReminderRepository,
	bot *telegram.Bot,
) ReminderService {
	return &reminderService{
		taskRepo:       taskRepo,
		assignmentRepo: assignmentRepo,
		reminderRepo:   reminderRepo,
		bot:            bot,
	}
}

func (s *reminderService) PendingReminders() ([]ReminderTarget, error) {
	return s.pendingTargets(nil)
}

func (s *reminderService) PendingRemindersByTask(taskID uint) ([]ReminderTarget, error) {
	if _, err := s.taskRepo.GetByID(taskID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("task not found")
		}
		return nil, errors.Wrap(err, "load task")
	}
	return s.pendingTargets(&taskID)
}

func (s *reminderService) pendingTargets(taskID *uint) ([]ReminderTarget, error) {
	since := time.Now().Add(-reminderWindow)
	assignments, err := s.assignmentRepo.ListPendingNeedingReminder(taskID, since)
	if err != nil {
		return nil, errors.Wrap(err, "list pending reminders")
	}

	targets := make([]ReminderTarget, 0, len(assignments))
	for _, a := range assignments {
		targets = append(targets, ReminderTarget{
			AssignmentID: a.ID,
			TaskID:       a.TaskID,
			TaskTitle:    a.Task.Title,
			TeacherName:  a.Task.Teacher.Name,
			Deadline:     a.Task.Deadline,
			StudentID:    a.StudentID,
			StudentName:  a.Student.Name,
			Username:     a.Student.Username,
			Phone:        a.Student.Phone,
			Class:        a.Student.Class,
			Major:        a.Student.Major,
			AssignedAt:   a.CreatedAt,
		})
	}
	return targets, nil
}

func (s *reminderService) RecordReminder(req *RecordReminderRequest) (*models.ReminderRecord, error) {
	if err := validate.Struct(req); err != nil {
		return nil, apperr.Validation(validationMessage(err))
	}

	assignment, err := s.assignmentRepo.GetByTaskAndStudent(req.TaskID, req.StudentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("assignment not found for task and student")
		}
		return nil, errors.Wrap(err, "load assignment")
	}
	if assignment.Status != models.AssignmentStatusPending {
		return nil, apperr.Conflict("assignment is no longer pending")
	}

	exists, err := s.reminderRepo.ExistsByMessageID(req.MessageID)
	if err != nil {
		return nil, errors.Wrap(err, "check message id")
	}
	if exists {
		return nil, apperr.Conflict("reminder with this message id is already recorded")
	}

	record := &models.ReminderRecord{
		TaskID:    req.TaskID,
		StudentID: req.StudentID,
		Message:   req.Message,
		MessageID: req.MessageID,
		Status:    models.ReminderStatusSent,
	}
	if err := s.reminderRepo.Create(record); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("reminder with this message id is already recorded")
		}
		return nil, errors.Wrap(err, "save reminder record")
	}
	return record, nil
}

func (s *reminderService) UpdateDeliveryStatus(messageID string, status models.ReminderStatus) error {
	if messageID == "" {
		return apperr.Validation("message_id is required")
	}
	switch status {
	case models.ReminderStatusSent, models.ReminderStatusDelivered,
		models.ReminderStatusRead, models.ReminderStatusFailed:
	default:
		return apperr.Validation("status must be sent, delivered, read or failed")
	}

	updated, err := s.reminderRepo.UpdateStatusByMessageID(messageID, status)
	if err != nil {
		return errors.Wrap(err, "update delivery status")
	}
	if updated == 0 {
		return apperr.NotFound("no reminder recorded for this message id")
	}
	return nil
}

func (s *reminderService) SendReminderDigest(teacherID, taskID uint) (*ReminderDigest, error) {
	task, err := s.taskRepo.GetByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("task not found")
		}
		return nil, errors.Wrap(err, "load task")
	}
	if task.TeacherID != teacherID {
		return nil, apperr.Forbidden("task belongs to another teacher")
	}

	targets, err := s.pendingTargets(&taskID)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, apperr.NotFound("no students need a reminder for this task")
	}

	digest := &ReminderDigest{TaskID: task.ID, TaskTitle: task.Title, Students: targets}
	if s.bot != nil {
		names := make([]string, 0, len(targets))
		for _, t := range targets {
			names = append(names, fmt.Sprintf("%s (%s %s)", t.StudentName, t.Class, t.Major))
		}
		if err := s.bot.SendReminderDigest(task.Title, names); err != nil {
			log.Printf("reminder: failed to post digest for task %d: %v", task.ID, err)
		} else {
			digest.Posted = true
		}
	}
	return digest, nil
}

func (s *reminderService) History(teacherID, taskID uint) ([]*models.ReminderRecord, error) {
	task, err := s.taskRepo.GetByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("task not found")
		}
		return nil, errors.Wrap(err, "load task")
	}
	if task.TeacherID != teacherID {
		return nil, apperr.Forbidden("task belongs to another teacher")
	}

	records, err := s.reminderRepo.ListByTask(taskID)
	return records, errors.Wrap(err, "list reminder history")
}
