package repository

import (
	"gorm.io/gorm"

	"github.com/putraaxzy/be-artemis/internal/models"
)

// TaskRepository provides access to tasks.
type TaskRepository interface {
	// Create stores the task and fans it out to the given students in one
	// transaction, so a task never exists with a partial assignment set.
	Create(task *models.Task, studentIDs []uint) error
	GetByID(id uint) (*models.Task, error)
	ListByTeacher(teacherID uint) ([]*models.Task, error)
	ListForStudent(studentID uint) ([]*models.Task, error)
	ListByTargetMode(mode models.TargetMode) ([]*models.Task, error)
	Update(task *models.Task) error
	// Delete removes the task together with its assignments and reminder
	// records in one transaction so no orphans survive.
	Delete(id uint) error
}

type taskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) Create(task *models.Task, studentIDs []uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(task).Error; err != nil {
			return err
		}
		return createPendingAssignments(tx, task.ID, studentIDs)
	})
}

func (r *taskRepository) GetByID(id uint) (*models.Task, error) {
	var task models.Task
	err := r.db.Preload("Teacher").First(&task, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *taskRepository) ListByTeacher(teacherID uint) ([]*models.Task, error) {
	var tasks []*models.Task
	err := r.db.Preload("Assignments").
		Where("teacher_id = ?", teacherID).
		Order("created_at DESC").
		Find(&tasks).Error
	return tasks, err
}

func (r *taskRepository) ListForStudent(studentID uint) ([]*models.Task, error) {
	var tasks []*models.Task
	err := r.db.Preload("Teacher").
		Joins("JOIN assignments ON assignments.task_id = tasks.id").
		Where("assignments.student_id = ?", studentID).
		Order("tasks.created_at DESC").
		Find(&tasks).Error
	return tasks, err
}

func (r *taskRepository) ListByTargetMode(mode models.TargetMode) ([]*models.Task, error) {
	var tasks []*models.Task
	err := r.db.Where("target_mode = ?", mode).Find(&tasks).Error
	return tasks, err
}

func (r *taskRepository) Update(task *models.Task) error {
	return r.db.Save(task).Error
}

func (r *taskRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.ReminderRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id = ?", id).Delete(&models.Assignment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Task{}, "id = ?", id).Error
	})
}
