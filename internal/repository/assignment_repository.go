package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/putraaxzy/be-artemis/internal/models"
)

// AssignmentRepository provides access to per-student assignment records.
type AssignmentRepository interface {
	Create(assignment *models.Assignment) error
	// CreateForStudents fans a task out to the given students, all pending.
	// A (task, student) pair that already has an assignment is left as is.
	CreateForStudents(taskID uint, studentIDs []uint) error
	// ResetForTask replaces the task's assignment set with fresh pending
	// assignments for the given students, in one transaction.
	ResetForTask(taskID uint, studentIDs []uint) error
	GetByID(id uint) (*models.Assignment, error)
	GetByTaskAndStudent(taskID, studentID uint) (*models.Assignment, error)
	ExistsByTaskAndStudent(taskID, studentID uint) (bool, error)
	ListByTask(taskID uint) ([]*models.Assignment, error)
	ListByTaskAndStatus(taskID uint, status models.AssignmentStatus) ([]*models.Assignment, error)
	ListByStudent(studentID uint) ([]*models.Assignment, error)
	ListGradedByStudent(studentID uint, limit int) ([]*models.Assignment, error)
	StudentIDsByTask(taskID uint) ([]uint, error)
	Update(assignment *models.Assignment) error

	// Reminder feed: pending assignments with no reminder record for the
	// same (task, student) since the given time. taskID nil means all tasks.
	ListPendingNeedingReminder(taskID *uint, since time.Time) ([]*models.Assignment, error)

	// Profile stats
	CountByStudent(studentID uint) (int64, error)
	CountByStudentAndStatus(studentID uint, status models.AssignmentStatus) (int64, error)
	AverageScoreByStudent(studentID uint) (float64, error)
}

type assignmentRepository struct {
	db *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) Create(assignment *models.Assignment) error {
	return r.db.Create(assignment).Error
}

func (r *assignmentRepository) CreateForStudents(taskID uint, studentIDs []uint) error {
	return createPendingAssignments(r.db, taskID, studentIDs)
}

func (r *assignmentRepository) ResetForTask(taskID uint, studentIDs []uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", taskID).Delete(&models.Assignment{}).Error; err != nil {
			return err
		}
		return createPendingAssignments(tx, taskID, studentIDs)
	})
}

// createPendingAssignments inserts pending assignments, skipping any
// (task, student) pair that already has one. A student auto-enrolled between
// target resolution and the fan-out keeps the assignment the enrollment made.
func createPendingAssignments(tx *gorm.DB, taskID uint, studentIDs []uint) error {
	if len(studentIDs) == 0 {
		return nil
	}
	assignments := make([]models.Assignment, 0, len(studentIDs))
	for _, studentID := range studentIDs {
		assignments = append(assignments, models.Assignment{
			TaskID:    taskID,
			StudentID: studentID,
			Status:    models.AssignmentStatusPending,
		})
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "task_id"}, {Name: "student_id"}},
		DoNothing: true,
	}).Create(&assignments).Error
}

func (r *assignmentRepository) GetByID(id uint) (*models.Assignment, error) {
	var assignment models.Assignment
	err := r.db.Preload("Task").Preload("Student").First(&assignment, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *assignmentRepository) GetByTaskAndStudent(taskID, studentID uint) (*models.Assignment, error) {
	var assignment models.Assignment
	err := r.db.Preload("Task").
		Where("task_id = ? AND student_id = ?", taskID, studentID).
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *assignmentRepository) ExistsByTaskAndStudent(taskID, studentID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Assignment{}).
		Where("task_id = ? AND student_id = ?", taskID, studentID).
		Count(&count).Error
	return count > 0, err
}

func (r *assignmentRepository) ListByTask(taskID uint) ([]*models.Assignment, error) {
	var assignments []*models.Assignment
	err := r.db.Preload("Student").
		Where("task_id = ?", taskID).
		Order("created_at").
		Find(&assignments).Error
	return assignments, err
}

func (r *assignmentRepository) ListByTaskAndStatus(taskID uint, status models.AssignmentStatus) ([]*models.Assignment, error) {
	var assignments []*models.Assignment
	err := r.db.Preload("Student").
		Where("task_id = ? AND status = ?", taskID, status).
		Order("created_at").
		Find(&assignments).Error
	return assignments, err
}

func (r *assignmentRepository) ListByStudent(studentID uint) ([]*models.Assignment, error) {
	var assignments []*models.Assignment
	err := r.db.Preload("Task").
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&assignments).Error
	return assignments, err
}

func (r *assignmentRepository) ListGradedByStudent(studentID uint, limit int) ([]*models.Assignment, error) {
	var assignments []*models.Assignment
	err := r.db.Preload("Task").
		Where("student_id = ? AND score IS NOT NULL", studentID).
		Order("created_at DESC").
		Limit(limit).
		Find(&assignments).Error
	return assignments, err
}

func (r *assignmentRepository) StudentIDsByTask(taskID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.Assignment{}).
		Where("task_id = ?", taskID).
		Pluck("student_id", &ids).Error
	return ids, err
}

func (r *assignmentRepository) Update(assignment *models.Assignment) error {
	return r.db.Save(assignment).Error
}

func (r *assignmentRepository) ListPendingNeedingReminder(taskID *uint, since time.Time) ([]*models.Assignment, error) {
	query := r.db.Preload("Task").Preload("Task.Teacher").Preload("Student").
		Where("assignments.status = ?", models.AssignmentStatusPending).
		Where(`NOT EXISTS (
			SELECT 1 FROM reminder_records
			WHERE reminder_records.task_id = assignments.task_id
			  AND reminder_records.student_id = assignments.student_id
			  AND reminder_records.created_at >= ?)`, since)
	if taskID != nil {
		query = query.Where("assignments.task_id = ?", *taskID)
	}

	var assignments []*models.Assignment
	err := query.Order("assignments.created_at").Find(&assignments).Error
	return assignments, err
}

func (r *assignmentRepository) CountByStudent(studentID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Assignment{}).
		Where("student_id = ?", studentID).
		Count(&count).Error
	return count, err
}

func (r *assignmentRepository) CountByStudentAndStatus(studentID uint, status models.AssignmentStatus) (int64, error) {
	var count int64
	err := r.db.Model(&models.Assignment{}).
		Where("student_id = ? AND status = ?", studentID, status).
		Count(&count).Error
	return count, err
}

func (r *assignmentRepository) AverageScoreByStudent(studentID uint) (float64, error) {
	var avg *float64
	err := r.db.Model(&models.Assignment{}).
		Where("student_id = ? AND score IS NOT NULL", studentID).
		Select("AVG(score)").
		Scan(&avg).Error
	if err != nil || avg == nil {
		return 0, err
	}
	return *avg, nil
}
