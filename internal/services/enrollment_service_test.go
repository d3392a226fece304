package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/putraaxzy/be-artemis/internal/models"
	"github.com/putraaxzy/be-artemis/internal/repository"
)

func newEnrollmentService(db *gorm.DB) EnrollmentService {
	return NewEnrollmentService(
		repository.NewTaskRepository(db),
		repository.NewAssignmentRepository(db),
	)
}

func createClassTask(t *testing.T, db *gorm.DB, teacherID uint, title, class, major string) *models.Task {
	t.Helper()
	task := &models.Task{
		TeacherID:  teacherID,
		Title:      title,
		TargetMode: models.TargetModeClass,
		TargetSpec: models.TargetSpec{
			Classes: []models.ClassTarget{{Class: class, Major: major}},
		},
		SubmissionMode: models.SubmissionModeDirect,
	}
	require.NoError(t, db.Create(task).Error)
	return task
}

func TestEnrollStudentBackfillsMatchingTasks(t *testing.T) {
	db := setupTestDB(t)
	svc := newEnrollmentService(db)
	teacher := createTeacher(t, db, "guru1")
	createClassTask(t, db, teacher.ID, "Tugas 1", "XI", "RPL")
	createClassTask(t, db, teacher.ID, "Tugas 2", "xi", "rpl") // same class, messy casing
	createClassTask(t, db, teacher.ID, "Tugas 3", "XII", "TKJ")

	student := createStudent(t, db, "siswa_baru", "XI", "RPL")

	created, err := svc.EnrollStudent(student)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	var count int64
	db.Model(&models.Assignment{}).Where("student_id = ?", student.ID).Count(&count)
	assert.EqualValues(t, 2, count)
}

func TestEnrollStudentIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	svc := newEnrollmentService(db)
	teacher := createTeacher(t, db, "guru1")
	createClassTask(t, db, teacher.ID, "Tugas 1", "XI", "RPL")
	student := createStudent(t, db, "siswa_baru", "XI", "RPL")

	created, err := svc.EnrollStudent(student)
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	created, err = svc.EnrollStudent(student)
	require.NoError(t, err)
	assert.Zero(t, created)

	var count int64
	db.Model(&models.Assignment{}).Where("student_id = ?", student.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestEnrollStudentNoMatchesIsQuietNoop(t *testing.T) {
	db := setupTestDB(t)
	svc := newEnrollmentService(db)
	teacher := createTeacher(t, db, "guru1")
	createClassTask(t, db, teacher.ID, "Tugas 1", "XI", "RPL")
	student := createStudent(t, db, "siswa_baru", "X", "MM")

	created, err := svc.EnrollStudent(student)
	require.NoError(t, err)
	assert.Zero(t, created)
}

func TestEnrollStudentPreservesExistingProgress(t *testing.T) {
	db := setupTestDB(t)
	svc := newEnrollmentService(db)
	teacher := createTeacher(t, db, "guru1")
	task := createClassTask(t, db, teacher.ID, "Tugas 1", "XI", "RPL")
	student := createStudent(t, db, "siswa_baru", "XI", "RPL")

	require.NoError(t, db.Create(&models.Assignment{
		TaskID:    task.ID,
		StudentID: student.ID,
		Status:    models.AssignmentStatusSubmitted,
	}).Error)

	created, err := svc.EnrollStudent(student)
	require.NoError(t, err)
	assert.Zero(t, created)

	var assignment models.Assignment
	require.NoError(t, db.Where("task_id = ? AND student_id = ?", task.ID, student.ID).
		First(&assignment).Error)
	assert.Equal(t, models.AssignmentStatusSubmitted, assignment.Status)
}
