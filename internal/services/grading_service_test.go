package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/putraaxzy/be-artemis/internal/apperr"
	"github.com/putraaxzy/be-artemis/internal/models"
	"github.com/putraaxzy/be-artemis/internal/repository"
)

func gradingFixture(t *testing.T, db *gorm.DB) (GradingService, *models.User, *models.Assignment) {
	t.Helper()
	svc := NewGradingService(repository.NewAssignmentRepository(db))
	teacher := createTeacher(t, db, "guru1")
	student := createStudent(t, db, "siswa1", "XI", "RPL")
	createTaskWithAssignment(t, db, teacher, student, models.SubmissionModeDirect)

	var assignment models.Assignment
	require.NoError(t, db.First(&assignment).Error)
	require.NoError(t, db.Model(&assignment).
		Update("status", models.AssignmentStatusSubmitted).Error)
	assignment.Status = models.AssignmentStatusSubmitted
	return svc, teacher, &assignment
}

func TestGradeCompleted(t *testing.T) {
	db := setupTestDB(t)
	svc, teacher, assignment := gradingFixture(t, db)

	score := 85
	note := "bagus"
	graded, err := svc.Grade(teacher.ID, assignment.ID, &GradeRequest{
		Status: models.AssignmentStatusCompleted,
		Score:  &score,
		Note:   &note,
	})
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentStatusCompleted, graded.Status)
	require.NotNil(t, graded.Score)
	assert.Equal(t, 85, *graded.Score)
}

func TestGradeRepeatSameDecisionOverwrites(t *testing.T) {
	db := setupTestDB(t)
	svc, teacher, assignment := gradingFixture(t, db)

	score := 70
	_, err := svc.Grade(teacher.ID, assignment.ID, &GradeRequest{
		Status: models.AssignmentStatusCompleted,
		Score:  &score,
	})
	require.NoError(t, err)

	// Same decision again with a new score is idempotent, not a conflict.
	better := 95
	graded, err := svc.Grade(teacher.ID, assignment.ID, &GradeRequest{
		Status: models.AssignmentStatusCompleted,
		Score:  &better,
	})
	require.NoError(t, err)
	require.NotNil(t, graded.Score)
	assert.Equal(t, 95, *graded.Score)
}

func TestGradeReversingCompletedConflicts(t *testing.T) {
	db := setupTestDB(t)
	svc, teacher, assignment := gradingFixture(t, db)

	score := 70
	_, err := svc.Grade(teacher.ID, assignment.ID, &GradeRequest{
		Status: models.AssignmentStatusCompleted,
		Score:  &score,
	})
	require.NoError(t, err)

	_, err = svc.Grade(teacher.ID, assignment.ID, &GradeRequest{
		Status: models.AssignmentStatusRejected,
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestGradeOmittedScoreClearsStoredValue(t *testing.T) {
	db := setupTestDB(t)
	svc, teacher, assignment := gradingFixture(t, db)

	score := 55
	_, err := svc.Grade(teacher.ID, assignment.ID, &GradeRequest{
		Status: models.AssignmentStatusRejected,
		Score:  &score,
	})
	require.NoError(t, err)

	graded, err := svc.Grade(teacher.ID, assignment.ID, &GradeRequest{
		Status: models.AssignmentStatusRejected,
	})
	require.NoError(t, err)
	assert.Nil(t, graded.Score)
	assert.Nil(t, graded.TeacherNote)
}

func TestGradeValidatesScoreBounds(t *testing.T) {
	db := setupTestDB(t)
	svc, teacher, assignment := gradingFixture(t, db)

	tooHigh := 101
	_, err := svc.Grade(teacher.ID, assignment.ID, &GradeRequest{
		Status: models.AssignmentStatusCompleted,
		Score:  &tooHigh,
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestGradeForbiddenForOtherTeacher(t *testing.T) {
	db := setupTestDB(t)
	svc, _, assignment := gradingFixture(t, db)
	other := createTeacher(t, db, "guru2")

	_, err := svc.Grade(other.ID, assignment.ID, &GradeRequest{
		Status: models.AssignmentStatusCompleted,
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}
