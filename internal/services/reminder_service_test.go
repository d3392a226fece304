package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/putraaxzy/be-artemis/internal/apperr"
	"github.com/putraaxzy/be-artemis/internal/models"
	"github.com/putraaxzy/be-artemis/internal/repository"
)

func newReminderService(db *gorm.DB) ReminderService {
	return NewReminderService(
		repository.NewTaskRepository(db),
		repository.NewAssignmentRepository(db),
		repository.NewReminderRepository(db),
		nil,
	)
}

func TestPendingRemindersListsOnlyPending(t *testing.T) {
	db := setupTestDB(t)
	svc := newReminderService(db)
	teacher := createTeacher(t, db, "guru1")
	s1 := createStudent(t, db, "siswa1", "XI", "RPL")
	s2 := createStudent(t, db, "siswa2", "XI", "RPL")
	task := createClassTask(t, db, teacher.ID, "Tugas", "XI", "RPL")

	require.NoError(t, db.Create(&models.Assignment{
		TaskID: task.ID, StudentID: s1.ID, Status: models.AssignmentStatusPending,
	}).Error)
	require.NoError(t, db.Create(&models.Assignment{
		TaskID: task.ID, StudentID: s2.ID, Status: models.AssignmentStatusSubmitted,
	}).Error)

	targets, err := svc.PendingReminders()
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, s1.ID, targets[0].StudentID)
	assert.Equal(t, task.ID, targets[0].TaskID)
	assert.Equal(t, teacher.Name, targets[0].TeacherName)
}

func TestRecordReminderSuppressesRepeatWithinWindow(t *testing.T) {
	db := setupTestDB(t)
	svc := newReminderService(db)
	teacher := createTeacher(t, db, "guru1")
	s1 := createStudent(t, db, "siswa1", "XI", "RPL")
	task := createClassTask(t, db, teacher.ID, "Tugas", "XI", "RPL")
	require.NoError(t, db.Create(&models.Assignment{
		TaskID: task.ID, StudentID: s1.ID, Status: models.AssignmentStatusPending,
	}).Error)

	_, err := svc.RecordReminder(&RecordReminderRequest{
		TaskID:    task.ID,
		StudentID: s1.ID,
		Message:   "jangan lupa kumpulkan",
		MessageID: "wa-msg-1",
	})
	require.NoError(t, err)

	targets, err := svc.PendingReminders()
	require.NoError(t, err)
	assert.Empty(t, targets)
}

func TestRemindedStudentReappearsAfterWindow(t *testing.T) {
	db := setupTestDB(t)
	svc := newReminderService(db)
	teacher := createTeacher(t, db, "guru1")
	s1 := createStudent(t, db, "siswa1", "XI", "RPL")
	task := createClassTask(t, db, teacher.ID, "Tugas", "XI", "RPL")
	require.NoError(t, db.Create(&models.Assignment{
		TaskID: task.ID, StudentID: s1.ID, Status: models.AssignmentStatusPending,
	}).Error)

	// Backdate the reminder past the suppression window.
	record := &models.ReminderRecord{
		TaskID: task.ID, StudentID: s1.ID, Message: "ingat ya", MessageID: "wa-msg-1",
	}
	require.NoError(t, db.Create(record).Error)
	old := time.Now().Add(-25 * time.Hour)
	require.NoError(t, db.Model(record).Update("created_at", old).Error)

	targets, err := svc.PendingReminders()
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, s1.ID, targets[0].StudentID)
}

func TestRecordReminderDuplicateMessageIDConflicts(t *testing.T) {
	db := setupTestDB(t)
	svc := newReminderService(db)
	teacher := createTeacher(t, db, "guru1")
	s1 := createStudent(t, db, "siswa1", "XI", "RPL")
	s2 := createStudent(t, db, "siswa2", "XI", "RPL")
	task := createClassTask(t, db, teacher.ID, "Tugas", "XI", "RPL")
	for _, s := range []*models.User{s1, s2} {
		require.NoError(t, db.Create(&models.Assignment{
			TaskID: task.ID, StudentID: s.ID, Status: models.AssignmentStatusPending,
		}).Error)
	}

	_, err := svc.RecordReminder(&RecordReminderRequest{
		TaskID: task.ID, StudentID: s1.ID, Message: "ingat", MessageID: "wa-msg-1",
	})
	require.NoError(t, err)

	// Same delivery id again, even for another student, is a retry.
	_, err = svc.RecordReminder(&RecordReminderRequest{
		TaskID: task.ID, StudentID: s2.ID, Message: "ingat", MessageID: "wa-msg-1",
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestRecordReminderOnNonPendingConflicts(t *testing.T) {
	db := setupTestDB(t)
	svc := newReminderService(db)
	teacher := createTeacher(t, db, "guru1")
	s1 := createStudent(t, db, "siswa1", "XI", "RPL")
	task := createClassTask(t, db, teacher.ID, "Tugas", "XI", "RPL")
	require.NoError(t, db.Create(&models.Assignment{
		TaskID: task.ID, StudentID: s1.ID, Status: models.AssignmentStatusSubmitted,
	}).Error)

	_, err := svc.RecordReminder(&RecordReminderRequest{
		TaskID: task.ID, StudentID: s1.ID, Message: "ingat", MessageID: "wa-msg-1",
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestUpdateDeliveryStatus(t *testing.T) {
	db := setupTestDB(t)
	svc := newReminderService(db)
	teacher := createTeacher(t, db, "guru1")
	s1 := createStudent(t, db, "siswa1", "XI", "RPL")
	task := createClassTask(t, db, teacher.ID, "Tugas", "XI", "RPL")
	require.NoError(t, db.Create(&models.Assignment{
		TaskID: task.ID, StudentID: s1.ID, Status: models.AssignmentStatusPending,
	}).Error)

	record, err := svc.RecordReminder(&RecordReminderRequest{
		TaskID: task.ID, StudentID: s1.ID, Message: "ingat", MessageID: "wa-msg-1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ReminderStatusSent, record.Status)

	require.NoError(t, svc.UpdateDeliveryStatus("wa-msg-1", models.ReminderStatusRead))

	var reloaded models.ReminderRecord
	require.NoError(t, db.First(&reloaded, record.ID).Error)
	assert.Equal(t, models.ReminderStatusRead, reloaded.Status)

	err = svc.UpdateDeliveryStatus("wa-msg-unknown", models.ReminderStatusRead)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	err = svc.UpdateDeliveryStatus("wa-msg-1", "bogus")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestSendReminderDigestWithoutPendingStudents(t *testing.T) {
	db := setupTestDB(t)
	svc := newReminderService(db)
	teacher := createTeacher(t, db, "guru1")
	task := createClassTask(t, db, teacher.ID, "Tugas", "XI", "RPL")

	_, err := svc.SendReminderDigest(teacher.ID, task.ID)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestReminderHistoryForbiddenForOtherTeacher(t *testing.T) {
	db := setupTestDB(t)
	svc := newReminderService(db)
	owner := createTeacher(t, db, "guru1")
	other := createTeacher(t, db, "guru2")
	task := createClassTask(t, db, owner.ID, "Tugas", "XI", "RPL")

	_, err := svc.History(other.ID, task.ID)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}
