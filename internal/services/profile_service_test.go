package services

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/putraaxzy/be-artemis/internal/apperr"
	"github.com/putraaxzy/be-artemis/internal/models"
	"github.com/putraaxzy/be-artemis/internal/repository"
)

func newProfileService(db *gorm.DB) ProfileService {
	return NewProfileService(
		repository.NewUserRepository(db),
		repository.NewFollowRepository(db),
		repository.NewAssignmentRepository(db),
		nopPush{},
		"http://localhost:8000",
	)
}

func TestFollowAndProfileCounts(t *testing.T) {
	db := setupTestDB(t)
	svc := newProfileService(db)
	s1 := createStudent(t, db, "siswa1", "XI", "RPL")
	s2 := createStudent(t, db, "siswa2", "XI", "RPL")

	require.NoError(t, svc.Follow(s1, s2.ID))

	profile, err := svc.Profile(s1, s2.Username)
	require.NoError(t, err)
	assert.EqualValues(t, 1, profile.FollowersCount)
	assert.True(t, profile.IsFollowing)

	followers, err := svc.Followers(s2.ID)
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, s1.ID, followers[0].ID)
}

func TestFollowSelfRejected(t *testing.T) {
	db := setupTestDB(t)
	svc := newProfileService(db)
	s1 := createStudent(t, db, "siswa1", "XI", "RPL")

	err := svc.Follow(s1, s1.ID)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestFollowTwiceConflicts(t *testing.T) {
	db := setupTestDB(t)
	svc := newProfileService(db)
	s1 := createStudent(t, db, "siswa1", "XI", "RPL")
	s2 := createStudent(t, db, "siswa2", "XI", "RPL")

	require.NoError(t, svc.Follow(s1, s2.ID))
	err := svc.Follow(s1, s2.ID)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestUnfollowWithoutFollowNotFound(t *testing.T) {
	db := setupTestDB(t)
	svc := newProfileService(db)
	s1 := createStudent(t, db, "siswa1", "XI", "RPL")
	s2 := createStudent(t, db, "siswa2", "XI", "RPL")

	err := svc.Unfollow(s1.ID, s2.ID)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestProfileResolvesByNumericID(t *testing.T) {
	db := setupTestDB(t)
	svc := newProfileService(db)
	s1 := createStudent(t, db, "siswa1", "XI", "RPL")

	profile, err := svc.Profile(nil, strconv.FormatUint(uint64(s1.ID), 10))
	require.NoError(t, err)
	assert.Equal(t, s1.Username, profile.Username)
}

func TestProfileStudentStats(t *testing.T) {
	db := setupTestDB(t)
	svc := newProfileService(db)
	teacher := createTeacher(t, db, "guru1")
	student := createStudent(t, db, "siswa1", "XI", "RPL")
	task := createClassTask(t, db, teacher.ID, "Tugas", "XI", "RPL")

	score := 80
	require.NoError(t, db.Create(&models.Assignment{
		TaskID:    task.ID,
		StudentID: student.ID,
		Status:    models.AssignmentStatusCompleted,
		Score:     &score,
	}).Error)

	profile, err := svc.Profile(nil, student.Username)
	require.NoError(t, err)
	require.NotNil(t, profile.Stats)
	assert.EqualValues(t, 1, profile.Stats.TotalTasks)
	assert.EqualValues(t, 1, profile.Stats.CompletedTasks)
	assert.InDelta(t, 80, profile.Stats.AverageScore, 0.01)
	require.Len(t, profile.Stats.Performance, 1)
	assert.Equal(t, 80, profile.Stats.Performance[0].Score)
}

func TestUpdateBioLengthLimit(t *testing.T) {
	db := setupTestDB(t)
	svc := newProfileService(db)
	s1 := createStudent(t, db, "siswa1", "XI", "RPL")

	long := make([]byte, maxBioLength+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err := svc.UpdateBio(s1, string(long))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestSearchRequiresMinimumQuery(t *testing.T) {
	db := setupTestDB(t)
	svc := newProfileService(db)
	createStudent(t, db, "siswa1", "XI", "RPL")

	_, err := svc.Search("a")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	users, err := svc.Search("siswa")
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestAvatarFallbackForUsersWithoutUpload(t *testing.T) {
	db := setupTestDB(t)
	svc := newProfileService(db)
	s1 := createStudent(t, db, "siswa1", "XI", "RPL")

	profile, err := svc.Profile(nil, s1.Username)
	require.NoError(t, err)
	assert.Contains(t, profile.Avatar, "ui-avatars.com")
}
