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
	"github.com/putraaxzy/be-artemis/pkg/storage"
)

func newAuthService(t *testing.T, db *gorm.DB) AuthService {
	t.Helper()
	store, err := storage.NewStorage(t.TempDir(), 1024*1024)
	require.NoError(t, err)
	return NewAuthService(
		repository.NewUserRepository(db),
		repository.NewMajorRepository(db),
		newEnrollmentService(db),
		store,
		"test-secret",
		time.Hour,
	)
}

func seedMajor(t *testing.T, db *gorm.DB, class, name string) {
	t.Helper()
	require.NoError(t, db.Create(&models.Major{Class: class, Name: name}).Error)
}

func TestRegisterAndLogin(t *testing.T) {
	db := setupTestDB(t)
	svc := newAuthService(t, db)
	seedMajor(t, db, "XI", "RPL")

	result, err := svc.Register(&RegisterRequest{
		Username: "siswa_baru",
		Name:     "Siswa Baru",
		Phone:    "081234000001",
		Password: "rahasia123",
		Class:    "XI",
		Major:    "RPL",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, models.RoleStudent, result.User.Role)

	login, err := svc.Login("siswa_baru", "rahasia123")
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, login.User.ID)

	user, err := svc.ValidateToken(login.Token)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, user.ID)
}

func TestRegisterAutoEnrollsIntoClassTasks(t *testing.T) {
	db := setupTestDB(t)
	svc := newAuthService(t, db)
	seedMajor(t, db, "XI", "RPL")
	teacher := createTeacher(t, db, "guru1")
	createClassTask(t, db, teacher.ID, "Tugas Lama", "XI", "RPL")

	result, err := svc.Register(&RegisterRequest{
		Username: "siswa_baru",
		Name:     "Siswa Baru",
		Phone:    "081234000001",
		Password: "rahasia123",
		Class:    "XI",
		Major:    "RPL",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.EnrolledCount)

	var count int64
	db.Model(&models.Assignment{}).Where("student_id = ?", result.User.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestRegisterRejectsUnknownMajor(t *testing.T) {
	db := setupTestDB(t)
	svc := newAuthService(t, db)
	seedMajor(t, db, "XI", "RPL")

	_, err := svc.Register(&RegisterRequest{
		Username: "siswa_baru",
		Name:     "Siswa Baru",
		Phone:    "081234000001",
		Password: "rahasia123",
		Class:    "XI",
		Major:    "TKJ",
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestRegisterDuplicateUsernameConflicts(t *testing.T) {
	db := setupTestDB(t)
	svc := newAuthService(t, db)
	seedMajor(t, db, "XI", "RPL")

	req := &RegisterRequest{
		Username: "siswa_baru",
		Name:     "Siswa Baru",
		Phone:    "081234000001",
		Password: "rahasia123",
		Class:    "XI",
		Major:    "RPL",
	}
	_, err := svc.Register(req)
	require.NoError(t, err)

	req.Phone = "081234000002"
	_, err = svc.Register(req)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestRegisterRejectsBadUsername(t *testing.T) {
	db := setupTestDB(t)
	svc := newAuthService(t, db)
	seedMajor(t, db, "XI", "RPL")

	_, err := svc.Register(&RegisterRequest{
		Username: "siswa baru!",
		Name:     "Siswa Baru",
		Phone:    "081234000001",
		Password: "rahasia123",
		Class:    "XI",
		Major:    "RPL",
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestLoginWrongPasswordUnauthorized(t *testing.T) {
	db := setupTestDB(t)
	svc := newAuthService(t, db)
	createStudent(t, db, "siswa1", "XI", "RPL")

	_, err := svc.Login("siswa1", "salah")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	_, err = svc.Login("tidak_ada", "password123")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	db := setupTestDB(t)
	svc := newAuthService(t, db)

	_, err := svc.ValidateToken("not.a.token")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
}

func TestUsernameChangeCooldown(t *testing.T) {
	db := setupTestDB(t)
	svc := newAuthService(t, db)
	student := createStudent(t, db, "siswa1", "XI", "RPL")

	first := "siswa1_baru"
	updated, err := svc.UpdateProfile(student, &UpdateProfileRequest{Username: &first})
	require.NoError(t, err)
	assert.Equal(t, first, updated.Username)
	require.NotNil(t, updated.UsernameChangedAt)

	second := "siswa1_lagi"
	_, err = svc.UpdateProfile(updated, &UpdateProfileRequest{Username: &second})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestRegisterOptionsGroupsMajorsByClass(t *testing.T) {
	db := setupTestDB(t)
	svc := newAuthService(t, db)
	seedMajor(t, db, "X", "RPL")
	seedMajor(t, db, "X", "TKJ")
	seedMajor(t, db, "XI", "RPL")

	options, err := svc.RegisterOptions()
	require.NoError(t, err)
	assert.Equal(t, []string{"X", "XI"}, options.Classes)
	assert.Equal(t, []string{"RPL", "TKJ"}, options.MajorsByClass["X"])
	assert.Equal(t, []string{"RPL"}, options.MajorsByClass["XI"])
}
