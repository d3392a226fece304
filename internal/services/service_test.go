package services

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/putraaxzy/be-artemis/internal/models"
)

// setupTestDB opens an isolated in-memory database per test.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Major{},
		&models.Task{},
		&models.Assignment{},
		&models.ReminderRecord{},
		&models.Follow{},
		&models.PushSubscription{},
	))

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func createTeacher(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Name:     "Guru " + username,
		Phone:    "08" + username,
		Password: hashPassword(t, "password123"),
		Role:     models.RoleTeacher,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createStudent(t *testing.T, db *gorm.DB, username, class, major string) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Name:     "Siswa " + username,
		Phone:    "08" + username,
		Password: hashPassword(t, "password123"),
		Role:     models.RoleStudent,
		Class:    class,
		Major:    major,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

// nopPush is a PushService that records nothing and always succeeds.
type nopPush struct{}

func (nopPush) Subscribe(uint, *SubscribeRequest) error        { return nil }
func (nopPush) Unsubscribe(uint, string) error                 { return nil }
func (nopPush) VAPIDPublicKey() string                         { return "" }
func (nopPush) SubscriptionCount(uint) (int64, error)          { return 0, nil }
func (nopPush) SendToUser(uint, *PushMessage) bool             { return false }
func (nopPush) NotifyTaskCreated(*models.Task, []uint)         {}
func (nopPush) NotifyTaskSubmitted(*models.Task, *models.User) {}
func (nopPush) NotifyUserFollowed(*models.User, uint)          {}
