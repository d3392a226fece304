package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/putraaxzy/be-artemis/internal/models"
)

// PushSubscriptionRepository provides access to Web Push subscriptions.
type PushSubscriptionRepository interface {
	// Upsert creates the subscription or refreshes its keys when the
	// (user, endpoint) pair already exists.
	Upsert(sub *models.PushSubscription) error
	DeleteByUserAndEndpoint(userID uint, endpoint string) error
	Delete(id uint) error
	ListByUser(userID uint) ([]*models.PushSubscription, error)
	CountByUser(userID uint) (int64, error)
	Touch(id uint, at time.Time) error
}

type pushSubscriptionRepository struct {
	db *gorm.DB
}

func NewPushSubscriptionRepository(db *gorm.DB) PushSubscriptionRepository {
	return &pushSubscriptionRepository{db: db}
}

func (r *pushSubscriptionRepository) Upsert(sub *models.PushSubscription) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"auth_key", "p256dh_key", "user_agent", "last_used_at", "updated_at",
		}),
	}).Create(sub).Error
}

func (r *pushSubscriptionRepository) DeleteByUserAndEndpoint(userID uint, endpoint string) error {
	return r.db.Where("user_id = ? AND endpoint = ?", userID, endpoint).
		Delete(&models.PushSubscription{}).Error
}

func (r *pushSubscriptionRepository) Delete(id uint) error {
	return r.db.Delete(&models.PushSubscription{}, "id = ?", id).Error
}

func (r *pushSubscriptionRepository) ListByUser(userID uint) ([]*models.PushSubscription, error) {
	var subs []*models.PushSubscription
	err := r.db.Where("user_id = ?", userID).Find(&subs).Error
	return subs, err
}

func (r *pushSubscriptionRepository) CountByUser(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.PushSubscription{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (r *pushSubscriptionRepository) Touch(id uint, at time.Time) error {
	return r.db.Model(&models.PushSubscription{}).
		Where("id = ?", id).
		Update("last_used_at", at).Error
}
