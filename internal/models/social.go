package models

import "time"

// Follow links a follower to the user they follow.
type Follow struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	FollowerID  uint      `json:"follower_id" gorm:"not null;uniqueIndex:idx_follows_pair"`
	FollowingID uint      `json:"following_id" gorm:"not null;uniqueIndex:idx_follows_pair"`
	CreatedAt   time.Time `json:"created_at"`

	Follower  User `json:"follower,omitempty" gorm:"foreignKey:FollowerID"`
	Following User `json:"following,omitempty" gorm:"foreignKey:FollowingID"`
}

// PushSubscription is one browser's Web Push endpoint for a user. A user can
// hold several (one per device/browser).
type PushSubscription struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	UserID     uint       `json:"user_id" gorm:"not null;uniqueIndex:idx_push_subs_user_endpoint"`
	Endpoint   string     `json:"endpoint" gorm:"size:500;not null;uniqueIndex:idx_push_subs_user_endpoint"`
	AuthKey    string     `json:"-" gorm:"not null"`
	P256dhKey  string     `json:"-" gorm:"not null"`
	UserAgent  string     `json:"user_agent"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
