package models

import (
	"time"
)

// UserRole defines the two account roles in the system.
type UserRole string

const (
	RoleTeacher UserRole = "teacher"
	RoleStudent UserRole = "student"
)

// User represents a teacher or student account.
type User struct {
	ID                uint       `json:"id" gorm:"primaryKey"`
	Username          string     `json:"username" gorm:"uniqueIndex;size:30;not null"`
	Name              string     `json:"name" gorm:"not null"`
	Phone             string     `json:"phone" gorm:"uniqueIndex;size:20"`
	Password          string     `json:"-" gorm:"not null"`
	Role              UserRole   `json:"role" gorm:"type:varchar(10);default:'student'"`
	Class             string     `json:"class"`
	Major             string     `json:"major"`
	Avatar            string     `json:"avatar"`
	Bio               string     `json:"bio" gorm:"size:200"`
	UsernameChangedAt *time.Time `json:"username_changed_at,omitempty"`
	IsFirstLogin      bool       `json:"is_first_login" gorm:"default:false"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	Tasks       []Task       `json:"tasks,omitempty" gorm:"foreignKey:TeacherID"`
	Assignments []Assignment `json:"assignments,omitempty" gorm:"foreignKey:StudentID"`
}

// usernameChangeInterval is the minimum time between username changes.
const usernameChangeInterval = 7 * 24 * time.Hour

// CanChangeUsername reports whether the username change cooldown has passed.
func (u *User) CanChangeUsername() bool {
	if u.UsernameChangedAt == nil {
		return true
	}
	return time.Since(*u.UsernameChangedAt) >= usernameChangeInterval
}

// DaysUntilUsernameChange returns the remaining days before the username can
// be changed again, zero if it can be changed now.
func (u *User) DaysUntilUsernameChange() int {
	if u.UsernameChangedAt == nil {
		return 0
	}
	remaining := usernameChangeInterval - time.Since(*u.UsernameChangedAt)
	if remaining <= 0 {
		return 0
	}
	return int(remaining.Hours()/24) + 1
}

// Major is one (class, major) entry of the enrollment catalog. Registration
// only accepts combinations present here.
type Major struct {
	ID    uint   `json:"id" gorm:"primaryKey"`
	Class string `json:"class" gorm:"uniqueIndex:idx_majors_class_name;size:10;not null"`
	Name  string `json:"major" gorm:"column:major;uniqueIndex:idx_majors_class_name;size:50;not null"`
}
