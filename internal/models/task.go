package models

import (
	"database/sql/driver"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// TargetMode determines how a task's target specification is interpreted.
type TargetMode string

const (
	TargetModeStudents TargetMode = "students" // explicit student id list
	TargetModeClass    TargetMode = "class"    // class+major pairs
)

// SubmissionMode determines what a student must provide when submitting.
type SubmissionMode string

const (
	SubmissionModeLink   SubmissionMode = "link"   // requires a valid URL
	SubmissionModeDirect SubmissionMode = "direct" // no submission data
)

// ClassTarget addresses all students of one class+major combination.
type ClassTarget struct {
	Class string `json:"class"`
	Major string `json:"major"`
}

// TargetSpec is the task's target specification. Exactly one of the two
// slices is populated, discriminated by the task's TargetMode.
type TargetSpec struct {
	StudentIDs []uint        `json:"student_ids,omitempty"`
	Classes    []ClassTarget `json:"classes,omitempty"`
}

// Value serializes the spec as JSON for storage.
func (t TargetSpec) Value() (driver.Value, error) {
	b, err := json.Marshal(t)
	if err != nil {
		return nil, errors.Wrap(err, "marshal target spec")
	}
	return string(b), nil
}

// Scan deserializes the JSON column back into the spec.
func (t *TargetSpec) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*t = TargetSpec{}
		return nil
	case []byte:
		return errors.Wrap(json.Unmarshal(v, t), "scan target spec")
	case string:
		return errors.Wrap(json.Unmarshal([]byte(v), t), "scan target spec")
	default:
		return errors.Errorf("unsupported target spec source type %T", src)
	}
}

// NormalizeKey canonicalizes a class or major string for matching. Fan-out
// membership is decided on the normalized values only.
func NormalizeKey(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// MatchesClassMajor reports whether any class target of the spec matches the
// given class and major after normalization.
func (t TargetSpec) MatchesClassMajor(class, major string) bool {
	classNorm := NormalizeKey(class)
	majorNorm := NormalizeKey(major)
	for _, ct := range t.Classes {
		if NormalizeKey(ct.Class) == classNorm && NormalizeKey(ct.Major) == majorNorm {
			return true
		}
	}
	return false
}

// Task is a unit of work created by a teacher and fanned out to students.
type Task struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	TeacherID      uint           `json:"teacher_id" gorm:"not null;index"`
	Title          string         `json:"title" gorm:"size:255;not null"`
	Description    string         `json:"description"`
	AttachmentPath string         `json:"attachment,omitempty"`
	TargetMode     TargetMode     `json:"target_mode" gorm:"type:varchar(10);not null"`
	TargetSpec     TargetSpec     `json:"target_spec" gorm:"type:text"`
	SubmissionMode SubmissionMode `json:"submission_mode" gorm:"type:varchar(10);not null"`
	StartAt        *time.Time     `json:"start_at,omitempty"`
	Deadline       *time.Time     `json:"deadline,omitempty"`
	ShowScore      bool           `json:"show_score" gorm:"default:false"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`

	Teacher     User             `json:"teacher,omitempty" gorm:"foreignKey:TeacherID"`
	Assignments []Assignment     `json:"assignments,omitempty" gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
	Reminders   []ReminderRecord `json:"reminders,omitempty" gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
}

// AssignmentStatus is the lifecycle state of a single student's assignment.
type AssignmentStatus string

const (
	AssignmentStatusPending   AssignmentStatus = "pending"
	AssignmentStatusSubmitted AssignmentStatus = "submitted"
	AssignmentStatusCompleted AssignmentStatus = "completed"
	AssignmentStatusRejected  AssignmentStatus = "rejected"
)

// Assignment is one student's obligation record for a task. Unique per
// (task, student); the composite index is the authoritative race guard.
type Assignment struct {
	ID             uint             `json:"id" gorm:"primaryKey"`
	TaskID         uint             `json:"task_id" gorm:"not null;uniqueIndex:idx_assignments_task_student"`
	StudentID      uint             `json:"student_id" gorm:"not null;uniqueIndex:idx_assignments_task_student"`
	Status         AssignmentStatus `json:"status" gorm:"type:varchar(10);default:'pending'"`
	SubmissionLink *string          `json:"submission_link,omitempty"`
	SubmittedAt    *time.Time       `json:"submitted_at,omitempty"`
	Score          *int             `json:"score,omitempty"`
	TeacherNote    *string          `json:"teacher_note,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`

	Task    Task `json:"task,omitempty" gorm:"foreignKey:TaskID"`
	Student User `json:"student,omitempty" gorm:"foreignKey:StudentID"`
}
