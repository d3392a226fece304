package services

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/putraaxzy/be-artemis/internal/apperr"
	"github.com/putraaxzy/be-artemis/internal/models"
	"github.com/putraaxzy/be-artemis/internal/repository"
)

// GradeRequest is one grading decision. Omitted score and note clear any
// previously stored values.
type GradeRequest struct {
	Status models.AssignmentStatus `json:"status" validate:"required,oneof=completed rejected"`
	Score  *int                    `json:"score" validate:"omitempty,min=0,max=100"`
	Note   *string                 `json:"note" validate:"omitempty,max=1000"`
}

// GradingService handles the teacher side of the assignment state machine.
type GradingService interface {
	// Grade records a decision on an assignment. Repeating the same decision
	// is idempotent and overwrites score and note; reversing a completed
	// decision is rejected.
	Grade(teacherID, assignmentID uint, req *GradeRequest) (*models.Assignment, error)
}

type gradingService struct {
	assignmentRepo repository.AssignmentRepository
}

func NewGradingService(assignmentRepo repository.AssignmentRepository) GradingService {
	return &gradingService{assignmentRepo: assignmentRepo}
}

func (s *gradingService) Grade(teacherID, assignmentID uint, req *GradeRequest) (*models.Assignment, error) {
	if err := validate.Struct(req); err != nil {
		return nil, apperr.Validation(validationMessage(err))
	}

	assignment, err := s.assignmentRepo.GetByID(assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("assignment not found")
		}
		return nil, errors.Wrap(err, "load assignment")
	}
	if assignment.Task.TeacherID != teacherID {
		return nil, apperr.Forbidden("assignment belongs to another teacher's task")
	}

	// completed is terminal: only the identical decision may be repeated.
	if assignment.Status == models.AssignmentStatusCompleted && req.Status != models.AssignmentStatusCompleted {
		return nil, apperr.Conflict("assignment is already completed")
	}

	assignment.Status = req.Status
	assignment.Score = req.Score
	assignment.TeacherNote = req.Note

	if err := s.assignmentRepo.Update(assignment); err != nil {
		return nil, errors.Wrap(err, "save grade")
	}
	return assignment, nil
}
