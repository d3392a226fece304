package services

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/putraaxzy/be-artemis/internal/apperr"
	"github.com/putraaxzy/be-artemis/internal/models"
	"github.com/putraaxzy/be-artemis/internal/repository"
)

// SubmissionService handles the student side of the assignment state machine.
type SubmissionService interface {
	// Submit moves the student's assignment to submitted. Link-mode tasks
	// require a valid URL; direct-mode tasks ignore the link entirely.
	// Rejected assignments may be submitted again; completed ones may not.
	Submit(student *models.User, taskID uint, link *string) (*models.Assignment, error)
}

type submissionService struct {
	assignmentRepo repository.AssignmentRepository
	push           PushService
}

func NewSubmissionService(assignmentRepo repository.AssignmentRepository, push PushService) SubmissionService {
	return &submissionService{assignmentRepo: assignmentRepo, push: push}
}

func (s *submissionService) Submit(student *models.User, taskID uint, link *string) (*models.Assignment, error) {
	assignment, err := s.assignmentRepo.GetByTaskAndStudent(taskID, student.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("task is not assigned to you")
		}
		return nil, errors.Wrap(err, "load assignment")
	}

	switch assignment.Status {
	case models.AssignmentStatusCompleted:
		return nil, apperr.Conflict("assignment is already graded as completed")
	case models.AssignmentStatusSubmitted:
		return nil, apperr.Conflict("assignment is already submitted")
	}

	if assignment.Task.StartAt != nil && time.Now().Before(*assignment.Task.StartAt) {
		return nil, apperr.Validation("task has not started yet")
	}

	switch assignment.Task.SubmissionMode {
	case models.SubmissionModeLink:
		if link == nil || *link == "" {
			return nil, apperr.Validation("submission link is required")
		}
		if err := validate.Var(*link, "url"); err != nil {
			return nil, apperr.Validation("submission link must be a valid URL")
		}
		assignment.SubmissionLink = link
	case models.SubmissionModeDirect:
		assignment.SubmissionLink = nil
	}

	now := time.Now()
	assignment.Status = models.AssignmentStatusSubmitted
	assignment.SubmittedAt = &now
	// A resubmission after rejection starts a fresh grading round.
	assignment.Score = nil
	assignment.TeacherNote = nil

	if err := s.assignmentRepo.Update(assignment); err != nil {
		return nil, errors.Wrap(err, "save submission")
	}

	s.push.NotifyTaskSubmitted(&assignment.Task, student)

	return assignment, nil
}
