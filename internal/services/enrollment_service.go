package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/putraaxzy/be-artemis/internal/models"
	"github.com/putraaxzy/be-artemis/internal/repository"
)

// EnrollmentService backfills assignments when a new student account matches
// existing class-targeted tasks.
type EnrollmentService interface {
	// EnrollStudent creates pending assignments for every class-targeted task
	// matching the student's class and major. It returns the number created;
	// a non-nil error joins any per-task failures without negating the count.
	// Running it again for the same student creates nothing new.
	EnrollStudent(student *models.User) (int, error)
}

type enrollmentService struct {
	taskRepo       repository.TaskRepository
	assignmentRepo repository.AssignmentRepository
}

func NewEnrollmentService(taskRepo repository.TaskRepository, assignmentRepo repository.AssignmentRepository) EnrollmentService {
	return &enrollmentService{taskRepo: taskRepo, assignmentRepo: assignmentRepo}
}

func (s *enrollmentService) EnrollStudent(student *models.User) (int, error) {
	tasks, err := s.taskRepo.ListByTargetMode(models.TargetModeClass)
	if err != nil {
		return 0, err
	}

	created := 0
	var errs []error
	for _, task := range tasks {
		if !task.TargetSpec.MatchesClassMajor(student.Class, student.Major) {
			continue
		}
		exists, err := s.assignmentRepo.ExistsByTaskAndStudent(task.ID, student.ID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if exists {
			continue
		}
		err = s.assignmentRepo.Create(&models.Assignment{
			TaskID:    task.ID,
			StudentID: student.ID,
			Status:    models.AssignmentStatusPending,
		})
		if err != nil {
			// Lost the insert race; the assignment exists either way.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				continue
			}
			errs = append(errs, err)
			continue
		}
		created++
	}

	return created, errors.Join(errs...)
}
