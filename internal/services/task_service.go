package services

import (
	"log"
	"mime/multipart"
	"slices"
	"sort"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/putraaxzy/be-artemis/internal/apperr"
	"github.com/putraaxzy/be-artemis/internal/models"
	"github.com/putraaxzy/be-artemis/internal/repository"
	"github.com/putraaxzy/be-artemis/pkg/storage"
)

// CreateTaskRequest carries everything needed to create and fan out a task.
type CreateTaskRequest struct {
	Title          string                `validate:"required,max=255"`
	Description    string                `validate:"max=5000"`
	TargetMode     models.TargetMode     `validate:"required,oneof=students class"`
	Target         models.TargetSpec     `validate:"-"`
	SubmissionMode models.SubmissionMode `validate:"required,oneof=link direct"`
	StartAt        *time.Time            `validate:"-"`
	Deadline       *time.Time            `validate:"-"`
	ShowScore      bool                  `validate:"-"`
	Attachment     *multipart.FileHeader `validate:"-"`
}

// UpdateTaskRequest carries a partial task update. Nil fields are unchanged.
type UpdateTaskRequest struct {
	Title            *string
	Description      *string
	TargetMode       *models.TargetMode
	Target           *models.TargetSpec
	SubmissionMode   *models.SubmissionMode
	StartAt          *time.Time
	Deadline         *time.Time
	ShowScore        *bool
	Attachment       *multipart.FileHeader
	RemoveAttachment bool
}

// TaskStats aggregates assignment counts for the teacher view.
type TaskStats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Submitted int `json:"submitted"`
	Completed int `json:"completed"`
	Rejected  int `json:"rejected"`
}

// TaskSummary is one row of the task list. Teacher rows carry Stats, student
// rows carry their own assignment status instead.
type TaskSummary struct {
	ID             uint                    `json:"id"`
	Title          string                  `json:"title"`
	TargetMode     models.TargetMode       `json:"target_mode"`
	SubmissionMode models.SubmissionMode   `json:"submission_mode"`
	StartAt        *time.Time              `json:"start_at,omitempty"`
	Deadline       *time.Time              `json:"deadline,omitempty"`
	ShowScore      bool                    `json:"show_score"`
	CreatedAt      time.Time               `json:"created_at"`
	Stats          *TaskStats              `json:"stats,omitempty"`
	TeacherName    string                  `json:"teacher_name,omitempty"`
	Status         models.AssignmentStatus `json:"status,omitempty"`
	Score          *int                    `json:"score,omitempty"`
	TeacherNote    *string                 `json:"teacher_note,omitempty"`
}

// TaskDetail is the full task view. Teachers see every assignment with the
// student preloaded; students see only their own.
type TaskDetail struct {
	*models.Task
	Stats       *TaskStats           `json:"stats,omitempty"`
	Submissions []*models.Assignment `json:"submissions,omitempty"`
	Mine        *models.Assignment   `json:"mine,omitempty"`
}

// ClassGroup is one class+major roster bucket.
type ClassGroup struct {
	Class        string `json:"class"`
	Major        string `json:"major"`
	StudentCount int    `json:"student_count"`
}

// TaskService is the task lifecycle: creation with fan-out, partial update
// with assignment-set recomputation, deletion and the read views.
type TaskService interface {
	CreateTask(teacherID uint, req *CreateTaskRequest) (*models.Task, int, error)
	UpdateTask(teacherID, taskID uint, req *UpdateTaskRequest) (*models.Task, error)
	DeleteTask(teacherID, taskID uint) error
	ListTasks(user *models.User) ([]*TaskSummary, error)
	TaskDetail(user *models.User, taskID uint) (*TaskDetail, error)
	PendingAssignments(teacherID, taskID uint) ([]*models.Assignment, error)
	ListStudents() ([]models.User, error)
	ListClassGroups() ([]*ClassGroup, error)
	StudentsByClass(class, major string) ([]models.User, error)
	ResolveTargetStudents(mode models.TargetMode, spec models.TargetSpec) ([]uint, error)
}

type taskService struct {
	taskRepo       repository.TaskRepository
	assignmentRepo repository.AssignmentRepository
	userRepo       repository.UserRepository
	storage        *storage.Storage
	push           PushService
}

func NewTaskService(
	taskRepo repository.TaskRepository,
	assignmentRepo repository.AssignmentRepository,
	userRepo repository.UserRepository,
	store *storage.Storage,
	push PushService,
) TaskService {
	return &taskService{
		taskRepo:       taskRepo,
		assignmentRepo: assignmentRepo,
		userRepo:       userRepo,
		storage:        store,
		push:           push,
	}
}

// ResolveTargetStudents expands a target specification into the sorted,
// deduplicated set of student ids it addresses. Class matching happens on
// trimmed, uppercased values only.
func (s *taskService) ResolveTargetStudents(mode models.TargetMode, spec models.TargetSpec) ([]uint, error) {
	switch mode {
	case models.TargetModeStudents:
		if len(spec.StudentIDs) == 0 {
			return nil, apperr.Validation("student_ids must not be empty")
		}
		ids := dedupeIDs(spec.StudentIDs)
		count, err := s.userRepo.CountStudentsByIDs(ids)
		if err != nil {
			return nil, errors.Wrap(err, "verify student ids")
		}
		if int(count) != len(ids) {
			return nil, apperr.Validation("some student ids are invalid")
		}
		return ids, nil

	case models.TargetModeClass:
		if len(spec.Classes) == 0 {
			return nil, apperr.Validation("classes must not be empty")
		}
		set := make(map[uint]struct{})
		for _, ct := range spec.Classes {
			classNorm := models.NormalizeKey(ct.Class)
			majorNorm := models.NormalizeKey(ct.Major)
			if classNorm == "" || majorNorm == "" {
				return nil, apperr.Validation("class targets require both class and major")
			}
			students, err := s.userRepo.FindStudentsByClassMajor(classNorm, majorNorm)
			if err != nil {
				return nil, errors.Wrap(err, "resolve class target")
			}
			for _, student := range students {
				set[student.ID] = struct{}{}
			}
		}
		if len(set) == 0 {
			return nil, apperr.NoMatchingStudents("no students match the selected classes")
		}
		ids := make([]uint, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		return ids, nil

	default:
		return nil, apperr.Validation("target_mode must be students or class")
	}
}

func (s *taskService) CreateTask(teacherID uint, req *CreateTaskRequest) (*models.Task, int, error) {
	if err := validate.Struct(req); err != nil {
		return nil, 0, apperr.Validation(validationMessage(err))
	}
	if req.StartAt != nil && req.Deadline != nil && req.Deadline.Before(*req.StartAt) {
		return nil, 0, apperr.Validation("deadline must not be before start_at")
	}

	studentIDs, err := s.ResolveTargetStudents(req.TargetMode, req.Target)
	if err != nil {
		return nil, 0, err
	}

	task := &models.Task{
		TeacherID:      teacherID,
		Title:          req.Title,
		Description:    req.Description,
		TargetMode:     req.TargetMode,
		TargetSpec:     req.Target,
		SubmissionMode: req.SubmissionMode,
		StartAt:        req.StartAt,
		Deadline:       req.Deadline,
		ShowScore:      req.ShowScore,
	}

	if req.Attachment != nil {
		path, err := s.storage.SaveAttachment(req.Attachment)
		if err != nil {
			return nil, 0, apperr.Validation(err.Error())
		}
		task.AttachmentPath = path
	}

	if err := s.taskRepo.Create(task, studentIDs); err != nil {
		s.storage.Delete(task.AttachmentPath)
		return nil, 0, errors.Wrap(err, "create task")
	}

	if created, err := s.taskRepo.GetByID(task.ID); err == nil {
		task = created
	}
	s.push.NotifyTaskCreated(task, studentIDs)

	return task, len(studentIDs), nil
}

func (s *taskService) UpdateTask(teacherID, taskID uint, req *UpdateTaskRequest) (*models.Task, error) {
	task, err := s.getOwnedTask(teacherID, taskID)
	if err != nil {
		return nil, err
	}

	mode := task.TargetMode
	spec := task.TargetSpec
	targetTouched := false
	if req.TargetMode != nil {
		mode = *req.TargetMode
		targetTouched = true
	}
	if req.Target != nil {
		spec = *req.Target
		targetTouched = true
	}

	var newStudentIDs []uint
	resetAssignments := false
	if targetTouched {
		newStudentIDs, err = s.ResolveTargetStudents(mode, spec)
		if err != nil {
			return nil, err
		}
		currentIDs, err := s.assignmentRepo.StudentIDsByTask(task.ID)
		if err != nil {
			return nil, errors.Wrap(err, "load current assignment set")
		}
		sort.Slice(currentIDs, func(i, j int) bool { return currentIDs[i] < currentIDs[j] })
		// A retargeting that resolves to the same students keeps every
		// assignment and its status untouched.
		resetAssignments = !slices.Equal(currentIDs, newStudentIDs)
	}

	if req.Title != nil {
		if *req.Title == "" || len(*req.Title) > 255 {
			return nil, apperr.Validation("title must be 1-255 characters")
		}
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.SubmissionMode != nil {
		if *req.SubmissionMode != models.SubmissionModeLink && *req.SubmissionMode != models.SubmissionModeDirect {
			return nil, apperr.Validation("submission_mode must be link or direct")
		}
		task.SubmissionMode = *req.SubmissionMode
	}
	if req.StartAt != nil {
		task.StartAt = req.StartAt
	}
	if req.Deadline != nil {
		task.Deadline = req.Deadline
	}
	if task.StartAt != nil && task.Deadline != nil && task.Deadline.Before(*task.StartAt) {
		return nil, apperr.Validation("deadline must not be before start_at")
	}
	if req.ShowScore != nil {
		task.ShowScore = *req.ShowScore
	}
	task.TargetMode = mode
	task.TargetSpec = spec

	oldAttachment := ""
	if req.RemoveAttachment && task.AttachmentPath != "" {
		oldAttachment = task.AttachmentPath
		task.AttachmentPath = ""
	}
	if req.Attachment != nil {
		path, err := s.storage.SaveAttachment(req.Attachment)
		if err != nil {
			return nil, apperr.Validation(err.Error())
		}
		if task.AttachmentPath != "" {
			oldAttachment = task.AttachmentPath
		}
		task.AttachmentPath = path
	}

	if err := s.taskRepo.Update(task); err != nil {
		return nil, errors.Wrap(err, "update task")
	}
	if oldAttachment != "" {
		if err := s.storage.Delete(oldAttachment); err != nil {
			log.Printf("task: failed to delete old attachment %s: %v", oldAttachment, err)
		}
	}

	if resetAssignments {
		if err := s.assignmentRepo.ResetForTask(task.ID, newStudentIDs); err != nil {
			return nil, errors.Wrap(err, "reset assignments")
		}
	}

	return task, nil
}

func (s *taskService) DeleteTask(teacherID, taskID uint) error {
	task, err := s.getOwnedTask(teacherID, taskID)
	if err != nil {
		return err
	}

	if err := s.taskRepo.Delete(task.ID); err != nil {
		return errors.Wrap(err, "delete task")
	}

	if err := s.storage.Delete(task.AttachmentPath); err != nil {
		log.Printf("task: failed to delete attachment %s: %v", task.AttachmentPath, err)
	}
	return nil
}

func (s *taskService) ListTasks(user *models.User) ([]*TaskSummary, error) {
	if user.Role == models.RoleTeacher {
		return s.listTeacherTasks(user.ID)
	}
	return s.listStudentTasks(user.ID)
}

func (s *taskService) listTeacherTasks(teacherID uint) ([]*TaskSummary, error) {
	tasks, err := s.taskRepo.ListByTeacher(teacherID)
	if err != nil {
		return nil, errors.Wrap(err, "list teacher tasks")
	}

	summaries := make([]*TaskSummary, 0, len(tasks))
	for _, task := range tasks {
		stats := &TaskStats{Total: len(task.Assignments)}
		for _, a := range task.Assignments {
			switch a.Status {
			case models.AssignmentStatusPending:
				stats.Pending++
			case models.AssignmentStatusSubmitted:
				stats.Submitted++
			case models.AssignmentStatusCompleted:
				stats.Completed++
			case models.AssignmentStatusRejected:
				stats.Rejected++
			}
		}
		summaries = append(summaries, &TaskSummary{
			ID:             task.ID,
			Title:          task.Title,
			TargetMode:     task.TargetMode,
			SubmissionMode: task.SubmissionMode,
			StartAt:        task.StartAt,
			Deadline:       task.Deadline,
			ShowScore:      task.ShowScore,
			CreatedAt:      task.CreatedAt,
			Stats:          stats,
		})
	}
	return summaries, nil
}

func (s *taskService) listStudentTasks(studentID uint) ([]*TaskSummary, error) {
	assignments, err := s.assignmentRepo.ListByStudent(studentID)
	if err != nil {
		return nil, errors.Wrap(err, "list student tasks")
	}

	summaries := make([]*TaskSummary, 0, len(assignments))
	for _, a := range assignments {
		summary := &TaskSummary{
			ID:             a.Task.ID,
			Title:          a.Task.Title,
			TargetMode:     a.Task.TargetMode,
			SubmissionMode: a.Task.SubmissionMode,
			StartAt:        a.Task.StartAt,
			Deadline:       a.Task.Deadline,
			ShowScore:      a.Task.ShowScore,
			CreatedAt:      a.Task.CreatedAt,
			Status:         a.Status,
		}
		if a.Task.ShowScore {
			summary.Score = a.Score
			summary.TeacherNote = a.TeacherNote
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (s *taskService) TaskDetail(user *models.User, taskID uint) (*TaskDetail, error) {
	task, err := s.taskRepo.GetByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("task not found")
		}
		return nil, errors.Wrap(err, "load task")
	}

	if user.Role == models.RoleTeacher {
		if task.TeacherID != user.ID {
			return nil, apperr.Forbidden("task belongs to another teacher")
		}
		assignments, err := s.assignmentRepo.ListByTask(task.ID)
		if err != nil {
			return nil, errors.Wrap(err, "load submissions")
		}
		stats := &TaskStats{Total: len(assignments)}
		for _, a := range assignments {
			switch a.Status {
			case models.AssignmentStatusPending:
				stats.Pending++
			case models.AssignmentStatusSubmitted:
				stats.Submitted++
			case models.AssignmentStatusCompleted:
				stats.Completed++
			case models.AssignmentStatusRejected:
				stats.Rejected++
			}
		}
		return &TaskDetail{Task: task, Stats: stats, Submissions: assignments}, nil
	}

	mine, err := s.assignmentRepo.GetByTaskAndStudent(task.ID, user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Forbidden("task is not assigned to you")
		}
		return nil, errors.Wrap(err, "load assignment")
	}
	if !task.ShowScore {
		mine.Score = nil
		mine.TeacherNote = nil
	}
	return &TaskDetail{Task: task, Mine: mine}, nil
}

func (s *taskService) PendingAssignments(teacherID, taskID uint) ([]*models.Assignment, error) {
	if _, err := s.getOwnedTask(teacherID, taskID); err != nil {
		return nil, err
	}
	assignments, err := s.assignmentRepo.ListByTaskAndStatus(taskID, models.AssignmentStatusPending)
	return assignments, errors.Wrap(err, "list pending assignments")
}

func (s *taskService) ListStudents() ([]models.User, error) {
	return s.userRepo.ListStudents()
}

func (s *taskService) ListClassGroups() ([]*ClassGroup, error) {
	students, err := s.userRepo.ListStudents()
	if err != nil {
		return nil, errors.Wrap(err, "list students")
	}

	type key struct{ class, major string }
	counts := make(map[key]int)
	order := make([]key, 0)
	for _, student := range students {
		k := key{models.NormalizeKey(student.Class), models.NormalizeKey(student.Major)}
		if k.class == "" && k.major == "" {
			continue
		}
		if _, seen := counts[k]; !seen {
			order = append(order, k)
		}
		counts[k]++
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].class != order[j].class {
			return order[i].class < order[j].class
		}
		return order[i].major < order[j].major
	})

	groups := make([]*ClassGroup, 0, len(order))
	for _, k := range order {
		groups = append(groups, &ClassGroup{
			Class:        k.class,
			Major:        k.major,
			StudentCount: counts[k],
		})
	}
	return groups, nil
}

func (s *taskService) StudentsByClass(class, major string) ([]models.User, error) {
	classNorm := models.NormalizeKey(class)
	majorNorm := models.NormalizeKey(major)
	if classNorm == "" || majorNorm == "" {
		return nil, apperr.Validation("class and major are required")
	}
	students, err := s.userRepo.FindStudentsByClassMajor(classNorm, majorNorm)
	return students, errors.Wrap(err, "list students by class")
}

func (s *taskService) getOwnedTask(teacherID, taskID uint) (*models.Task, error) {
	task, err := s.taskRepo.GetByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("task not found")
		}
		return nil, errors.Wrap(err, "load task")
	}
	if task.TeacherID != teacherID {
		return nil, apperr.Forbidden("task belongs to another teacher")
	}
	return task, nil
}

// dedupeIDs returns the sorted unique ids.
func dedupeIDs(ids []uint) []uint {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	out := make([]uint, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
