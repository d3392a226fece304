package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/putraaxzy/be-artemis/internal/models"
	"github.com/putraaxzy/be-artemis/internal/services"
)

// TaskHandler serves the task lifecycle endpoints.
type TaskHandler struct {
	taskService       services.TaskService
	submissionService services.SubmissionService
	gradingService    services.GradingService
}

func NewTaskHandler(
	taskService services.TaskService,
	submissionService services.SubmissionService,
	gradingService services.GradingService,
) *TaskHandler {
	return &TaskHandler{
		taskService:       taskService,
		submissionService: submissionService,
		gradingService:    gradingService,
	}
}

// List returns the role-aware task list.
func (h *TaskHandler) List(c *gin.Context) {
	tasks, err := h.taskService.ListTasks(currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// Create creates a task and fans it out. Multipart form data; the target
// field is a JSON document matching the target mode.
func (h *TaskHandler) Create(c *gin.Context) {
	req := &services.CreateTaskRequest{
		Title:          c.PostForm("title"),
		Description:    c.PostForm("description"),
		TargetMode:     models.TargetMode(c.PostForm("target_mode")),
		SubmissionMode: models.SubmissionMode(c.PostForm("submission_mode")),
		ShowScore:      parseFormBool(c.PostForm("show_score")),
	}

	if targetJSON := c.PostForm("target"); targetJSON != "" {
		if err := json.Unmarshal([]byte(targetJSON), &req.Target); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "target must be valid JSON"})
			return
		}
	}

	var err error
	if req.StartAt, err = parseFormTime(c.PostForm("start_at")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_at must be RFC3339"})
		return
	}
	if req.Deadline, err = parseFormTime(c.PostForm("deadline")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "deadline must be RFC3339"})
		return
	}
	if file, ferr := c.FormFile("attachment"); ferr == nil {
		req.Attachment = file
	}

	task, assigned, err := h.taskService.CreateTask(currentUser(c).ID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"task":           task,
		"assigned_count": assigned,
	})
}

// Detail returns the role-aware task view.
func (h *TaskHandler) Detail(c *gin.Context) {
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}
	detail, err := h.taskService.TaskDetail(currentUser(c), taskID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Update applies a partial task update. Form fields that are absent leave
// the stored value untouched.
func (h *TaskHandler) Update(c *gin.Context) {
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	req := &services.UpdateTaskRequest{}
	if v, ok := c.GetPostForm("title"); ok {
		req.Title = &v
	}
	if v, ok := c.GetPostForm("description"); ok {
		req.Description = &v
	}
	if v, ok := c.GetPostForm("target_mode"); ok {
		mode := models.TargetMode(v)
		req.TargetMode = &mode
	}
	if v, ok := c.GetPostForm("target"); ok {
		var spec models.TargetSpec
		if err := json.Unmarshal([]byte(v), &spec); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "target must be valid JSON"})
			return
		}
		req.Target = &spec
	}
	if v, ok := c.GetPostForm("submission_mode"); ok {
		mode := models.SubmissionMode(v)
		req.SubmissionMode = &mode
	}
	if v, ok := c.GetPostForm("start_at"); ok {
		t, err := parseFormTime(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start_at must be RFC3339"})
			return
		}
		req.StartAt = t
	}
	if v, ok := c.GetPostForm("deadline"); ok {
		t, err := parseFormTime(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "deadline must be RFC3339"})
			return
		}
		req.Deadline = t
	}
	if v, ok := c.GetPostForm("show_score"); ok {
		b := parseFormBool(v)
		req.ShowScore = &b
	}
	req.RemoveAttachment = parseFormBool(c.PostForm("remove_attachment"))
	if file, err := c.FormFile("attachment"); err == nil {
		req.Attachment = file
	}

	task, err := h.taskService.UpdateTask(currentUser(c).ID, taskID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

// Delete removes a task together with its assignments and reminder records.
func (h *TaskHandler) Delete(c *gin.Context) {
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.taskService.DeleteTask(currentUser(c).ID, taskID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "task deleted"})
}

// Submit records the student's submission for the task.
func (h *TaskHandler) Submit(c *gin.Context) {
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Link *string `json:"link"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	assignment, err := h.submissionService.Submit(currentUser(c), taskID, req.Link)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assignment": assignment})
}

// Grade records the teacher's decision on an assignment.
func (h *TaskHandler) Grade(c *gin.Context) {
	assignmentID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req services.GradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	assignment, err := h.gradingService.Grade(currentUser(c).ID, assignmentID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assignment": assignment})
}

// Pending lists assignments still pending for the teacher's task.
func (h *TaskHandler) Pending(c *gin.Context) {
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}
	assignments, err := h.taskService.PendingAssignments(currentUser(c).ID, taskID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assignments": assignments})
}

// Students lists the full student roster.
func (h *TaskHandler) Students(c *gin.Context) {
	students, err := h.taskService.ListStudents()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": students})
}

// ClassGroups lists the class+major buckets with student counts.
func (h *TaskHandler) ClassGroups(c *gin.Context) {
	groups, err := h.taskService.ListClassGroups()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"classes": groups})
}

// StudentsByClass lists students of one class+major combination.
func (h *TaskHandler) StudentsByClass(c *gin.Context) {
	students, err := h.taskService.StudentsByClass(c.Query("class"), c.Query("major"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": students})
}

// pathID parses the named path parameter as an id, responding 400 itself
// when it is not a positive integer.
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}

func parseFormTime(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseFormBool(value string) bool {
	b, _ := strconv.ParseBool(value)
	return b
}
