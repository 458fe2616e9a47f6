package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/taskhub/taskhub/access"
	"github.com/taskhub/taskhub/database"
)

// TaskHandler handles task endpoints
type TaskHandler struct {
	taskService *database.TaskService
}

func NewTaskHandler(taskService *database.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// List returns the caller's top-level tasks
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respondMsg(w, http.StatusUnauthorized, "User not found")
		return
	}

	tasks, err := h.taskService.ListTopLevel(uid)
	if err != nil {
		respondError(w, err, "Task not found")
		return
	}

	respondJSON(w, http.StatusOK, tasks)
}

// Get returns a single task to its owner
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respondMsg(w, http.StatusUnauthorized, "User not found")
		return
	}

	task, err := h.loadOwnedTask(w, uid, mux.Vars(r)["id"])
	if err != nil {
		return
	}

	respondJSON(w, http.StatusOK, task)
}

// Subtasks returns the direct children of a task owned by the caller
func (h *TaskHandler) Subtasks(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respondMsg(w, http.StatusUnauthorized, "User not found")
		return
	}

	parent, err := h.taskService.GetByID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err, "Parent task not found")
		return
	}

	if err := access.CanAccessTask(uid, parent); err != nil {
		respondMsg(w, http.StatusForbidden, "Not authorized to view subtasks for this parent")
		return
	}

	subtasks, err := h.taskService.ListSubtasks(uid, parent.ID)
	if err != nil {
		respondError(w, err, "Task not found")
		return
	}

	respondJSON(w, http.StatusOK, subtasks)
}

// Create makes a new task for the caller
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respondMsg(w, http.StatusUnauthorized, "User not found")
		return
	}

	var req struct {
		Title       string     `json:"title"`
		Description string     `json:"description"`
		DueDate     *time.Time `json:"dueDate"`
		Priority    string     `json:"priority"`
		Category    string     `json:"category"`
		Assignee    string     `json:"assignee"`
		Status      string     `json:"status"`
		ProjectID   *string    `json:"projectId"`
		ParentTask  *string    `json:"parentTask"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMsg(w, http.StatusBadRequest, "Invalid request format")
		return
	}
	if req.Title == "" {
		respondMsg(w, http.StatusBadRequest, "Title is required")
		return
	}
	if req.Priority != "" && !database.ValidPriority(req.Priority) {
		respondMsg(w, http.StatusBadRequest, "Invalid task priority")
		return
	}
	if req.Status != "" && !database.ValidTaskStatus(req.Status) {
		respondMsg(w, http.StatusBadRequest, "Invalid task status")
		return
	}

	// A parent reference must point at an existing task owned by the
	// caller.
	if req.ParentTask != nil && *req.ParentTask != "" {
		if err := h.validateParent(uid, *req.ParentTask); err != nil {
			respondError(w, err, "Task not found")
			return
		}
	} else {
		req.ParentTask = nil
	}

	task, err := h.taskService.Create(&database.Task{
		User:        uid,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Priority:    req.Priority,
		Category:    req.Category,
		Assignee:    req.Assignee,
		Status:      req.Status,
		ParentTask:  req.ParentTask,
		Project:     req.ProjectID,
	})
	if err != nil {
		respondError(w, err, "Task not found")
		return
	}

	respondJSON(w, http.StatusOK, task)
}

// Update modifies task fields; owner only. Only supplied fields change;
// an empty parentTask string detaches the task from its parent.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respondMsg(w, http.StatusUnauthorized, "User not found")
		return
	}

	task, err := h.loadOwnedTask(w, uid, mux.Vars(r)["id"])
	if err != nil {
		return
	}

	var req struct {
		Title       *string    `json:"title"`
		Description *string    `json:"description"`
		DueDate     *time.Time `json:"dueDate"`
		Priority    *string    `json:"priority"`
		Category    *string    `json:"category"`
		Assignee    *string    `json:"assignee"`
		Status      *string    `json:"status"`
		Completed   *bool      `json:"completed"`
		ProjectID   *string    `json:"projectId"`
		ParentTask  *string    `json:"parentTask"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMsg(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	if req.Priority != nil {
		if !database.ValidPriority(*req.Priority) {
			respondMsg(w, http.StatusBadRequest, "Invalid task priority")
			return
		}
		task.Priority = *req.Priority
	}
	if req.Category != nil {
		task.Category = *req.Category
	}
	if req.Assignee != nil {
		task.Assignee = *req.Assignee
	}
	if req.Status != nil {
		if !database.ValidTaskStatus(*req.Status) {
			respondMsg(w, http.StatusBadRequest, "Invalid task status")
			return
		}
		task.Status = *req.Status
	}
	if req.Completed != nil {
		// Explicitly settable to false
		task.Completed = *req.Completed
	}
	if req.ProjectID != nil {
		task.Project = req.ProjectID
	}
	if req.ParentTask != nil {
		if *req.ParentTask == "" {
			task.ParentTask = nil
		} else {
			if err := h.validateParent(uid, *req.ParentTask); err != nil {
				respondError(w, err, "Task not found")
				return
			}
			task.ParentTask = req.ParentTask
		}
	}

	if err := h.taskService.Update(task); err != nil {
		respondError(w, err, "Task not found")
		return
	}

	respondJSON(w, http.StatusOK, task)
}

// Delete removes a task and its direct subtasks; owner only
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respondMsg(w, http.StatusUnauthorized, "User not found")
		return
	}

	task, err := h.loadOwnedTask(w, uid, mux.Vars(r)["id"])
	if err != nil {
		return
	}

	if err := h.taskService.Delete(task.ID); err != nil {
		respondError(w, err, "Task not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"msg": "Task and its subtasks removed"})
}

// Complete marks a task completed; owner only
func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respondMsg(w, http.StatusUnauthorized, "User not found")
		return
	}

	task, err := h.loadOwnedTask(w, uid, mux.Vars(r)["id"])
	if err != nil {
		return
	}

	if err := h.taskService.Complete(task.ID); err != nil {
		respondError(w, err, "Task not found")
		return
	}

	task.Completed = true
	respondJSON(w, http.StatusOK, task)
}

// Search returns the caller's tasks matching the query-string filters
func (h *TaskHandler) Search(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respondMsg(w, http.StatusUnauthorized, "User not found")
		return
	}

	q := r.URL.Query()
	filter := database.TaskFilter{
		Keyword:  q.Get("keyword"),
		Priority: q.Get("priority"),
		Status:   q.Get("status"),
		Category: q.Get("category"),
		Project:  q.Get("projectId"),
	}

	if v := q.Get("dueDate"); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			respondMsg(w, http.StatusBadRequest, "Invalid dueDate filter")
			return
		}
		filter.DueDate = &d
	}
	if v := q.Get("completed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			respondMsg(w, http.StatusBadRequest, "Invalid completed filter")
			return
		}
		filter.Completed = &b
	}
	// The literal "null" is the sentinel for top-level tasks only
	if v := q.Get("parentTask"); v != "" {
		if v == "null" {
			filter.TopLevelOnly = true
		} else {
			filter.ParentTask = v
		}
	}

	tasks, err := h.taskService.Search(uid, filter)
	if err != nil {
		respondError(w, err, "Task not found")
		return
	}

	respondJSON(w, http.StatusOK, tasks)
}

// loadOwnedTask fetches a task and enforces the strict single-owner rule.
// On failure it writes the response and returns a non-nil error so callers
// just bail out.
func (h *TaskHandler) loadOwnedTask(w http.ResponseWriter, uid, id string) (*database.Task, error) {
	task, err := h.taskService.GetByID(id)
	if err != nil {
		respondError(w, err, "Task not found")
		return nil, err
	}

	if err := access.CanAccessTask(uid, task); err != nil {
		respondError(w, err, "Task not found")
		return nil, err
	}

	return task, nil
}

// validateParent loads a would-be parent task and applies the parent
// reference rule. A missing parent is a validation failure, not a 404.
func (h *TaskHandler) validateParent(uid, parentID string) error {
	parent, err := h.taskService.GetByID(parentID)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return err
	}
	return access.ValidateParentTask(uid, parent)
}
