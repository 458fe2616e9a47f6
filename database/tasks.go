package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskService handles database operations for tasks.
type TaskService struct {
	db *sql.DB
}

func NewTaskService(db *sql.DB) *TaskService {
	return &TaskService{db: db}
}

const taskColumns = "id, user_id, title, description, due_date, priority, category, assignee, status, completed, created_at, parent_task, project_id"

// Create inserts a new task. The caller fills every field except id and
// creation date; enum defaults are applied if empty.
func (s *TaskService) Create(task *Task) (*Task, error) {
	task.ID = uuid.NewString()
	task.Date = time.Now().UTC()
	if task.Priority == "" {
		task.Priority = PriorityMedium
	}
	if task.Status == "" {
		task.Status = TaskToDo
	}

	_, err := s.db.Exec(
		"INSERT INTO tasks ("+taskColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		task.ID, task.User, task.Title, task.Description, task.DueDate, task.Priority,
		task.Category, task.Assignee, task.Status, task.Completed, task.Date,
		task.ParentTask, task.Project,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert task: %w", err)
	}
	return task, nil
}

// GetByID returns a single task. Returns ErrNotFound if absent.
func (s *TaskService) GetByID(id string) (*Task, error) {
	row := s.db.QueryRow("SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	return scanTask(row)
}

// ListTopLevel returns the user's tasks without a parent, newest first.
func (s *TaskService) ListTopLevel(userID string) ([]Task, error) {
	return s.list(
		"SELECT "+taskColumns+" FROM tasks WHERE user_id = ? AND parent_task IS NULL ORDER BY created_at DESC",
		userID,
	)
}

// ListSubtasks returns the direct children of a parent task, newest first.
func (s *TaskService) ListSubtasks(userID, parentID string) ([]Task, error) {
	return s.list(
		"SELECT "+taskColumns+" FROM tasks WHERE user_id = ? AND parent_task = ? ORDER BY created_at DESC",
		userID, parentID,
	)
}

// Update writes the mutable task fields back to the store.
func (s *TaskService) Update(task *Task) error {
	res, err := s.db.Exec(
		`UPDATE tasks SET title = ?, description = ?, due_date = ?, priority = ?, category = ?,
		 assignee = ?, status = ?, completed = ?, parent_task = ?, project_id = ? WHERE id = ?`,
		task.Title, task.Description, task.DueDate, task.Priority, task.Category,
		task.Assignee, task.Status, task.Completed, task.ParentTask, task.Project, task.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return requireRow(res)
}

// Complete marks a task completed without touching its other fields.
func (s *TaskService) Complete(id string) error {
	res, err := s.db.Exec("UPDATE tasks SET completed = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to complete task: %w", err)
	}
	return requireRow(res)
}

// Delete removes the task and its direct subtasks in one transaction.
// Only one level is removed: subtasks of subtasks stay.
func (s *TaskService) Delete(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM tasks WHERE parent_task = ?", id); err != nil {
		return fmt.Errorf("failed to delete subtasks: %w", err)
	}
	res, err := tx.Exec("DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if err := requireRow(res); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Search returns the user's tasks matching every supplied filter, newest
// first. The filter struct is translated into a single WHERE clause here;
// absent fields add no constraint.
func (s *TaskService) Search(userID string, filter TaskFilter) ([]Task, error) {
	query := "SELECT " + taskColumns + " FROM tasks WHERE user_id = ?"
	args := []any{userID}

	if filter.Keyword != "" {
		kw := "%" + strings.ToLower(filter.Keyword) + "%"
		query += " AND (LOWER(title) LIKE ? OR LOWER(description) LIKE ?)"
		args = append(args, kw, kw)
	}
	if filter.Priority != "" {
		query += " AND priority = ?"
		args = append(args, filter.Priority)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.DueDate != nil {
		query += " AND date(due_date) = date(?)"
		args = append(args, *filter.DueDate)
	}
	if filter.Category != "" {
		query += " AND LOWER(category) LIKE ?"
		args = append(args, "%"+strings.ToLower(filter.Category)+"%")
	}
	if filter.Project != "" {
		query += " AND project_id = ?"
		args = append(args, filter.Project)
	}
	if filter.Completed != nil {
		query += " AND completed = ?"
		args = append(args, *filter.Completed)
	}
	if filter.TopLevelOnly {
		query += " AND parent_task IS NULL"
	} else if filter.ParentTask != "" {
		query += " AND parent_task = ?"
		args = append(args, filter.ParentTask)
	}

	query += " ORDER BY created_at DESC"
	return s.list(query, args...)
}

func (s *TaskService) list(query string, args ...any) ([]Task, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func scanTask(row rowScanner) (*Task, error) {
	var (
		t       Task
		dueDate sql.NullTime
		parent  sql.NullString
		project sql.NullString
	)
	err := row.Scan(
		&t.ID, &t.User, &t.Title, &t.Description, &dueDate, &t.Priority, &t.Category,
		&t.Assignee, &t.Status, &t.Completed, &t.Date, &parent, &project,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan task: %w", err)
	}
	if dueDate.Valid {
		d := dueDate.Time
		t.DueDate = &d
	}
	if parent.Valid {
		p := parent.String
		t.ParentTask = &p
	}
	if project.Valid {
		p := project.String
		t.Project = &p
	}
	return &t, nil
}
