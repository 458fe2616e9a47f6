package database

import "time"

// User is a registered account. The password is stored as a bcrypt hash;
// the reset token fields are only populated while a password reset is
// pending and are cleared once the reset completes.
type User struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Password       string     `json:"-"`
	ResetTokenHash string     `json:"-"`
	ResetExpires   *time.Time `json:"-"`
	Date           time.Time  `json:"date"`
}

// Project statuses.
const (
	ProjectNotStarted = "not started"
	ProjectInProgress = "in progress"
	ProjectCompleted  = "completed"
	ProjectOnHold     = "on hold"
	ProjectCancelled  = "cancelled"
)

// Project is owned by the user recorded in User. Ownership is also
// redundantly encoded as a membership row with role owner, inserted at
// creation time; some checks consult the field and others the row, so the
// two are kept separate on purpose.
type Project struct {
	ID          string     `json:"id"`
	User        string     `json:"user"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Deadline    *time.Time `json:"deadline"`
	Status      string     `json:"status"`
	Date        time.Time  `json:"date"`
}

// Membership roles.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
	RoleViewer = "viewer"
)

// ProjectMember links a user to a project with a role. At most one row may
// exist per (project, user) pair.
type ProjectMember struct {
	ID        string    `json:"id"`
	Project   string    `json:"project"`
	User      string    `json:"user"`
	Role      string    `json:"role"`
	DateAdded time.Time `json:"dateAdded"`

	// Filled when listing members, from a join against users.
	UserName  string `json:"userName,omitempty"`
	UserEmail string `json:"userEmail,omitempty"`
}

// Task priorities and statuses.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"

	TaskToDo       = "to do"
	TaskInProgress = "in progress"
	TaskCompleted  = "completed"
	TaskBlocked    = "blocked"
)

// Task belongs to exactly one user. ParentTask, if set, points at another
// task of the same user (one level of nesting; queries only ever look one
// level deep). Project, if set, links the task to a project; the reference
// is not validated against the projects table.
type Task struct {
	ID          string     `json:"id"`
	User        string     `json:"user"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
	Priority    string     `json:"priority"`
	Category    string     `json:"category"`
	Assignee    string     `json:"assignee"`
	Status      string     `json:"status"`
	Completed   bool       `json:"completed"`
	Date        time.Time  `json:"date"`
	ParentTask  *string    `json:"parentTask"`
	Project     *string    `json:"project"`
}

// TaskFilter holds the optional search constraints. Zero values mean "no
// constraint on that field"; all supplied constraints are ANDed together.
type TaskFilter struct {
	Keyword      string     // case-insensitive substring on title or description
	Priority     string     // exact
	Status       string     // exact
	DueDate      *time.Time // exact date match
	Category     string     // case-insensitive substring
	Project      string     // exact
	Completed    *bool
	ParentTask   string // exact parent task id
	TopLevelOnly bool   // only tasks without a parent
}

// ValidRole reports whether role is one of the membership roles.
func ValidRole(role string) bool {
	switch role {
	case RoleOwner, RoleAdmin, RoleMember, RoleViewer:
		return true
	}
	return false
}

// ValidProjectStatus reports whether status is a known project status.
func ValidProjectStatus(status string) bool {
	switch status {
	case ProjectNotStarted, ProjectInProgress, ProjectCompleted, ProjectOnHold, ProjectCancelled:
		return true
	}
	return false
}

// ValidTaskStatus reports whether status is a known task status.
func ValidTaskStatus(status string) bool {
	switch status {
	case TaskToDo, TaskInProgress, TaskCompleted, TaskBlocked:
		return true
	}
	return false
}

// ValidPriority reports whether priority is a known task priority.
func ValidPriority(priority string) bool {
	switch priority {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}
