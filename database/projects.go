package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ProjectService handles database operations for projects and their
// membership rows.
type ProjectService struct {
	db *sql.DB
}

func NewProjectService(db *sql.DB) *ProjectService {
	return &ProjectService{db: db}
}

// Create inserts the project and the creator's owner membership row in one
// transaction. The caller sets User, Title, Description, Deadline and
// Status; id and creation date are assigned here.
func (s *ProjectService) Create(project *Project) (*Project, error) {
	project.ID = uuid.NewString()
	project.Date = time.Now().UTC()
	if project.Status == "" {
		project.Status = ProjectNotStarted
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		"INSERT INTO projects (id, user_id, title, description, deadline, status, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		project.ID, project.User, project.Title, project.Description, project.Deadline, project.Status, project.Date,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert project: %w", err)
	}

	// The creator is always recorded as an owner member as well, even
	// though projects.user_id already says so.
	_, err = tx.Exec(
		"INSERT INTO project_members (id, project_id, user_id, role, date_added) VALUES (?, ?, ?, ?, ?)",
		uuid.NewString(), project.ID, project.User, RoleOwner, project.Date,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert owner membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return project, nil
}

// GetByID returns a single project. Returns ErrNotFound if absent.
func (s *ProjectService) GetByID(id string) (*Project, error) {
	row := s.db.QueryRow(
		"SELECT id, user_id, title, description, deadline, status, created_at FROM projects WHERE id = ?", id,
	)
	return scanProject(row)
}

// ListForUser returns the projects the user owns plus the ones they hold a
// membership row for, de-duplicated, newest first.
func (s *ProjectService) ListForUser(userID string) ([]Project, error) {
	rows, err := s.db.Query(`
		SELECT DISTINCT p.id, p.user_id, p.title, p.description, p.deadline, p.status, p.created_at
		FROM projects p
		LEFT JOIN project_members m ON m.project_id = p.id
		WHERE p.user_id = ? OR m.user_id = ?
		ORDER BY p.created_at DESC`,
		userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	projects := []Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// Update writes the mutable project fields back to the store.
func (s *ProjectService) Update(project *Project) error {
	res, err := s.db.Exec(
		"UPDATE projects SET title = ?, description = ?, deadline = ?, status = ? WHERE id = ?",
		project.Title, project.Description, project.Deadline, project.Status, project.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	return requireRow(res)
}

// Delete removes the project, every task linked to it through its
// project_id, and every membership row, in one transaction. Tasks are
// matched by project_id only; subtasks of a project task that don't carry
// the project_id themselves are left in place.
func (s *ProjectService) Delete(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM tasks WHERE project_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete project tasks: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM project_members WHERE project_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete project members: %w", err)
	}
	res, err := tx.Exec("DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if err := requireRow(res); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetMembership returns the membership row for (project, user), or
// ErrNotFound.
func (s *ProjectService) GetMembership(projectID, userID string) (*ProjectMember, error) {
	var m ProjectMember
	err := s.db.QueryRow(
		"SELECT id, project_id, user_id, role, date_added FROM project_members WHERE project_id = ? AND user_id = ?",
		projectID, userID,
	).Scan(&m.ID, &m.Project, &m.User, &m.Role, &m.DateAdded)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query membership: %w", err)
	}
	return &m, nil
}

// AddMember inserts a membership row. Returns ErrConflict if the user
// already has one for the project.
func (s *ProjectService) AddMember(projectID, userID, role string) (*ProjectMember, error) {
	if _, err := s.GetMembership(projectID, userID); err == nil {
		return nil, fmt.Errorf("user is already a member: %w", ErrConflict)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	m := &ProjectMember{
		ID:        uuid.NewString(),
		Project:   projectID,
		User:      userID,
		Role:      role,
		DateAdded: time.Now().UTC(),
	}

	_, err := s.db.Exec(
		"INSERT INTO project_members (id, project_id, user_id, role, date_added) VALUES (?, ?, ?, ?, ?)",
		m.ID, m.Project, m.User, m.Role, m.DateAdded,
	)
	if err != nil {
		// The unique index catches the race between check and insert.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, fmt.Errorf("user is already a member: %w", ErrConflict)
		}
		return nil, fmt.Errorf("failed to insert membership: %w", err)
	}
	return m, nil
}

// RemoveMember deletes the membership row for (project, user).
func (s *ProjectService) RemoveMember(projectID, userID string) error {
	res, err := s.db.Exec(
		"DELETE FROM project_members WHERE project_id = ? AND user_id = ?", projectID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete membership: %w", err)
	}
	return requireRow(res)
}

// ListMembers returns the membership rows of a project with the member
// name and email joined in.
func (s *ProjectService) ListMembers(projectID string) ([]ProjectMember, error) {
	rows, err := s.db.Query(`
		SELECT m.id, m.project_id, m.user_id, m.role, m.date_added, u.name, u.email
		FROM project_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.project_id = ?
		ORDER BY m.date_added`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	members := []ProjectMember{}
	for rows.Next() {
		var m ProjectMember
		if err := rows.Scan(&m.ID, &m.Project, &m.User, &m.Role, &m.DateAdded, &m.UserName, &m.UserEmail); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*Project, error) {
	var (
		p        Project
		deadline sql.NullTime
	)
	err := row.Scan(&p.ID, &p.User, &p.Title, &p.Description, &deadline, &p.Status, &p.Date)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan project: %w", err)
	}
	if deadline.Valid {
		t := deadline.Time
		p.Deadline = &t
	}
	return &p, nil
}
