// Package access holds the authorization rules for projects and tasks.
// Every function takes already-loaded records and returns nil to allow the
// operation or a DecisionError carrying the reason for the denial. The
// rules are deliberately asymmetric: project reads consult both the owner
// field and the membership table, project writes consult only the owner
// field, member management consults only the membership table, and task
// access never consults memberships at all.
package access

import (
	"errors"

	"github.com/taskhub/taskhub/database"
)

// Denial kinds. Handlers match these with errors.Is to pick a status code.
var (
	// ErrForbidden means the actor is authenticated but lacks the
	// required ownership or role.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation means the request references an entity it may not,
	// such as a parent task owned by someone else.
	ErrValidation = errors.New("validation failed")
)

// DecisionError is a denial with a human-readable reason.
type DecisionError struct {
	kind   error
	reason string
}

func (e *DecisionError) Error() string { return e.reason }
func (e *DecisionError) Unwrap() error { return e.kind }

func deny(kind error, reason string) error {
	return &DecisionError{kind: kind, reason: reason}
}

// CanViewProject allows the project's owning user and anyone holding a
// membership row for it, whatever the role.
func CanViewProject(userID string, project *database.Project, membership *database.ProjectMember) error {
	if project.User == userID {
		return nil
	}
	if membership != nil {
		return nil
	}
	return deny(ErrForbidden, "User not authorized to view this project")
}

// CanEditProject allows only the project's owning user. Membership roles,
// including admin, grant no write access. This consults projects.user_id,
// not the membership table.
func CanEditProject(userID string, project *database.Project) error {
	if project.User == userID {
		return nil
	}
	return deny(ErrForbidden, "User not authorized to modify this project")
}

// CanManageMembers allows only an actor holding a membership row with role
// owner. This consults the membership table, not projects.user_id; the two
// coincide on any project created through the normal path.
func CanManageMembers(actorMembership *database.ProjectMember) error {
	if actorMembership != nil && actorMembership.Role == database.RoleOwner {
		return nil
	}
	return deny(ErrForbidden, "Only project owners can manage members")
}

// CanRemoveMember rejects removal of an owner membership; owners only
// leave a project by deleting it.
func CanRemoveMember(target *database.ProjectMember) error {
	if target.Role == database.RoleOwner {
		return deny(ErrValidation, "Cannot remove the project owner; delete the project instead")
	}
	return nil
}

// CanAccessTask allows only the task's owning user. Tasks are never shared
// through project membership, even when linked to a shared project.
func CanAccessTask(userID string, task *database.Task) error {
	if task.User == userID {
		return nil
	}
	return deny(ErrForbidden, "User not authorized")
}

// ValidateParentTask checks a parent-task reference on create or update:
// the referenced task must exist (pass nil if the lookup missed) and be
// owned by the actor.
func ValidateParentTask(userID string, parent *database.Task) error {
	if parent == nil || parent.User != userID {
		return deny(ErrValidation, "Invalid or unauthorized parent task")
	}
	return nil
}

// ValidateRole checks a requested membership role. The empty string is
// allowed and means the caller wants the default.
func ValidateRole(role string) error {
	if role == "" || database.ValidRole(role) {
		return nil
	}
	return deny(ErrValidation, "Invalid member role")
}
