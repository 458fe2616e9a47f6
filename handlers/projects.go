package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/taskhub/taskhub/access"
	"github.com/taskhub/taskhub/database"
)

// ProjectHandler handles project and membership endpoints
type ProjectHandler struct {
	projectService *database.ProjectService
}

func NewProjectHandler(projectService *database.ProjectService) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
	}
}

// List returns the projects the user owns or is a member of
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respondMsg(w, http.StatusUnauthorized, "User not found")
		return
	}

	projects, err := h.projectService.ListForUser(uid)
	if err != nil {
		respondError(w, err, "Project not found")
		return
	}

	respondJSON(w, http.StatusOK, projects)
}

// Create makes a new project with the caller as owner
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respondMsg(w, http.StatusUnauthorized, "User not found")
		return
	}

	var req struct {
		Title       string     `json:"title"`
		Description string     `json:"description"`
		Deadline    *time.Time `json:"deadline"`
		Status      string     `json:"status"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMsg(w, http.StatusBadRequest, "Invalid request format")
		return
	}
	if req.Title == "" {
		respondMsg(w, http.StatusBadRequest, "Title is required")
		return
	}
	if req.Status != "" && !database.ValidProjectStatus(req.Status) {
		respondMsg(w, http.StatusBadRequest, "Invalid project status")
		return
	}

	project, err := h.projectService.Create(&database.Project{
		User:        uid,
		Title:       req.Title,
		Description: req.Description,
		Deadline:    req.Deadline,
		Status:      req.Status,
	})
	if err != nil {
		respondError(w, err, "Project not found")
		return
	}

	respondJSON(w, http.StatusOK, project)
}

// Get returns a single project to its owner or a member
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respondMsg(w, http.StatusUnauthorized, "User not found")
		return
	}

	project, err := h.projectService.GetByID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err, "Project not found")
		return
	}

	membership := h.membershipOrNil(project.ID, uid)
	if err := access.CanViewProject(uid, project, membership); err != nil {
		respondError(w, err, "Project not found")
		return
	}

	respondJSON(w, http.StatusOK, project)
}

// Update modifies project fields; owner only
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respondMsg(w, http.StatusUnauthorized, "User not found")
		return
	}

	project, err := h.projectService.GetByID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err, "Project not found")
		return
	}

	if err := access.CanEditProject(uid, project); err != nil {
		respondError(w, err, "Project not found")
		return
	}

	var req struct {
		Title       *string    `json:"title"`
		Description *string    `json:"description"`
		Deadline    *time.Time `json:"deadline"`
		Status      *string    `json:"status"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMsg(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	// Only supplied fields change
	if req.Title != nil {
		project.Title = *req.Title
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.Deadline != nil {
		project.Deadline = req.Deadline
	}
	if req.Status != nil {
		if !database.ValidProjectStatus(*req.Status) {
			respondMsg(w, http.StatusBadRequest, "Invalid project status")
			return
		}
		project.Status = *req.Status
	}

	if err := h.projectService.Update(project); err != nil {
		respondError(w, err, "Project not found")
		return
	}

	respondJSON(w, http.StatusOK, project)
}

// Delete removes a project with its tasks and memberships; owner only
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respondMsg(w, http.StatusUnauthorized, "User not found")
		return
	}

	project, err := h.projectService.GetByID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err, "Project not found")
		return
	}

	if err := access.CanEditProject(uid, project); err != nil {
		respondError(w, err, "Project not found")
		return
	}

	if err := h.projectService.Delete(project.ID); err != nil {
		respondError(w, err, "Project not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"msg": "Project, its tasks, and members removed"})
}

// ListMembers returns the membership rows of a project
func (h *ProjectHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respondMsg(w, http.StatusUnauthorized, "User not found")
		return
	}

	project, err := h.projectService.GetByID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err, "Project not found")
		return
	}

	membership := h.membershipOrNil(project.ID, uid)
	if err := access.CanViewProject(uid, project, membership); err != nil {
		respondError(w, err, "Project not found")
		return
	}

	members, err := h.projectService.ListMembers(project.ID)
	if err != nil {
		respondError(w, err, "Project not found")
		return
	}

	respondJSON(w, http.StatusOK, members)
}

// AddMember adds a user to the project; requires an owner membership row
func (h *ProjectHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respondMsg(w, http.StatusUnauthorized, "User not found")
		return
	}

	project, err := h.projectService.GetByID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err, "Project not found")
		return
	}

	if err := access.CanManageMembers(h.membershipOrNil(project.ID, uid)); err != nil {
		respondError(w, err, "Project not found")
		return
	}

	var req struct {
		UserID string `json:"userId"`
		Role   string `json:"role"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMsg(w, http.StatusBadRequest, "Invalid request format")
		return
	}
	if req.UserID == "" {
		respondMsg(w, http.StatusBadRequest, "userId is required")
		return
	}
	if err := access.ValidateRole(req.Role); err != nil {
		respondError(w, err, "Project not found")
		return
	}
	if req.Role == "" {
		req.Role = database.RoleMember
	}

	member, err := h.projectService.AddMember(project.ID, req.UserID, req.Role)
	if err != nil {
		if errors.Is(err, database.ErrConflict) {
			respondMsg(w, http.StatusConflict, "User is already a member of this project")
			return
		}
		respondError(w, err, "Project not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"msg":    "Member added to project",
		"member": member,
	})
}

// RemoveMember removes a non-owner member; requires an owner membership row
func (h *ProjectHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respondMsg(w, http.StatusUnauthorized, "User not found")
		return
	}

	project, err := h.projectService.GetByID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err, "Project not found")
		return
	}

	if err := access.CanManageMembers(h.membershipOrNil(project.ID, uid)); err != nil {
		respondError(w, err, "Project not found")
		return
	}

	var req struct {
		MemberID string `json:"memberId"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMsg(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	target, err := h.projectService.GetMembership(project.ID, req.MemberID)
	if err != nil {
		respondError(w, err, "Member not found in this project")
		return
	}

	if err := access.CanRemoveMember(target); err != nil {
		respondError(w, err, "Member not found in this project")
		return
	}

	if err := h.projectService.RemoveMember(project.ID, req.MemberID); err != nil {
		respondError(w, err, "Member not found in this project")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"msg": "Member removed from project"})
}

// membershipOrNil loads the caller's membership row, treating "none" as a
// nil membership rather than an error.
func (h *ProjectHandler) membershipOrNil(projectID, uid string) *database.ProjectMember {
	m, err := h.projectService.GetMembership(projectID, uid)
	if err != nil {
		return nil
	}
	return m
}
