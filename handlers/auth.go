package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/taskhub/taskhub/database"
	"github.com/taskhub/taskhub/services"
)

// AuthHandler handles authentication-related endpoints
type AuthHandler struct {
	authService *services.AuthService
	userService *database.UserService
}

func NewAuthHandler(authService *services.AuthService, userService *database.UserService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
	}
}

// Register creates a new account and returns a bearer token
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMsg(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	if req.Email == "" || req.Password == "" {
		respondMsg(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	// Hash password before it ever reaches the store
	hash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		respondMsg(w, http.StatusInternalServerError, "Server error")
		return
	}

	user, err := h.userService.Create(req.Name, req.Email, hash)
	if err != nil {
		if errors.Is(err, database.ErrConflict) {
			respondMsg(w, http.StatusConflict, "User already exists")
			return
		}
		respondError(w, err, "User not found")
		return
	}

	h.respondToken(w, user.ID)
}

// Login verifies credentials and returns a bearer token. Unknown email and
// wrong password produce the identical response.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMsg(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	user, err := h.userService.GetByEmail(req.Email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondMsg(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		respondError(w, err, "User not found")
		return
	}

	if !h.authService.CheckPassword(user.Password, req.Password) {
		respondMsg(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	h.respondToken(w, user.ID)
}

// ForgotPassword generates a reset token for the account. The raw token is
// delivered out-of-band; for now it goes to the server log, the store only
// ever sees its hash.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMsg(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	user, err := h.userService.GetByEmail(req.Email)
	if err != nil {
		respondError(w, err, "User with that email does not exist")
		return
	}

	raw, hash, err := h.authService.GenerateResetToken()
	if err != nil {
		log.Printf("Error generating reset token: %v", err)
		respondMsg(w, http.StatusInternalServerError, "Server error")
		return
	}

	expires := time.Now().UTC().Add(services.ResetTokenLifetime)
	if err := h.userService.SetResetToken(user.ID, hash, expires); err != nil {
		respondError(w, err, "User with that email does not exist")
		return
	}

	log.Printf("Password reset token for %s: %s", user.Email, raw)
	respondJSON(w, http.StatusOK, map[string]string{"msg": "Password reset token sent to email"})
}

// ResetPassword consumes a reset token and sets a new password
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	var req struct {
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMsg(w, http.StatusBadRequest, "Invalid request format")
		return
	}
	if req.Password == "" {
		respondMsg(w, http.StatusBadRequest, "Password is required")
		return
	}

	user, err := h.userService.GetByResetToken(services.HashResetToken(token), time.Now().UTC())
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondMsg(w, http.StatusUnauthorized, "Password reset token is invalid or has expired")
			return
		}
		respondError(w, err, "User not found")
		return
	}

	hash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		respondMsg(w, http.StatusInternalServerError, "Server error")
		return
	}

	// Clears the stored token hash and expiry along with the update
	if err := h.userService.ResetPassword(user.ID, hash); err != nil {
		respondError(w, err, "User not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"msg": "Password reset successful"})
}

func (h *AuthHandler) respondToken(w http.ResponseWriter, userID string) {
	token, err := h.authService.CreateJWT(userID)
	if err != nil {
		log.Printf("Error creating JWT: %v", err)
		respondMsg(w, http.StatusInternalServerError, "Server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}
