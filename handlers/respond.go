package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/taskhub/taskhub/access"
	"github.com/taskhub/taskhub/database"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// respondMsg writes the {msg} error envelope used across the API.
func respondMsg(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"msg": msg})
}

// respondError maps the error taxonomy onto HTTP statuses. notFoundMsg is
// used for ErrNotFound so each handler can keep its entity-specific
// message; unexpected errors are logged and surfaced generically.
func respondError(w http.ResponseWriter, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		respondMsg(w, http.StatusNotFound, notFoundMsg)
	case errors.Is(err, access.ErrForbidden):
		respondMsg(w, http.StatusForbidden, err.Error())
	case errors.Is(err, access.ErrValidation):
		respondMsg(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("Internal error: %v", err)
		respondMsg(w, http.StatusInternalServerError, "Server error")
	}
}
