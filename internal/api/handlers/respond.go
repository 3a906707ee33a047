package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/movie-vault-be/internal/apperr"
)

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}

// respondError translates a service error into its HTTP status and a
// short client-facing message. Anything outside the error taxonomy is
// logged and collapsed to a generic 500 so internal detail never leaks.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrValidation),
		errors.Is(err, apperr.ErrConflict),
		errors.Is(err, apperr.ErrUnsupportedMedia),
		errors.Is(err, apperr.ErrPayloadTooLarge):
		respondMessage(w, http.StatusBadRequest, apperr.Message(err, "Invalid request"))
	case errors.Is(err, apperr.ErrUnauthenticated):
		respondMessage(w, http.StatusUnauthorized, apperr.Message(err, "Unauthorized"))
	case errors.Is(err, apperr.ErrForbidden):
		respondMessage(w, http.StatusForbidden, apperr.Message(err, "Forbidden"))
	case errors.Is(err, apperr.ErrNotFound):
		respondMessage(w, http.StatusNotFound, apperr.Message(err, "Not found"))
	default:
		log.Error().Err(err).Msg("Unexpected error handling request")
		respondMessage(w, http.StatusInternalServerError, "Server error")
	}
}

// baseURL reconstructs the scheme and host the client used, honoring a
// reverse proxy's X-Forwarded-Proto.
func baseURL(r *http.Request) string {
	scheme := "http"
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	} else if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
