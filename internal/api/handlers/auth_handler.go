package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/movie-vault-be/internal/auth"
	"github.com/isdelr/movie-vault-be/internal/services"
)

// AuthHandler handles signup, signin and token verification.
type AuthHandler struct {
	users  services.UserServiceProvider
	tokens *auth.TokenService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(users services.UserServiceProvider, tokens *auth.TokenService) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens}
}

// SignupPayload defines the structure for registration requests.
type SignupPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SigninPayload defines the structure for login requests.
type SigninPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup handles new user registration and hands back a session token.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var payload SignupPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.users.Register(payload.Username, payload.Email, payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("email", payload.Email).Msg("Failed to register user")
		respondError(w, err)
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to issue token")
		respondMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// Signin handles user authentication and token issuance.
func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var payload SigninPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.users.Authenticate(payload.Email, payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("email", payload.Email).Msg("Failed authentication attempt")
		respondError(w, err)
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to issue token")
		respondMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// VerifyToken reports whether the presented bearer token is valid,
// distinguishing absent, expired and malformed tokens.
func (h *AuthHandler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	tokenStr := auth.BearerToken(r)
	if tokenStr == "" {
		respondMessage(w, http.StatusUnauthorized, "No token provided")
		return
	}

	userID, err := h.tokens.Verify(tokenStr)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			respondMessage(w, http.StatusUnauthorized, "Token has expired")
			return
		}
		respondMessage(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Token is valid",
		"user":    map[string]string{"id": userID},
	})
}
