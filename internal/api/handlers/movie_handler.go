package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/isdelr/movie-vault-be/internal/apperr"
	"github.com/isdelr/movie-vault-be/internal/auth"
	"github.com/isdelr/movie-vault-be/internal/services"
	"github.com/isdelr/movie-vault-be/internal/storage"
)

// maxFormMemory bounds the in-memory portion of multipart parsing; the
// poster size cap itself is enforced by the PosterStore.
const maxFormMemory = storage.MaxPosterSize + 1<<20

// MovieHandler handles HTTP requests for the movie catalog.
type MovieHandler struct {
	service services.MovieServiceProvider
}

// NewMovieHandler creates a new MovieHandler.
func NewMovieHandler(service services.MovieServiceProvider) *MovieHandler {
	return &MovieHandler{service: service}
}

// List returns one page of movies.
func (h *MovieHandler) List(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 8)

	result, err := h.service.List(page, limit, baseURL(r))
	if err != nil {
		log.Error().Err(err).Msg("Failed to list movies")
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Get returns a single movie by ID.
func (h *MovieHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	movie, err := h.service.Get(id, baseURL(r))
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, movie)
}

// Create adds a movie owned by the authenticated caller. The request is
// multipart form data; the poster file is mandatory.
func (h *MovieHandler) Create(w http.ResponseWriter, r *http.Request) {
	callerID, ok := auth.UserID(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "No token provided")
		return
	}

	if err := parseMovieForm(w, r); err != nil {
		respondError(w, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	title := r.FormValue("title")
	if title == "" {
		respondMessage(w, http.StatusBadRequest, "Title is required")
		return
	}
	year, err := strconv.Atoi(r.FormValue("publishingYear"))
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Publishing year must be a number")
		return
	}

	poster, err := formPoster(r)
	if err != nil {
		respondError(w, err)
		return
	}
	if poster != nil {
		defer poster.Close()
	}

	movie, err := h.service.Create(callerID, title, year, poster, baseURL(r))
	if err != nil {
		log.Error().Err(err).Str("user_id", callerID).Msg("Failed to create movie")
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, movie)
}

// Update applies a partial edit; omitted fields keep their current
// values, and a supplied poster file replaces the old one on disk.
func (h *MovieHandler) Update(w http.ResponseWriter, r *http.Request) {
	callerID, ok := auth.UserID(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "No token provided")
		return
	}
	id := chi.URLParam(r, "id")

	if err := parseMovieForm(w, r); err != nil {
		respondError(w, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	var title *string
	if v := r.FormValue("title"); v != "" {
		title = &v
	}
	var year *int
	if v := r.FormValue("publishingYear"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondMessage(w, http.StatusBadRequest, "Publishing year must be a number")
			return
		}
		year = &n
	}

	poster, err := formPoster(r)
	if err != nil {
		respondError(w, err)
		return
	}
	if poster != nil {
		defer poster.Close()
	}

	movie, err := h.service.Update(id, callerID, title, year, poster, baseURL(r))
	if err != nil {
		log.Warn().Err(err).Str("movie_id", id).Str("user_id", callerID).Msg("Failed to update movie")
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, movie)
}

// Delete removes a movie and its poster file; only the owner may do this.
func (h *MovieHandler) Delete(w http.ResponseWriter, r *http.Request) {
	callerID, ok := auth.UserID(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "No token provided")
		return
	}
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(id, callerID); err != nil {
		log.Warn().Err(err).Str("movie_id", id).Str("user_id", callerID).Msg("Failed to delete movie")
		respondError(w, err)
		return
	}

	respondMessage(w, http.StatusOK, "Movie deleted successfully")
}

// parseMovieForm parses a multipart movie form with the request body
// capped at maxFormMemory, so an oversized upload is cut off at the cap
// instead of being spooled to disk in full before rejection.
func parseMovieForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormMemory)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("%w: request body exceeds %d bytes", apperr.ErrPayloadTooLarge, int64(maxFormMemory))
		}
		return fmt.Errorf("%w: invalid multipart form", apperr.ErrValidation)
	}
	return nil
}

// formPoster pulls the optional poster file out of a parsed multipart
// form. A missing file yields (nil, nil); callers decide whether that is
// an error.
func formPoster(r *http.Request) (*services.Upload, error) {
	file, header, err := r.FormFile("poster")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: unreadable poster upload", apperr.ErrValidation)
	}
	return &services.Upload{
		Reader:    file,
		Name:      header.Filename,
		MediaType: header.Header.Get("Content-Type"),
		Size:      header.Size,
	}, nil
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
