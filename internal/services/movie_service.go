package services

import (
	"database/sql"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/isdelr/movie-vault-be/internal/apperr"
	"github.com/isdelr/movie-vault-be/internal/models"
	"github.com/isdelr/movie-vault-be/internal/storage"
)

// Upload carries an uploaded poster file into the service layer.
type Upload struct {
	Reader    io.Reader
	Name      string
	MediaType string
	Size      int64
}

// Close releases the underlying file handle if there is one.
func (u *Upload) Close() error {
	if c, ok := u.Reader.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// MovieList is the paginated listing result.
type MovieList struct {
	Movies      []models.Movie `json:"movies"`
	CurrentPage int            `json:"currentPage"`
	TotalPages  int            `json:"totalPages"`
	TotalMovies int            `json:"totalMovies"`
}

// MovieServiceProvider defines the interface for movie services.
type MovieServiceProvider interface {
	List(page, limit int, baseURL string) (MovieList, error)
	Get(id, baseURL string) (models.Movie, error)
	Create(ownerID, title string, publishingYear int, poster *Upload, baseURL string) (models.Movie, error)
	Update(id, callerID string, title *string, publishingYear *int, poster *Upload, baseURL string) (models.Movie, error)
	Delete(id, callerID string) error
}

// MovieService provides business logic for the movie catalog, delegating
// poster file lifecycle to the PosterStore.
type MovieService struct {
	db      *sql.DB
	posters *storage.PosterStore
}

// NewMovieService creates a new MovieService.
func NewMovieService(db *sql.DB, posters *storage.PosterStore) *MovieService {
	return &MovieService{db: db, posters: posters}
}

// List returns one page of the catalog, ordered by creation time with
// the ID as a unique tiebreak so pages stay stable across requests.
// Poster paths are rewritten to absolute URLs under baseURL.
func (s *MovieService) List(page, limit int, baseURL string) (MovieList, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 8
	}

	var total int
	if err := s.db.QueryRow("SELECT COUNT(1) FROM movies").Scan(&total); err != nil {
		return MovieList{}, err
	}

	rows, err := s.db.Query(
		"SELECT id, title, publishing_year, poster, user_id, created_at FROM movies ORDER BY created_at, id LIMIT ? OFFSET ?",
		limit, (page-1)*limit)
	if err != nil {
		return MovieList{}, err
	}
	defer rows.Close()

	movies := []models.Movie{}
	for rows.Next() {
		var m models.Movie
		if err := rows.Scan(&m.ID, &m.Title, &m.PublishingYear, &m.Poster, &m.UserID, &m.CreatedAt); err != nil {
			return MovieList{}, err
		}
		m.Poster = storage.PublicURL(baseURL, m.Poster)
		movies = append(movies, m)
	}
	if err := rows.Err(); err != nil {
		return MovieList{}, err
	}

	return MovieList{
		Movies:      movies,
		CurrentPage: page,
		TotalPages:  (total + limit - 1) / limit,
		TotalMovies: total,
	}, nil
}

// Get retrieves a single movie with its poster rewritten to an absolute URL.
func (s *MovieService) Get(id, baseURL string) (models.Movie, error) {
	movie, err := s.getRaw(id)
	if err != nil {
		return models.Movie{}, err
	}
	movie.Poster = storage.PublicURL(baseURL, movie.Poster)
	return movie, nil
}

// Create stores the poster and inserts the movie record owned by ownerID.
// The poster is mandatory. If the insert fails after the file was
// written, the file is removed again so no orphan survives the request.
func (s *MovieService) Create(ownerID, title string, publishingYear int, poster *Upload, baseURL string) (models.Movie, error) {
	if poster == nil {
		return models.Movie{}, fmt.Errorf("%w: poster image is required", apperr.ErrValidation)
	}

	posterPath, err := s.posters.Store(poster.Reader, poster.Name, poster.MediaType, poster.Size)
	if err != nil {
		return models.Movie{}, err
	}

	movie := models.Movie{
		ID:             uuid.New().String(),
		Title:          title,
		PublishingYear: publishingYear,
		Poster:         posterPath,
		UserID:         ownerID,
	}

	stmt, err := s.db.Prepare("INSERT INTO movies(id, title, publishing_year, poster, user_id) VALUES(?, ?, ?, ?, ?)")
	if err != nil {
		return models.Movie{}, err
	}
	defer stmt.Close()

	if _, err = stmt.Exec(movie.ID, movie.Title, movie.PublishingYear, movie.Poster, movie.UserID); err != nil {
		if rmErr := s.posters.Remove(posterPath); rmErr != nil {
			log.Warn().Err(rmErr).Str("path", posterPath).Msg("Failed to clean up poster after insert failure")
		}
		return models.Movie{}, err
	}

	return s.Get(movie.ID, baseURL)
}

// Update applies a partial update: nil fields keep their current value.
// Only the owner may edit. A new poster replaces the old file on disk
// before the record is updated.
func (s *MovieService) Update(id, callerID string, title *string, publishingYear *int, poster *Upload, baseURL string) (models.Movie, error) {
	movie, err := s.getRaw(id)
	if err != nil {
		return models.Movie{}, err
	}
	if movie.UserID != callerID {
		return models.Movie{}, fmt.Errorf("%w: you are not authorized to edit this movie", apperr.ErrForbidden)
	}

	if title != nil && *title != "" {
		movie.Title = *title
	}
	if publishingYear != nil {
		movie.PublishingYear = *publishingYear
	}
	if poster != nil {
		newPath, err := s.posters.Replace(movie.Poster, poster.Reader, poster.Name, poster.MediaType, poster.Size)
		if err != nil {
			return models.Movie{}, err
		}
		movie.Poster = newPath
	}

	_, err = s.db.Exec("UPDATE movies SET title = ?, publishing_year = ?, poster = ? WHERE id = ?",
		movie.Title, movie.PublishingYear, movie.Poster, movie.ID)
	if err != nil {
		return models.Movie{}, err
	}

	return s.Get(movie.ID, baseURL)
}

// Delete removes a movie and its backing poster file. Only the owner may
// delete. The file goes first: a leaked file after a failed row delete
// is recoverable by the sweeper, whereas a live record pointing at a
// deleted file is the failure mode to avoid — so removal is idempotent
// and best-effort, and a file error never blocks the record delete.
func (s *MovieService) Delete(id, callerID string) error {
	movie, err := s.getRaw(id)
	if err != nil {
		return err
	}
	if movie.UserID != callerID {
		return fmt.Errorf("%w: you are not authorized to delete this movie", apperr.ErrForbidden)
	}

	if err := s.posters.Remove(movie.Poster); err != nil {
		log.Warn().Err(err).Str("movie_id", id).Str("path", movie.Poster).Msg("Failed to remove poster file, deleting record anyway")
	}

	_, err = s.db.Exec("DELETE FROM movies WHERE id = ?", id)
	return err
}

func (s *MovieService) getRaw(id string) (models.Movie, error) {
	var m models.Movie
	row := s.db.QueryRow("SELECT id, title, publishing_year, poster, user_id, created_at FROM movies WHERE id = ?", id)
	if err := row.Scan(&m.ID, &m.Title, &m.PublishingYear, &m.Poster, &m.UserID, &m.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return models.Movie{}, fmt.Errorf("%w: movie not found", apperr.ErrNotFound)
		}
		return models.Movie{}, err
	}
	return m, nil
}
