package services

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isdelr/movie-vault-be/internal/apperr"
	"github.com/isdelr/movie-vault-be/internal/models"
	"github.com/isdelr/movie-vault-be/internal/storage"
)

const testBaseURL = "http://example.com"

type movieFixture struct {
	movies  *MovieService
	posters *storage.PosterStore
	ownerID string
	otherID string
}

func newMovieFixture(t *testing.T) *movieFixture {
	t.Helper()
	db := newTestDB(t)
	posters, err := storage.NewPosterStore(t.TempDir())
	require.NoError(t, err)

	users := NewUserService(db)
	owner, err := users.Register("owner", "owner@example.com", "password")
	require.NoError(t, err)
	other, err := users.Register("other", "other@example.com", "password")
	require.NoError(t, err)

	return &movieFixture{
		movies:  NewMovieService(db, posters),
		posters: posters,
		ownerID: owner.ID,
		otherID: other.ID,
	}
}

func upload(name string) *Upload {
	data := []byte("fake image bytes for " + name)
	return &Upload{
		Reader:    bytes.NewReader(data),
		Name:      name,
		MediaType: "image/png",
		Size:      int64(len(data)),
	}
}

// posterOnDisk resolves a movie's stored poster path to its location
// under the test storage root.
func (f *movieFixture) posterOnDisk(storedPath string) string {
	return filepath.Join(f.posters.Dir(), filepath.Base(storedPath))
}

func (f *movieFixture) create(t *testing.T, title string) models.Movie {
	t.Helper()
	movie, err := f.movies.Create(f.ownerID, title, 1999, upload(title+".png"), testBaseURL)
	require.NoError(t, err)
	return movie
}

func TestCreateMovie(t *testing.T) {
	f := newMovieFixture(t)

	movie := f.create(t, "The Matrix")
	assert.NotEmpty(t, movie.ID)
	assert.Equal(t, "The Matrix", movie.Title)
	assert.Equal(t, 1999, movie.PublishingYear)
	assert.Equal(t, f.ownerID, movie.UserID)
	assert.Contains(t, movie.Poster, testBaseURL+"/uploads/")

	_, err := os.Stat(f.posterOnDisk(movie.Poster))
	assert.NoError(t, err, "poster file should exist after create")
}

func TestCreateMovieRequiresPoster(t *testing.T) {
	f := newMovieFixture(t)

	_, err := f.movies.Create(f.ownerID, "No Poster", 2001, nil, testBaseURL)
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Contains(t, err.Error(), "poster image is required")
}

func TestGetMovie(t *testing.T) {
	f := newMovieFixture(t)

	created := f.create(t, "Alien")

	movie, err := f.movies.Get(created.ID, testBaseURL)
	require.NoError(t, err)
	assert.Equal(t, created.ID, movie.ID)
	assert.Contains(t, movie.Poster, testBaseURL+"/uploads/")

	_, err = f.movies.Get("no-such-id", testBaseURL)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListPagination(t *testing.T) {
	f := newMovieFixture(t)

	for i := 0; i < 17; i++ {
		f.create(t, fmt.Sprintf("Movie %02d", i))
	}

	page1, err := f.movies.List(1, 8, testBaseURL)
	require.NoError(t, err)
	assert.Len(t, page1.Movies, 8)
	assert.Equal(t, 1, page1.CurrentPage)
	assert.Equal(t, 3, page1.TotalPages)
	assert.Equal(t, 17, page1.TotalMovies)

	page3, err := f.movies.List(3, 8, testBaseURL)
	require.NoError(t, err)
	assert.Len(t, page3.Movies, 1)
	assert.Equal(t, 3, page3.CurrentPage)

	for _, m := range page1.Movies {
		assert.Contains(t, m.Poster, testBaseURL+"/uploads/")
	}

	// Pages must not overlap: collect IDs across all pages and expect
	// every movie exactly once.
	seen := map[string]bool{}
	for page := 1; page <= 3; page++ {
		result, err := f.movies.List(page, 8, testBaseURL)
		require.NoError(t, err)
		for _, m := range result.Movies {
			assert.False(t, seen[m.ID], "movie %s appeared on two pages", m.ID)
			seen[m.ID] = true
		}
	}
	assert.Len(t, seen, 17)
}

func TestListDefaults(t *testing.T) {
	f := newMovieFixture(t)
	f.create(t, "Solo")

	result, err := f.movies.List(0, 0, testBaseURL)
	require.NoError(t, err)
	assert.Equal(t, 1, result.CurrentPage)
	assert.Equal(t, 1, result.TotalPages)
	assert.Len(t, result.Movies, 1)
}

func TestUpdateMoviePartial(t *testing.T) {
	f := newMovieFixture(t)

	created := f.create(t, "Blade Runner")

	newTitle := "Blade Runner: Final Cut"
	updated, err := f.movies.Update(created.ID, f.ownerID, &newTitle, nil, nil, testBaseURL)
	require.NoError(t, err)
	assert.Equal(t, newTitle, updated.Title)
	assert.Equal(t, 1999, updated.PublishingYear, "omitted year must keep its value")
	assert.Equal(t, created.Poster, updated.Poster, "omitted poster must keep its value")

	year := 1982
	updated, err = f.movies.Update(created.ID, f.ownerID, nil, &year, nil, testBaseURL)
	require.NoError(t, err)
	assert.Equal(t, newTitle, updated.Title)
	assert.Equal(t, 1982, updated.PublishingYear)
}

func TestUpdateMovieReplacesPoster(t *testing.T) {
	f := newMovieFixture(t)

	created := f.create(t, "Heat")
	oldOnDisk := f.posterOnDisk(created.Poster)

	updated, err := f.movies.Update(created.ID, f.ownerID, nil, nil, upload("new-heat.jpg"), testBaseURL)
	require.NoError(t, err)
	require.NotEqual(t, created.Poster, updated.Poster)

	_, err = os.Stat(oldOnDisk)
	assert.True(t, os.IsNotExist(err), "old poster should be gone after replace")
	_, err = os.Stat(f.posterOnDisk(updated.Poster))
	assert.NoError(t, err, "new poster should exist after replace")
}

func TestUpdateMovieNotOwner(t *testing.T) {
	f := newMovieFixture(t)

	created := f.create(t, "Ronin")

	title := "Hijacked"
	_, err := f.movies.Update(created.ID, f.otherID, &title, nil, nil, testBaseURL)
	require.ErrorIs(t, err, apperr.ErrForbidden)

	unchanged, err := f.movies.Get(created.ID, testBaseURL)
	require.NoError(t, err)
	assert.Equal(t, "Ronin", unchanged.Title)
}

func TestUpdateMovieNotFound(t *testing.T) {
	f := newMovieFixture(t)

	title := "Ghost"
	_, err := f.movies.Update("no-such-id", f.ownerID, &title, nil, nil, testBaseURL)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeleteMovie(t *testing.T) {
	f := newMovieFixture(t)

	created := f.create(t, "Seven")
	onDisk := f.posterOnDisk(created.Poster)

	require.NoError(t, f.movies.Delete(created.ID, f.ownerID))

	_, err := f.movies.Get(created.ID, testBaseURL)
	require.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = os.Stat(onDisk)
	assert.True(t, os.IsNotExist(err), "poster file should be removed with its movie")
}

func TestDeleteMovieNotOwner(t *testing.T) {
	f := newMovieFixture(t)

	created := f.create(t, "Casino")
	onDisk := f.posterOnDisk(created.Poster)

	err := f.movies.Delete(created.ID, f.otherID)
	require.ErrorIs(t, err, apperr.ErrForbidden)

	// Record and file are untouched.
	_, err = f.movies.Get(created.ID, testBaseURL)
	require.NoError(t, err)
	_, err = os.Stat(onDisk)
	assert.NoError(t, err)
}

func TestDeleteMovieNotFound(t *testing.T) {
	f := newMovieFixture(t)

	err := f.movies.Delete("no-such-id", f.ownerID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestOwnedMovieIDsFollowLifecycle(t *testing.T) {
	f := newMovieFixture(t)
	db := f.movies.db
	users := NewUserService(db)

	created := f.create(t, "Gattaca")

	owner, err := users.GetUserByID(f.ownerID)
	require.NoError(t, err)
	assert.Contains(t, owner.MovieIDs, created.ID)

	require.NoError(t, f.movies.Delete(created.ID, f.ownerID))

	owner, err = users.GetUserByID(f.ownerID)
	require.NoError(t, err)
	assert.NotContains(t, owner.MovieIDs, created.ID)
}
