package services

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isdelr/movie-vault-be/internal/apperr"
	"github.com/isdelr/movie-vault-be/internal/database"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

func TestRegisterAndVerifyPassword(t *testing.T) {
	svc := NewUserService(newTestDB(t))

	user, err := svc.Register("alice", "alice@example.com", "s3cret-password")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Empty(t, user.PasswordHash, "password hash must not be returned")
	assert.Empty(t, user.MovieIDs)

	stored, err := svc.GetUserByEmail("alice@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-password", stored.PasswordHash, "raw password must never be stored")

	assert.True(t, VerifyPassword(stored, "s3cret-password"))
	assert.False(t, VerifyPassword(stored, "wrong-password"))
	assert.False(t, VerifyPassword(stored, ""))
}

func TestRegisterInvalidEmail(t *testing.T) {
	svc := NewUserService(newTestDB(t))

	for _, email := range []string{"not-an-email", "a b@example.com", "a@b", ""} {
		_, err := svc.Register("alice", email, "password")
		assert.ErrorIs(t, err, apperr.ErrValidation, "email %q should be rejected", email)
	}
}

func TestRegisterDuplicates(t *testing.T) {
	svc := NewUserService(newTestDB(t))

	_, err := svc.Register("alice", "alice@example.com", "password")
	require.NoError(t, err)

	_, err = svc.Register("alice2", "alice@example.com", "password")
	require.ErrorIs(t, err, apperr.ErrConflict)
	assert.Contains(t, err.Error(), "email already exists")

	_, err = svc.Register("alice", "other@example.com", "password")
	require.ErrorIs(t, err, apperr.ErrConflict)
	assert.Contains(t, err.Error(), "username is already taken")
}

func TestAuthenticate(t *testing.T) {
	svc := NewUserService(newTestDB(t))

	registered, err := svc.Register("bob", "bob@example.com", "hunter22")
	require.NoError(t, err)

	user, err := svc.Authenticate("bob@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.Empty(t, user.PasswordHash)

	_, err = svc.Authenticate("bob@example.com", "wrong")
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Contains(t, err.Error(), "invalid credentials")

	_, err = svc.Authenticate("nobody@example.com", "hunter22")
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Contains(t, err.Error(), "email does not exist")

	_, err = svc.Authenticate("not-an-email", "hunter22")
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestGetUserByID(t *testing.T) {
	svc := NewUserService(newTestDB(t))

	registered, err := svc.Register("carol", "carol@example.com", "password")
	require.NoError(t, err)

	user, err := svc.GetUserByID(registered.ID)
	require.NoError(t, err)
	assert.Equal(t, "carol", user.Username)

	_, err = svc.GetUserByID("no-such-id")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}
