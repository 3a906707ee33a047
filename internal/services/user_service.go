package services

import (
	"database/sql"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/isdelr/movie-vault-be/internal/apperr"
	"github.com/isdelr/movie-vault-be/internal/models"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Register(username, email, password string) (models.User, error)
	Authenticate(email, password string) (models.User, error)
	GetUserByID(id string) (models.User, error)
}

// UserService provides business logic for account management.
type UserService struct {
	db *sql.DB
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB) *UserService {
	return &UserService{db: db}
}

// Register creates a new user, hashing their password. The raw password
// is never stored or returned.
func (s *UserService) Register(username, email, password string) (models.User, error) {
	if username == "" || email == "" || password == "" {
		return models.User{}, fmt.Errorf("%w: username, email and password are required", apperr.ErrValidation)
	}
	if !emailPattern.MatchString(email) {
		return models.User{}, fmt.Errorf("%w: invalid email format", apperr.ErrValidation)
	}

	if taken, err := s.exists("email", email); err != nil {
		return models.User{}, err
	} else if taken {
		return models.User{}, fmt.Errorf("%w: user with this email already exists", apperr.ErrConflict)
	}
	if taken, err := s.exists("username", username); err != nil {
		return models.User{}, err
	} else if taken {
		return models.User{}, fmt.Errorf("%w: username is already taken", apperr.ErrConflict)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
		MovieIDs:     []string{},
	}

	stmt, err := s.db.Prepare("INSERT INTO users(id, username, email, password_hash) VALUES(?, ?, ?, ?)")
	if err != nil {
		return models.User{}, err
	}
	defer stmt.Close()

	if _, err = stmt.Exec(user.ID, user.Username, user.Email, user.PasswordHash); err != nil {
		return models.User{}, err
	}

	// Return user without password hash
	user.PasswordHash = ""
	return user, nil
}

// Authenticate verifies a user's credentials. Unknown email and wrong
// password are both reported as validation failures, with the original's
// distinct messages.
func (s *UserService) Authenticate(email, password string) (models.User, error) {
	if !emailPattern.MatchString(email) {
		return models.User{}, fmt.Errorf("%w: invalid email format", apperr.ErrValidation)
	}

	user, err := s.GetUserByEmail(email)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, fmt.Errorf("%w: email does not exist", apperr.ErrValidation)
		}
		return models.User{}, err
	}

	if !VerifyPassword(user, password) {
		return models.User{}, fmt.Errorf("%w: invalid credentials", apperr.ErrValidation)
	}

	// Don't send the password hash to the client
	user.PasswordHash = ""
	return user, nil
}

// VerifyPassword compares a raw password against the user's stored hash.
// The comparison is constant-time; a mismatch returns false, never an error.
func VerifyPassword(user models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}

// GetUserByEmail retrieves a single user by their email, including the
// password hash. Returns sql.ErrNoRows when no such user exists.
func (s *UserService) GetUserByEmail(email string) (models.User, error) {
	var user models.User
	row := s.db.QueryRow("SELECT id, username, email, password_hash, created_at FROM users WHERE email = ?", email)
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt); err != nil {
		return models.User{}, err
	}
	if err := s.loadMovieIDs(&user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(id string) (models.User, error) {
	var user models.User
	row := s.db.QueryRow("SELECT id, username, email, created_at FROM users WHERE id = ?", id)
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, fmt.Errorf("%w: user %s", apperr.ErrNotFound, id)
		}
		return models.User{}, err
	}
	if err := s.loadMovieIDs(&user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// loadMovieIDs fills the user's owned-movie set. Ownership is the
// movies.user_id relation; this is its user-facing view.
func (s *UserService) loadMovieIDs(user *models.User) error {
	rows, err := s.db.Query("SELECT id FROM movies WHERE user_id = ? ORDER BY created_at, id", user.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	user.MovieIDs = []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		user.MovieIDs = append(user.MovieIDs, id)
	}
	return rows.Err()
}

func (s *UserService) exists(column, value string) (bool, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(1) FROM users WHERE "+column+" = ?", value).Scan(&n)
	return n > 0, err
}
