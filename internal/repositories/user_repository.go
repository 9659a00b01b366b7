package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"messenger-service/internal/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

const userColumns = `id, full_name, email, bio, profile_pic, created_at`

// UserRepository abstracts account persistence.
type UserRepository interface {
	Create(ctx context.Context, fullName, email, passwordHash, bio string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, userID int64) (models.User, error)
	UpdateProfile(ctx context.Context, userID int64, fullName, bio, profilePic string) (models.User, error)
	ListOthers(ctx context.Context, viewerID int64) ([]models.User, error)
}

// UserRepo is a sqlx-backed UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create inserts a new account. A duplicate email maps to ErrEmailTaken.
func (r *UserRepo) Create(ctx context.Context, fullName, email, passwordHash, bio string) (models.User, error) {
	var user models.User
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO users (full_name, email, password_hash, bio)
         VALUES ($1, $2, $3, $4)
         RETURNING `+userColumns,
		fullName, email, passwordHash, bio).StructScan(&user)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, err
	}
	return user, nil
}

// GetByEmail returns the account including its password hash, for
// credential verification only.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user,
		`SELECT `+userColumns+`, password_hash FROM users WHERE email=$1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// GetByID returns the account projection without the password hash.
func (r *UserRepo) GetByID(ctx context.Context, userID int64) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user,
		`SELECT `+userColumns+` FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// UpdateProfile updates name and bio, and the avatar URL when non-empty.
func (r *UserRepo) UpdateProfile(ctx context.Context, userID int64, fullName, bio, profilePic string) (models.User, error) {
	var user models.User
	err := r.db.QueryRowxContext(ctx,
		`UPDATE users
         SET full_name=$2, bio=$3, profile_pic=CASE WHEN $4 <> '' THEN $4 ELSE profile_pic END
         WHERE id=$1
         RETURNING `+userColumns,
		userID, fullName, bio, profilePic).StructScan(&user)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// ListOthers returns every account except the viewer's.
func (r *UserRepo) ListOthers(ctx context.Context, viewerID int64) ([]models.User, error) {
	users := []models.User{}
	err := r.db.SelectContext(ctx, &users,
		`SELECT `+userColumns+` FROM users WHERE id <> $1 ORDER BY id`, viewerID)
	return users, err
}
