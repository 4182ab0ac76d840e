package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/joaomferraz/KeyCript/internal/model"
	"github.com/joaomferraz/KeyCript/internal/utils"
)

// UserRepo persists application users.  Usernames are unique and matched
// exactly (the column uses a binary collation), passwords are stored as
// bcrypt hashes only.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user with a fresh UUID and returns the stored record.
// The plain password is hashed here so no other layer ever holds both the
// username and a persistable secret.  A duplicate username surfaces as
// ErrUserExists.
func (r *UserRepo) Create(ctx context.Context, username, password string, cost int) (model.User, error) {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return model.User{}, err
	}
	id := uuid.NewString()
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO users (id, username, password_hash) VALUES (?,?,?)",
		id, username, hash)
	if err != nil {
		// MySQL duplicate-key error code
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return model.User{}, ErrUserExists
		}
		return model.User{}, err
	}
	return r.GetByID(ctx, id)
}

// GetByUsername fetches a user by exact username match.  sql.ErrNoRows is
// returned unchanged when no such user exists; the login handler folds it
// into the same response as a wrong password.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, username, password_hash, created_at FROM users WHERE username=? LIMIT 1",
		username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, username, password_hash, created_at FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	return u, err
}
