package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/userhub/userhub/internal/model"
)

// Common errors for user repository operations.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailExists  = errors.New("email already exists")
)

// UserFilter defines filters for listing users. Search is a substring
// match ORed across first name, last name and email; the explicit field
// filters are ANDed with it and with each other.
type UserFilter struct {
	Search    string
	FirstName string
	LastName  string
	Email     string
}

const userColumns = "id, first_name, last_name, email, password_hash, created_at, updated_at"

// CreateUser inserts a new user and fills in its generated ID.
func (r *Repository) CreateUser(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (first_name, last_name, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	err := r.pool.QueryRow(ctx, query,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByID retrieves a user by their ID.
func (r *Repository) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	return user, nil
}

// GetUserByEmail retrieves a user by their email address.
// The lookup is exact; email is stored as given.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

// UpdateUser persists the user's mutable fields.
func (r *Repository) UpdateUser(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users
		SET first_name = $1, last_name = $2, email = $3, password_hash = $4, updated_at = $5
		WHERE id = $6
	`

	user.UpdatedAt = time.Now()

	tag, err := r.pool.Exec(ctx, query,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
		user.UpdatedAt,
		user.ID,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// DeleteUser removes a user by ID.
func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// DeleteAllUsers removes every user record.
func (r *Repository) DeleteAllUsers(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM users`); err != nil {
		return fmt.Errorf("failed to delete users: %w", err)
	}
	return nil
}

// CountUsers returns the number of users matching the filter.
func (r *Repository) CountUsers(ctx context.Context, filter UserFilter) (int, error) {
	where, args := buildUserFilter(filter)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}

	return total, nil
}

// ListUsers retrieves users matching the filter, newest first.
// limit <= 0 returns all matching rows.
func (r *Repository) ListUsers(ctx context.Context, filter UserFilter, offset, limit int) ([]*model.User, error) {
	where, args := buildUserFilter(filter)

	query := `SELECT ` + userColumns + ` FROM users` + where + ` ORDER BY id DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, limit, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUserFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// buildUserFilter renders the filter as a WHERE clause and its arguments.
func buildUserFilter(filter UserFilter) (string, []any) {
	var conditions []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Search != "" {
		p := arg("%" + escapeLike(filter.Search) + "%")
		conditions = append(conditions, fmt.Sprintf("(first_name LIKE %[1]s OR last_name LIKE %[1]s OR email LIKE %[1]s)", p))
	}
	if filter.FirstName != "" {
		conditions = append(conditions, "first_name LIKE "+arg("%"+escapeLike(filter.FirstName)+"%"))
	}
	if filter.LastName != "" {
		conditions = append(conditions, "last_name LIKE "+arg("%"+escapeLike(filter.LastName)+"%"))
	}
	if filter.Email != "" {
		conditions = append(conditions, "email LIKE "+arg("%"+escapeLike(filter.Email)+"%"))
	}

	if len(conditions) == 0 {
		return "", nil
	}

	return " WHERE " + strings.Join(conditions, " AND "), args
}

// escapeLike escapes LIKE metacharacters so filter input matches literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return &user, err
}

func scanUserFromRows(rows pgx.Rows) (*model.User, error) {
	return scanUser(rows)
}
