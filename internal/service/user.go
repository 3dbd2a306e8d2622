// Package service implements the application's business logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/userhub/userhub/internal/auth"
	"github.com/userhub/userhub/internal/metrics"
	"github.com/userhub/userhub/internal/model"
	"github.com/userhub/userhub/internal/repository"
)

// Common errors for user service operations.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailExists        = errors.New("email already in use")
	ErrMissingFields      = errors.New("email and password are required")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// UserStore is the persistence contract the service depends on.
// *repository.Repository satisfies it.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
	DeleteUser(ctx context.Context, id int64) error
	DeleteAllUsers(ctx context.Context) error
	CountUsers(ctx context.Context, filter repository.UserFilter) (int, error)
	ListUsers(ctx context.Context, filter repository.UserFilter, offset, limit int) ([]*model.User, error)
}

// UserService implements registration, authentication and user CRUD.
type UserService struct {
	store   UserStore
	hasher  *auth.PasswordHasher
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewUserService creates a new UserService.
func NewUserService(store UserStore, hasher *auth.PasswordHasher, logger *slog.Logger, recorder metrics.Recorder) *UserService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &UserService{
		store:   store,
		hasher:  hasher,
		logger:  logger,
		metrics: recorder,
	}
}

// RegisterInput holds the fields for creating a user.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// Register creates a new user with a hashed password.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	if input.Email == "" || input.Password == "" {
		return nil, ErrMissingFields
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		PasswordHash: hash,
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailExists
		}
		return nil, err
	}

	s.metrics.IncUserCreated()
	return user, nil
}

// Authenticate verifies an email/password pair and returns the matching
// user. Unknown email and wrong password are indistinguishable to the
// caller; the distinction is logged for operators only.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	if email == "" || password == "" {
		return nil, ErrMissingFields
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.logger.Info("failed login attempt - user not found", slog.String("email", email))
			s.metrics.IncLoginFailure()
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.logger.Info("failed login attempt - invalid password", slog.String("email", email))
		s.metrics.IncLoginFailure()
		return nil, ErrInvalidCredentials
	}

	s.metrics.IncLoginSuccess()
	return user, nil
}

// Get retrieves a user by ID.
func (s *UserService) Get(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateInput holds the replaceable profile fields. Nil fields are left
// unchanged.
type UpdateInput struct {
	FirstName *string
	LastName  *string
	Email     *string
}

// Update applies profile changes to an existing user.
func (s *UserService) Update(ctx context.Context, id int64, input UpdateInput) (*model.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Email != nil && *input.Email != user.Email {
		if err := s.checkEmailAvailable(ctx, *input.Email, id); err != nil {
			return nil, err
		}
		user.Email = *input.Email
	}
	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}

	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, mapUpdateError(err)
	}

	s.metrics.IncUserUpdated()
	return user, nil
}

// PatchInput holds partially updatable fields including the password.
type PatchInput struct {
	FirstName *string
	LastName  *string
	Email     *string
	Password  *string
}

// Patch applies a partial update; a supplied password is re-hashed.
func (s *UserService) Patch(ctx context.Context, id int64, input PatchInput) (*model.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Email != nil && *input.Email != user.Email {
		if err := s.checkEmailAvailable(ctx, *input.Email, id); err != nil {
			return nil, err
		}
		user.Email = *input.Email
	}
	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if input.Password != nil {
		hash, err := s.hasher.Hash(*input.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, mapUpdateError(err)
	}

	s.metrics.IncUserUpdated()
	return user, nil
}

// Delete removes a user by ID.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	s.metrics.IncUserDeleted()
	return nil
}

// DeleteAll wipes every user record.
func (s *UserService) DeleteAll(ctx context.Context) error {
	return s.store.DeleteAllUsers(ctx)
}

// ListInput holds pagination and filter parameters for listing users.
type ListInput struct {
	Page      int
	PageSize  int
	Search    string
	FirstName string
	LastName  string
	Email     string
}

// ListResult is a page of users plus pagination metadata.
type ListResult struct {
	Users      []*model.User
	Total      int
	Page       int
	PageSize   int
	TotalPages int
	HasMore    bool
}

// List returns users matching the filters. Page below 1 is treated as
// 1; PageSize 0 returns all matching users in one page. The default
// page size of 10 is applied at the HTTP layer.
func (s *UserService) List(ctx context.Context, input ListInput) (*ListResult, error) {
	filter := repository.UserFilter{
		Search:    input.Search,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
	}

	page := input.Page
	if page < 1 {
		page = 1
	}
	pageSize := input.PageSize
	if pageSize < 0 {
		pageSize = 10
	}

	if pageSize == 0 {
		users, err := s.store.ListUsers(ctx, filter, 0, 0)
		if err != nil {
			return nil, err
		}
		return &ListResult{
			Users:      users,
			Total:      len(users),
			Page:       1,
			PageSize:   len(users),
			TotalPages: 1,
			HasMore:    false,
		}, nil
	}

	total, err := s.store.CountUsers(ctx, filter)
	if err != nil {
		return nil, err
	}

	offset := (page - 1) * pageSize
	users, err := s.store.ListUsers(ctx, filter, offset, pageSize)
	if err != nil {
		return nil, err
	}

	totalPages := (total + pageSize - 1) / pageSize

	return &ListResult{
		Users:      users,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		HasMore:    offset+len(users) < total,
	}, nil
}

// checkEmailAvailable rejects an email already held by another user.
// This is read-then-write and so race-prone under true concurrency; the
// unique constraint in the store is the backstop.
func (s *UserService) checkEmailAvailable(ctx context.Context, email string, selfID int64) error {
	existing, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil
		}
		return err
	}
	if existing.ID != selfID {
		return ErrEmailExists
	}
	return nil
}

func mapUpdateError(err error) error {
	switch {
	case errors.Is(err, repository.ErrEmailExists):
		return ErrEmailExists
	case errors.Is(err, repository.ErrUserNotFound):
		return ErrUserNotFound
	default:
		return err
	}
}
