// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/userhub/userhub/internal/model"
)

// CreateUserRequest represents the request body for creating a user.
type CreateUserRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// UpdateUserRequest represents the request body for replacing a user's
// profile fields. Nil fields are left unchanged.
type UpdateUserRequest struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Email     *string `json:"email,omitempty"`
}

// PatchUserRequest represents a partial user update. A supplied password
// is re-hashed before storage.
type PatchUserRequest struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Email     *string `json:"email,omitempty"`
	Password  *string `json:"password,omitempty"`
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries an issued JWT.
type TokenResponse struct {
	Token string `json:"token"`
}

// MessageResponse is a generic success message.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
}

// UserResponse represents a user in API responses. The password hash is
// never included.
type UserResponse struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserEnvelope wraps a single user under a data key.
type UserEnvelope struct {
	Data UserResponse `json:"data"`
}

// UserListResponse represents a paginated list of users.
type UserListResponse struct {
	Data       []UserResponse `json:"data"`
	Pagination Pagination     `json:"pagination"`
}

// Pagination provides offset-based pagination info.
type Pagination struct {
	Total      int  `json:"total"`
	Page       int  `json:"page"`
	PageSize   int  `json:"pageSize"`
	TotalPages int  `json:"totalPages"`
	HasMore    bool `json:"hasMore"`
}

// ToUserResponse converts a User model to UserResponse DTO.
func ToUserResponse(user *model.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

// ToUserListResponse converts a slice of User models plus pagination
// metadata to a UserListResponse.
func ToUserListResponse(users []*model.User, p Pagination) UserListResponse {
	responses := make([]UserResponse, len(users))
	for i, user := range users {
		responses[i] = ToUserResponse(user)
	}
	return UserListResponse{
		Data:       responses,
		Pagination: p,
	}
}
