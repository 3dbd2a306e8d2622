package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/userhub/userhub/internal/handler/dto"
	"github.com/userhub/userhub/internal/service"
)

// UserHandler handles HTTP requests for user CRUD operations.
type UserHandler struct {
	svc    *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		svc:    svc,
		logger: logger,
	}
}

// Create handles POST /api/v1/users. Registration is open; this is the
// only unauthenticated /users route.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Email and password are required.")
		return
	}

	user, err := h.svc.Register(r.Context(), service.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingFields):
			writeError(w, http.StatusBadRequest, "Email and password are required.")
		case errors.Is(err, service.ErrEmailExists):
			writeError(w, http.StatusConflict, "User already exists.")
		default:
			h.logger.Error("create user failed", slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "Failed to create user.")
		}
		return
	}

	h.logger.Info("user created", slog.Int64("user_id", user.ID))
	writeJSON(w, http.StatusCreated, dto.UserEnvelope{Data: dto.ToUserResponse(user)})
}

// Get handles GET /api/v1/users/{id}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}

	user, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.UserEnvelope{Data: dto.ToUserResponse(user)})
}

// Update handles PUT /api/v1/users/{id}.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req dto.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	user, err := h.svc.Update(r.Context(), id, service.UpdateInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("user updated", slog.Int64("user_id", id))
	writeJSON(w, http.StatusOK, dto.UserEnvelope{Data: dto.ToUserResponse(user)})
}

// Patch handles PATCH /api/v1/users/{id}. A password in the request body
// replaces the stored hash; subsequent logins need the new password.
func (h *UserHandler) Patch(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req dto.PatchUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	user, err := h.svc.Patch(r.Context(), id, service.PatchInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("user patched", slog.Int64("user_id", id))
	writeJSON(w, http.StatusOK, dto.UserEnvelope{Data: dto.ToUserResponse(user)})
}

// Delete handles DELETE /api/v1/users/{id}.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("user deleted", slog.Int64("user_id", id))
	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "User deleted successfully."})
}

// List handles GET /api/v1/users.
//
// Query params: page (default 1), pageSize (default 10, 0 = everything
// in one page), search (substring across first/last name and email), and
// firstName/lastName/email field filters ANDed on top.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page := 1
	if p := query.Get("page"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil && parsed > 0 {
			page = parsed
		}
	}

	pageSize := 10
	if ps := query.Get("pageSize"); ps != "" {
		if parsed, err := strconv.Atoi(ps); err == nil && parsed >= 0 {
			pageSize = parsed
		}
	}

	result, err := h.svc.List(r.Context(), service.ListInput{
		Page:      page,
		PageSize:  pageSize,
		Search:    query.Get("search"),
		FirstName: query.Get("firstName"),
		LastName:  query.Get("lastName"),
		Email:     query.Get("email"),
	})
	if err != nil {
		h.logger.Error("list users failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "Failed to fetch users.")
		return
	}

	writeJSON(w, http.StatusOK, dto.ToUserListResponse(result.Users, dto.Pagination{
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
		HasMore:    result.HasMore,
	}))
}

// DeleteAll handles DELETE /api/v1/users.
func (h *UserHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteAll(r.Context()); err != nil {
		h.logger.Error("delete all users failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "Failed to delete users.")
		return
	}

	h.logger.Warn("all users deleted")
	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "All users deleted successfully."})
}

// userID parses the {id} URL parameter; on failure it writes the error
// response and reports false.
func (h *UserHandler) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "Invalid user ID.")
		return 0, false
	}
	return id, true
}

// handleServiceError maps service errors to HTTP responses.
func (h *UserHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "User not found.")
	case errors.Is(err, service.ErrEmailExists):
		writeError(w, http.StatusConflict, "Email is already in use by another user.")
	case errors.Is(err, service.ErrMissingFields):
		writeError(w, http.StatusBadRequest, "Email and password are required.")
	default:
		h.logger.Error("internal error", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "Something went wrong")
	}
}
