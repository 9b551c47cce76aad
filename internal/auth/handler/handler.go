package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"smpserver/internal/auth/models"
	"smpserver/pkg/platform/httputil"
	"smpserver/pkg/requestcontext"
)

// Service creates accounts.
type Service interface {
	CreateUser(ctx context.Context, username, password string) (*models.User, error)
}

// Handler exposes the operator route for account creation.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/admin/users", h.HandleCreateUser)
}

// CreateUserRequest is the body of POST /admin/users.
type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserResponse never carries the password hash.
type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *Handler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeOrWrite[CreateUserRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	u, err := h.service.CreateUser(ctx, req.Username, req.Password)
	if err != nil {
		h.logger.WarnContext(ctx, "user creation failed",
			"request_id", requestID,
			"username", req.Username,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, UserResponse{
		ID:        u.ID.String(),
		Username:  u.Username,
		CreatedAt: u.CreatedAt,
	})
}
