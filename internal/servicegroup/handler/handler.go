package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"smpserver/internal/servicegroup/models"
	"smpserver/pkg/platform/httputil"
	"smpserver/pkg/requestcontext"
)

// Service is the subset of the service group service used by the admin routes.
type Service interface {
	Register(ctx context.Context, key, ownerUsername string) (*models.ServiceGroup, error)
	Get(ctx context.Context, key string) (*models.ServiceGroup, error)
	Unregister(ctx context.Context, key string) error
}

// Handler exposes operator routes for service groups.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the routes; callers wrap r with the admin token middleware.
func (h *Handler) Register(r chi.Router) {
	r.Put("/admin/servicegroups/{serviceGroupID}", h.HandleRegister)
	r.Get("/admin/servicegroups/{serviceGroupID}", h.HandleGet)
	r.Delete("/admin/servicegroups/{serviceGroupID}", h.HandleUnregister)
}

// RegisterRequest is the body of PUT /admin/servicegroups/{id}.
type RegisterRequest struct {
	Owner string `json:"owner"`
}

// Response describes a service group.
type Response struct {
	ParticipantID string    `json:"participant_id"`
	OwnerID       string    `json:"owner_id"`
	CreatedAt     time.Time `json:"created_at"`
}

func toResponse(sg *models.ServiceGroup) Response {
	return Response{
		ParticipantID: sg.ID.String(),
		OwnerID:       sg.OwnerID.String(),
		CreatedAt:     sg.CreatedAt,
	}
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	key := pathKey(r)

	req, ok := httputil.DecodeOrWrite[RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	sg, err := h.service.Register(ctx, key, req.Owner)
	if err != nil {
		h.logger.WarnContext(ctx, "service group registration failed",
			"request_id", requestID,
			"service_group", key,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toResponse(sg))
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	sg, err := h.service.Get(r.Context(), pathKey(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(sg))
}

func (h *Handler) HandleUnregister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := pathKey(r)
	if err := h.service.Unregister(ctx, key); err != nil {
		h.logger.WarnContext(ctx, "service group unregistration failed",
			"request_id", requestcontext.RequestID(ctx),
			"service_group", key,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathKey(r *http.Request) string {
	return httputil.PathParam(r, "serviceGroupID")
}
