package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	authmodels "smpserver/internal/auth/models"
	"smpserver/internal/businesscard/metrics"
	"smpserver/internal/businesscard/models"
	dErrors "smpserver/pkg/domain-errors"
	"smpserver/pkg/platform/httputil"
	"smpserver/pkg/requestcontext"
)

// Service is the business card directory API.
type Service interface {
	GetBusinessCard(ctx context.Context, key string) (*models.BusinessCard, error)
	CreateBusinessCard(ctx context.Context, key string, payload models.CardPayload, creds authmodels.Credentials) (models.Outcome, error)
	DeleteBusinessCard(ctx context.Context, key string, creds authmodels.Credentials) (models.Outcome, error)
}

// StatsSource exposes the invocation counters.
type StatsSource interface {
	Snapshot() metrics.Snapshot
}

type Handler struct {
	service Service
	stats   StatsSource
	logger  *slog.Logger
}

func New(service Service, stats StatsSource, logger *slog.Logger) *Handler {
	return &Handler{service: service, stats: stats, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/businesscard/{serviceGroupID}", h.HandleGet)
	r.Put("/businesscard/{serviceGroupID}", h.HandlePut)
	r.Delete("/businesscard/{serviceGroupID}", h.HandleDelete)
	r.Get("/stats/businesscard", h.HandleStats)
}

// OutcomeResponse is the body of a mutation response.
type OutcomeResponse struct {
	Result string `json:"result"`
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	card, err := h.service.GetBusinessCard(r.Context(), pathKey(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.ToPayload(card))
}

func (h *Handler) HandlePut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	key := pathKey(r)

	payload, ok := httputil.DecodeOrWrite[models.CardPayload](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	outcome, err := h.service.CreateBusinessCard(ctx, key, *payload, credentials(r))
	h.writeOutcome(w, outcome, err)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.service.DeleteBusinessCard(r.Context(), pathKey(r), credentials(r))
	h.writeOutcome(w, outcome, err)
}

func (h *Handler) HandleStats(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.stats.Snapshot())
}

// writeOutcome answers 200 for Success and 500 for a store Failure.
func (h *Handler) writeOutcome(w http.ResponseWriter, outcome models.Outcome, err error) {
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if !outcome.IsSuccess() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "business card could not be stored"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, OutcomeResponse{Result: outcome.String()})
}

// credentials returns the Basic credentials of r. Missing credentials yield an empty
// username, which the validator rejects after the key has been parsed.
func credentials(r *http.Request) authmodels.Credentials {
	username, password, ok := r.BasicAuth()
	if !ok {
		return authmodels.Credentials{}
	}
	return authmodels.Credentials{Username: username, Password: password}
}

func pathKey(r *http.Request) string {
	return httputil.PathParam(r, "serviceGroupID")
}
