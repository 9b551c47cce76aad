package app

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	authhandler "smpserver/internal/auth/handler"
	bchandler "smpserver/internal/businesscard/handler"
	httpmetrics "smpserver/internal/platform/metrics"
	sghandler "smpserver/internal/servicegroup/handler"
	dErrors "smpserver/pkg/domain-errors"
	"smpserver/pkg/platform/httputil"
	"smpserver/pkg/platform/middleware/admin"
	"smpserver/pkg/platform/middleware/logging"
	"smpserver/pkg/platform/middleware/metadata"
	"smpserver/pkg/platform/middleware/request"
	"smpserver/pkg/platform/middleware/requesttime"
)

const healthTimeout = 2 * time.Second

func (a *App) router(m *httpmetrics.Metrics) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(logging.RequestLogger(a.Logger))
	r.Use(m.Middleware)

	r.Get("/health", a.handleHealth)
	r.Method(http.MethodGet, "/metrics", httpmetrics.Handler(a.Registry))

	r.Group(func(r chi.Router) {
		r.Use(a.Limiter.Middleware)
		bchandler.New(a.BusinessCards, a.CardMetrics, a.Logger).Register(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(admin.RequireAdminToken(a.Config.Server.AdminToken, a.Logger))
		authhandler.New(a.Users, a.Logger).Register(r)
		sghandler.New(a.ServiceGroups, a.Logger).Register(r)
		r.Get("/admin/audit/{serviceGroupID}", a.handleAuditList)
	})
	return r
}

// HealthResponse reports each configured backend.
type HealthResponse struct {
	Status   string            `json:"status"`
	Backends map[string]string `json:"backends,omitempty"`
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	var (
		mu       sync.Mutex
		backends = make(map[string]string, len(a.health))
		g        errgroup.Group
	)
	for name, check := range a.health {
		g.Go(func() error {
			err := check(ctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				backends[name] = err.Error()
				return err
			}
			backends[name] = "ok"
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		a.Logger.WarnContext(ctx, "health check failed", "error", err)
		httputil.WriteJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "degraded", Backends: backends})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok", Backends: backends})
}

func (a *App) handleAuditList(w http.ResponseWriter, r *http.Request) {
	key := httputil.PathParam(r, "serviceGroupID")
	pid, ok := a.factory.Parse(key)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "cannot parse service group identifier '"+key+"'"))
		return
	}
	events, err := a.Audit.List(r.Context(), pid.String())
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit events"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, events)
}
