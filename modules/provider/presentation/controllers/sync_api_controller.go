package controllers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/jacksonlee411/provider-portal/modules/provider/services"
	"github.com/jacksonlee411/provider-portal/pkg/application"
	"github.com/jacksonlee411/provider-portal/pkg/composables"
	"github.com/jacksonlee411/provider-portal/pkg/httpapi"
	"github.com/jacksonlee411/provider-portal/pkg/lane"
	"github.com/jacksonlee411/provider-portal/pkg/logging"
	"github.com/jacksonlee411/provider-portal/pkg/middleware"
)

type SyncAPIOptions struct {
	// Wraps POST /sync only. Nil leaves the trigger unlimited.
	TriggerLimiter mux.MiddlewareFunc
}

type SyncAPIController struct {
	app      application.Application
	sync     *services.SyncService
	opts     SyncAPIOptions
	basePath string
}

func NewSyncAPIController(app application.Application, opts SyncAPIOptions) application.Controller {
	return &SyncAPIController{
		app:      app,
		sync:     app.Service(services.SyncService{}).(*services.SyncService),
		opts:     opts,
		basePath: "/provider/api",
	}
}

func (c *SyncAPIController) Key() string {
	return c.basePath
}

func (c *SyncAPIController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.Use(middleware.ProvidePool(c.app.DB()))
	router.HandleFunc("/sync/plan", c.Plan).Methods(http.MethodGet)
	router.HandleFunc("/sync/status", c.Status).Methods(http.MethodGet)

	triggerRouter := r.PathPrefix(c.basePath).Subrouter()
	if c.opts.TriggerLimiter != nil {
		triggerRouter.Use(middleware.TracedMiddleware("rateLimit"), c.opts.TriggerLimiter)
	}
	triggerRouter.HandleFunc("/sync", c.Trigger).Methods(http.MethodPost)
}

// Trigger runs a reconciliation on the sync lane and answers with its result.
func (c *SyncAPIController) Trigger(w http.ResponseWriter, r *http.Request) {
	logger := composables.UseLogger(r.Context(), logging.Nop())

	res, err := c.sync.Trigger(r.Context(), services.SourceManual)
	switch {
	case errors.Is(err, lane.ErrSaturated):
		_ = httpapi.WriteRequestError(w, r, http.StatusTooManyRequests, "SYNC_SATURATED", lane.ErrSaturated.Error())
		return
	case errors.Is(err, lane.ErrClosed):
		_ = httpapi.WriteRequestError(w, r, http.StatusServiceUnavailable, "SYNC_UNAVAILABLE", "sync is shutting down")
		return
	case errors.Is(err, services.ErrFetchFailed), errors.Is(err, services.ErrStoreFailed):
		if res != nil {
			_ = httpapi.WriteJSON(w, http.StatusBadGateway, res)
			return
		}
		_ = httpapi.WriteRequestError(w, r, http.StatusBadGateway, "SYNC_FAILED", err.Error())
		return
	case err != nil:
		if r.Context().Err() != nil {
			logger.WithError(err).Warn("client left before the sync finished")
			return
		}
		logger.WithError(err).Error("provider sync failed")
		_ = httpapi.WriteRequestError(w, r, http.StatusInternalServerError, "SYNC_INTERNAL", "internal error")
		return
	}

	if err := httpapi.WriteJSON(w, http.StatusOK, res); err != nil {
		logger.WithError(err).Error("failed to encode sync result")
	}
}

// Plan previews what a run would change without writing anything.
func (c *SyncAPIController) Plan(w http.ResponseWriter, r *http.Request) {
	logger := composables.UseLogger(r.Context(), logging.Nop())

	preview, err := c.sync.Preview(r.Context())
	if err != nil {
		if errors.Is(err, services.ErrFetchFailed) {
			_ = httpapi.WriteRequestError(w, r, http.StatusBadGateway, "SYNC_FETCH_FAILED", err.Error())
			return
		}
		logger.WithError(err).Error("provider sync preview failed")
		_ = httpapi.WriteRequestError(w, r, http.StatusInternalServerError, "SYNC_INTERNAL", "internal error")
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, preview)
}

func (c *SyncAPIController) Status(w http.ResponseWriter, r *http.Request) {
	_ = httpapi.WriteJSON(w, http.StatusOK, c.sync.Status())
}
