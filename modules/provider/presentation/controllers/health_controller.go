package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/jacksonlee411/provider-portal/pkg/application"
	"github.com/jacksonlee411/provider-portal/pkg/httpapi"
)

type HealthController struct{}

func NewHealthController() application.Controller {
	return &HealthController{}
}

func (c *HealthController) Key() string {
	return "/health"
}

func (c *HealthController) Register(r *mux.Router) {
	r.HandleFunc("/health", c.Health).Methods(http.MethodGet)
}

// Health is liveness only; it does not touch the database or the registry.
func (c *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
